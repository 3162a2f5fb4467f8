package xdrzcc

import (
	"fmt"
	"strings"
)

// PrettyString renders the parsed document for the --dump-ast
// debugging surface.
func (d *Document) PrettyString() string {
	var b strings.Builder

	for _, c := range d.Consts {
		fmt.Fprintf(&b, "const %s = %s\n", c.Name, c.Value)
	}
	for _, e := range d.Enums {
		fmt.Fprintf(&b, "enum %s\n", e.Name)
		for _, entry := range e.Entries {
			fmt.Fprintf(&b, "    %s = %s\n", entry.Name, entry.Value)
		}
	}
	for _, td := range d.Typedefs {
		fmt.Fprintf(&b, "typedef %s = %s\n", td.Name, td.Type.describe())
	}
	for _, s := range d.Structs {
		if s.LinkedList {
			fmt.Fprintf(&b, "linkedlist struct %s\n", s.Name)
		} else {
			fmt.Fprintf(&b, "struct %s\n", s.Name)
		}
		for _, m := range s.Members {
			fmt.Fprintf(&b, "    %s: %s\n", m.Name, m.Type.describe())
		}
	}
	for _, u := range d.Unions {
		if u.Opaque {
			fmt.Fprintf(&b, "opaque union %s switch (%s %s)\n", u.Name, u.PivotType.describe(), u.PivotName)
		} else {
			fmt.Fprintf(&b, "union %s switch (%s %s)\n", u.Name, u.PivotType.describe(), u.PivotName)
		}
		for _, c := range u.Cases {
			if c.Voided {
				fmt.Fprintf(&b, "    %s: void\n", c.Label)
			} else {
				fmt.Fprintf(&b, "    %s: %s %s\n", c.Label, c.Name, c.Type.describe())
			}
		}
	}
	for _, p := range d.Programs {
		fmt.Fprintf(&b, "program %s = %s\n", p.Name, p.ID)
		for _, v := range p.Versions {
			fmt.Fprintf(&b, "    version %s = %s\n", v.Name, v.ID)
			for _, fn := range v.Functions {
				fmt.Fprintf(&b, "        %s %s(%s) = %s\n",
					fn.ReplyType.describe(), fn.Name, fn.CallType.describe(), fn.ID)
			}
		}
	}

	return b.String()
}

func (t *Type) describe() string {
	var facets []string
	if t.Zerocopy {
		facets = append(facets, "zerocopy")
	}
	if t.Opaque {
		facets = append(facets, "opaque")
	}
	name := t.Name
	switch {
	case t.Optional:
		name = "*" + name
	case t.Array:
		name = fmt.Sprintf("%s[%s]", name, t.ArraySize)
	case t.Vector:
		name = fmt.Sprintf("%s<%s>", name, t.VectorBound)
	}
	if len(facets) == 0 {
		return name
	}
	return strings.Join(facets, " ") + " " + name
}
