package xdrzcc

import "fmt"

// Resolve verifies every referenced type name against the symbol
// table, collapses typedef chains to their terminal non-typedef
// target, and tags referenced types with the enumeration and
// linkedlist facets. Typedefs are resolved first so that struct and
// union references always land on fully collapsed targets regardless
// of declaration order.
func (d *Document) Resolve() error {
	for _, td := range d.Typedefs {
		if err := d.resolveTypedef(td); err != nil {
			return err
		}
	}
	for _, s := range d.Structs {
		if err := d.resolveStruct(s); err != nil {
			return err
		}
	}
	for _, u := range d.Unions {
		if err := d.resolveUnion(u); err != nil {
			return err
		}
	}
	for _, p := range d.Programs {
		if err := d.resolveProgram(p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) resolveTypedef(td *TypedefDef) error {
	for !td.Type.Builtin {
		sym := d.Symbols.Lookup(td.Type.Name)
		if sym == nil {
			return &UnknownTypeError{
				Container: fmt.Sprintf("typedef %s", td.Name),
				Type:      td.Type.Name,
			}
		}
		if sym.Kind == KindEnum {
			td.Type.Enumeration = true
		}
		if sym.Kind != KindTypedef {
			break
		}
		td.Type = sym.Node.(*TypedefDef).Type
	}
	return nil
}

func (d *Document) resolveStruct(s *StructDef) error {
	for _, m := range s.Members {
		if m.Type.Builtin {
			continue
		}
		sym := d.Symbols.Lookup(m.Type.Name)
		if sym == nil {
			return &UnknownTypeError{
				Container: fmt.Sprintf("struct %s", s.Name),
				Member:    m.Name,
				Type:      m.Type.Name,
			}
		}
		switch sym.Kind {
		case KindEnum:
			m.Type.Enumeration = true
		case KindTypedef:
			m.Type = sym.Node.(*TypedefDef).Type
		case KindStruct:
			if sym.Node.(*StructDef).LinkedList {
				m.Type.LinkedList = true
			}
		}
	}
	if s.LinkedList {
		return d.resolveNextMember(s)
	}
	return nil
}

// resolveNextMember locates the single optional self-referential
// member of a linked-list struct. The member is identified
// structurally, never by naming convention.
func (d *Document) resolveNextMember(s *StructDef) error {
	var candidates []string
	for _, m := range s.Members {
		if m.Type.Optional && !m.Type.Builtin && m.Type.Name == s.Name {
			candidates = append(candidates, m.Name)
		}
	}
	if len(candidates) != 1 {
		return &LinkedListError{Struct: s.Name, Count: len(candidates)}
	}
	s.NextMember = candidates[0]
	return nil
}

func (d *Document) resolveUnion(u *UnionDef) error {
	if !u.PivotType.Builtin {
		sym := d.Symbols.Lookup(u.PivotType.Name)
		if sym == nil {
			return &UnknownTypeError{
				Container: fmt.Sprintf("union %s", u.Name),
				Member:    u.PivotName,
				Type:      u.PivotType.Name,
			}
		}
		if sym.Kind == KindTypedef {
			u.PivotType = sym.Node.(*TypedefDef).Type
		}
	}
	for _, c := range u.Cases {
		if c.Type == nil || c.Type.Builtin {
			continue
		}
		sym := d.Symbols.Lookup(c.Type.Name)
		if sym == nil {
			return &UnknownTypeError{
				Container: fmt.Sprintf("union %s", u.Name),
				Member:    c.Name,
				Type:      c.Type.Name,
			}
		}
		switch sym.Kind {
		case KindEnum:
			c.Type.Enumeration = true
		case KindTypedef:
			c.Type = sym.Node.(*TypedefDef).Type
		}
	}
	return nil
}

func (d *Document) resolveProgram(p *ProgramDef) error {
	for _, v := range p.Versions {
		for _, fn := range v.Functions {
			for _, t := range []*Type{fn.CallType, fn.ReplyType} {
				if t.Builtin {
					continue
				}
				sym := d.Symbols.Lookup(t.Name)
				if sym == nil {
					return &UnknownTypeError{
						Container: fmt.Sprintf("program %s", p.Name),
						Member:    fn.Name,
						Type:      t.Name,
					}
				}
				if sym.Kind == KindTypedef {
					target := sym.Node.(*TypedefDef).Type
					*t = *target
				}
			}
		}
	}
	return nil
}
