package xdrzcc

// Header layout: pragma once, embedded runtime declarations, constants,
// enum declarations, dependency-ordered aggregate declarations, wrapper
// and dump prototypes, and (when requested) program declarations.
func (g *generator) emitHeader(out *outputWriter) error {
	doc := g.doc

	out.line("#pragma once")
	out.raw(embeddedBuiltinH)
	out.blank()

	for _, c := range doc.Consts {
		out.linef("#define %-60s %s", c.Name, c.Value)
	}
	out.blank()

	for _, e := range doc.Enums {
		out.line("typedef enum {")
		for _, entry := range e.Entries {
			out.linef("   %-60s = %s,", entry.Name, entry.Value)
		}
		out.linef("} %s;", e.Name)
		out.blank()
	}
	out.blank()

	if err := g.emitOrderedDeclarations(out); err != nil {
		return err
	}

	for _, s := range doc.Structs {
		g.emitWrapperHeaders(out, s.Name)
		g.emitDumpHeader(out, s.Name)
	}
	for _, u := range doc.Unions {
		g.emitWrapperHeaders(out, u.Name)
		g.emitDumpHeader(out, u.Name)
	}

	if g.opts.EmitRPC2 {
		for _, p := range doc.Programs {
			for _, v := range p.Versions {
				g.emitProgramHeader(out, p, v)
			}
		}
	}

	return nil
}

// emitOrderedDeclarations runs the dependency fixpoint: each pass
// scans the struct and union lists and declares every aggregate whose
// non-builtin member types have all been declared, with self-reference
// always admitted. A pass that declares nothing while aggregates
// remain is a genuine cycle and is rejected.
func (g *generator) emitOrderedDeclarations(out *outputWriter) error {
	doc := g.doc

	// Non-aggregate symbols never gate emission; aggregates start out
	// unemitted even if the document was generated before.
	for _, e := range doc.Enums {
		doc.Symbols.Lookup(e.Name).Emitted = true
	}
	for _, td := range doc.Typedefs {
		doc.Symbols.Lookup(td.Name).Emitted = true
	}
	for _, c := range doc.Consts {
		doc.Symbols.Lookup(c.Name).Emitted = true
	}
	for _, s := range doc.Structs {
		doc.Symbols.Lookup(s.Name).Emitted = false
	}
	for _, u := range doc.Unions {
		doc.Symbols.Lookup(u.Name).Emitted = false
	}

	for {
		unemitted := false
		progress := false

		for _, s := range doc.Structs {
			sym := doc.Symbols.Lookup(s.Name)
			if sym.Emitted {
				continue
			}
			if !g.structReady(s, sym) {
				unemitted = true
				continue
			}
			g.emitStructDeclaration(out, s)
			sym.Emitted = true
			progress = true
		}

		for _, u := range doc.Unions {
			sym := doc.Symbols.Lookup(u.Name)
			if sym.Emitted {
				continue
			}
			if !g.unionReady(u, sym) {
				unemitted = true
				continue
			}
			g.emitUnionDeclaration(out, u)
			sym.Emitted = true
			progress = true
		}

		if !unemitted {
			return nil
		}
		if !progress {
			return &CycleError{Names: g.unemittedNames()}
		}
	}
}

func (g *generator) unemittedNames() []string {
	var names []string
	for _, s := range g.doc.Structs {
		if !g.doc.Symbols.Lookup(s.Name).Emitted {
			names = append(names, s.Name)
		}
	}
	for _, u := range g.doc.Unions {
		if !g.doc.Symbols.Lookup(u.Name).Emitted {
			names = append(names, u.Name)
		}
	}
	return names
}

func (g *generator) structReady(s *StructDef, self *Symbol) bool {
	for _, m := range s.Members {
		if m.Type.Builtin {
			continue
		}
		dep := g.doc.Symbols.Lookup(m.Type.Name)
		if dep != self && !dep.Emitted {
			return false
		}
	}
	return true
}

func (g *generator) unionReady(u *UnionDef, self *Symbol) bool {
	for _, c := range u.Cases {
		if c.Type == nil || c.Type.Builtin {
			continue
		}
		dep := g.doc.Symbols.Lookup(c.Type.Name)
		if dep != self && !dep.Emitted {
			return false
		}
	}
	return true
}

func (g *generator) emitStructDeclaration(out *outputWriter, s *StructDef) {
	out.linef("struct %s {", s.Name)
	for _, m := range s.Members {
		g.emitHeaderMember(out, m.Name, m.Type)
	}
	out.line("};")
	out.blank()
}

func (g *generator) emitUnionDeclaration(out *outputWriter, u *UnionDef) {
	out.linef("struct %s {", u.Name)
	out.linef("    %-39s %s;", u.PivotType.Name, u.PivotName)
	out.line("    union {")
	for _, c := range u.Cases {
		if c.Type == nil {
			continue
		}
		out.line("    struct {")
		g.emitHeaderMember(out, c.Name, c.Type)
		out.line("    };")
	}
	out.line("    };")
	out.line("};")
	out.blank()

	// An enum pivot is an integer from here on.
	if sym := g.doc.Symbols.Lookup(u.PivotType.Name); sym != nil && sym.Kind == KindEnum {
		u.PivotType.Name = "uint32_t"
		u.PivotType.Builtin = true
	}
}

// emitHeaderMember writes the in-memory declaration for one member per
// the member emission table: fixed opaque becomes a byte array,
// zerocopy opaque a scatter/gather reference, variable opaque and
// strings length/pointer pairs, vectors a count plus pointer, optional
// members a pointer, arrays and scalars direct values.
func (g *generator) emitHeaderMember(out *outputWriter, name string, t *Type) {
	structstr := "struct"
	if t.Builtin || t.Enumeration {
		structstr = ""
	}

	switch {
	case t.Opaque && t.Array:
		out.linef("    uint8_t %s[%s];", name, t.ArraySize)
	case t.Opaque && t.Zerocopy:
		out.linef("    xdr_iovecr  %s;", name)
	case t.Opaque:
		out.linef("    xdr_opaque  %s;", name)
	case t.Name == "xdr_string":
		out.linef("    xdr_string  %s;", name)
	case t.Vector:
		out.linef("    uint32_t  num_%s;", name)
		out.linef("    %s %s *%s;", structstr, t.Name, name)
	case t.Optional:
		out.linef("    %s %s *%s;", structstr, t.Name, name)
	case t.Array:
		out.linef("    %s %s  %s[%s];", structstr, t.Name, name, t.ArraySize)
	default:
		out.linef("    %s %s  %s;", structstr, t.Name, name)
	}

	// Once declared, an enum member is treated as a 32-bit unsigned by
	// the marshalling phases.
	if sym := g.doc.Symbols.Lookup(t.Name); sym != nil && sym.Kind == KindEnum {
		t.Name = "uint32_t"
		t.Builtin = true
	}
}

func (g *generator) emitWrapperHeaders(out *outputWriter, name string) {
	out.linef("int marshall_%s(", name)
	out.linef("    struct %s *in,", name)
	out.line("    xdr_iovec *iov_in,")
	out.line("    xdr_iovec *iov_out,")
	out.line("    int *niov_out,")
	out.line("    struct evpl_rpc2_rdma_chunk *rdma_chunk,")
	out.line("    int out_offset);")
	out.blank()

	out.linef("int unmarshall_%s(", name)
	out.linef("    struct %s *out,", name)
	out.line("    xdr_iovec *iov,")
	out.line("    int niov,")
	out.line("    struct evpl_rpc2_rdma_chunk *rdma_chunk,")
	out.line("    xdr_dbuf *dbuf);")
	out.blank()

	out.linef("int marshall_length_%s(const struct %s *in);", name, name)
	out.blank()
}

func (g *generator) emitDumpHeader(out *outputWriter, name string) {
	out.linef("void dump_%s(const char *name, const struct %s *in);", name, name)
	out.blank()
}
