package xdrzcc

// isTypeRecursive reports whether any reachable member of the named
// aggregate, through at most one level of typedef indirection, refers
// back to the aggregate itself. The result only selects the inline
// annotation on emitted internal routines; a recursive aggregate must
// not be force-inlined.
func (d *Document) isTypeRecursive(name string) bool {
	sym := d.Symbols.Lookup(name)
	if sym == nil {
		return false
	}

	switch sym.Kind {
	case KindStruct:
		s := sym.Node.(*StructDef)
		for _, m := range s.Members {
			if m.Type.Builtin {
				continue
			}
			if d.refersTo(m.Type, name) {
				return true
			}
		}
	case KindUnion:
		u := sym.Node.(*UnionDef)
		if !u.PivotType.Builtin && d.refersTo(u.PivotType, name) {
			return true
		}
		for _, c := range u.Cases {
			if c.Type == nil || c.Type.Builtin {
				continue
			}
			if d.refersTo(c.Type, name) {
				return true
			}
		}
	}

	return false
}

// refersTo checks one member type against the target name, unwrapping
// a single typedef level.
func (d *Document) refersTo(t *Type, name string) bool {
	if sym := d.Symbols.Lookup(t.Name); sym != nil && sym.Kind == KindTypedef {
		target := sym.Node.(*TypedefDef).Type
		return !target.Builtin && target.Name == name
	}
	return t.Name == name
}
