package xdrzcc

import (
	"os"
)

// builtinNames maps accepted builtin spellings to their canonical
// names. The classic XDR forms normalize to the fixed-width names;
// string becomes xdr_string, and bool is a 32-bit unsigned on the
// wire.
var builtinNames = map[string]string{
	"uint32_t":   "uint32_t",
	"int32_t":    "int32_t",
	"uint64_t":   "uint64_t",
	"int64_t":    "int64_t",
	"int":        "int32_t",
	"hyper":      "int64_t",
	"bool":       "uint32_t",
	"float":      "float",
	"double":     "double",
	"void":       "void",
	"string":     "xdr_string",
	"xdr_string": "xdr_string",
	"xdr_iovec":  "xdr_iovec",
}

// unsignedNames resolves the "unsigned X" spellings.
var unsignedNames = map[string]string{
	"int":   "uint32_t",
	"hyper": "uint64_t",
}

// ParseFile reads and parses one IDL source file.
func ParseFile(path string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, src)
}

// Parse parses IDL source into a Document, populating the symbol
// table. The returned document is unresolved; call Resolve before
// emission.
func Parse(path string, src []byte) (*Document, error) {
	tree, err := idlParser.ParseBytes(path, src)
	if err != nil {
		return nil, &SyntaxError{Path: path, Err: err}
	}
	return convertFile(tree)
}

func convertFile(tree *idlFile) (*Document, error) {
	doc := &Document{Symbols: NewSymbolTable()}

	for _, decl := range tree.Decls {
		var err error
		switch {
		case decl.Const != nil:
			c := &ConstDef{Name: decl.Const.Name, Value: decl.Const.Value}
			doc.Consts = append(doc.Consts, c)
			err = doc.Symbols.Add(KindConst, c.Name, c)
		case decl.Enum != nil:
			e := convertEnum(decl.Enum)
			doc.Enums = append(doc.Enums, e)
			err = doc.Symbols.Add(KindEnum, e.Name, e)
		case decl.Typedef != nil:
			td := convertTypedef(decl.Typedef)
			doc.Typedefs = append(doc.Typedefs, td)
			err = doc.Symbols.Add(KindTypedef, td.Name, td)
		case decl.Struct != nil:
			s := convertStruct(decl.Struct)
			doc.Structs = append(doc.Structs, s)
			err = doc.Symbols.Add(KindStruct, s.Name, s)
		case decl.Union != nil:
			u := convertUnion(decl.Union)
			doc.Unions = append(doc.Unions, u)
			err = doc.Symbols.Add(KindUnion, u.Name, u)
		case decl.Program != nil:
			doc.Programs = append(doc.Programs, convertProgram(decl.Program))
		}
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func convertEnum(e *idlEnum) *EnumDef {
	out := &EnumDef{Name: e.Name}
	for _, entry := range e.Entries {
		out.Entries = append(out.Entries, &EnumEntry{Name: entry.Name, Value: entry.Value})
	}
	return out
}

func convertTypedef(td *idlTypedef) *TypedefDef {
	return &TypedefDef{
		Name: td.Member.Name,
		Type: convertType(td.Member),
	}
}

func convertStruct(s *idlStruct) *StructDef {
	out := &StructDef{Name: s.Name, LinkedList: s.LinkedList}
	for _, m := range s.Members {
		out.Members = append(out.Members, &StructMember{
			Name: m.Name,
			Type: convertType(m),
		})
	}
	return out
}

func convertUnion(u *idlUnion) *UnionDef {
	out := &UnionDef{
		Name:      u.Name,
		Opaque:    u.Opaque,
		PivotName: u.PivotName,
		PivotType: convertTypeName(u.PivotType),
	}
	for _, c := range u.Cases {
		uc := &UnionCase{Label: c.Label}
		if c.Void || c.Member == nil {
			uc.Voided = true
		} else {
			uc.Name = c.Member.Name
			uc.Type = convertType(c.Member)
		}
		out.Cases = append(out.Cases, uc)
	}
	return out
}

func convertProgram(p *idlProgram) *ProgramDef {
	out := &ProgramDef{ID: p.ID, Name: p.Name}
	for _, v := range p.Versions {
		ver := &VersionDef{ID: v.ID, Name: v.Name}
		for _, fn := range v.Functions {
			ver.Functions = append(ver.Functions, &FunctionDef{
				ID:        fn.ID,
				Name:      fn.Name,
				CallType:  convertTypeName(fn.Call),
				ReplyType: convertTypeName(fn.Reply),
			})
		}
		out.Versions = append(out.Versions, ver)
	}
	return out
}

// convertTypeName builds a bare Type from a type name with no member
// decorations (pivot types and program call/reply types).
func convertTypeName(tn *idlTypeName) *Type {
	t := &Type{Name: tn.Name}
	normalizeBuiltin(t, tn.Unsigned)
	return t
}

// convertType folds the member decorations (pointer, array, vector,
// zerocopy) into type flags.
func convertType(m *idlMember) *Type {
	t := &Type{
		Name:     m.Type.Name,
		Zerocopy: m.Zerocopy,
		Optional: m.Pointer,
	}
	if m.Array != nil {
		t.Array = true
		t.ArraySize = *m.Array
	}
	if m.Vector {
		t.Vector = true
		if m.Bound != nil {
			t.VectorBound = *m.Bound
		}
	}
	normalizeBuiltin(t, m.Type.Unsigned)

	// Variable-length opaque and string carry their own length on the
	// wire; the vector suffix only contributes the optional bound of an
	// opaque, and a string's bound is dropped.
	if t.Opaque && t.Vector {
		t.Vector = false
	}
	if t.Name == "xdr_string" && t.Vector {
		t.Vector = false
		t.VectorBound = ""
	}
	return t
}

func normalizeBuiltin(t *Type, unsigned bool) {
	name := t.Name
	if unsigned {
		if canonical, ok := unsignedNames[name]; ok {
			name = canonical
		}
	}
	if name == "opaque" {
		t.Name = "opaque"
		t.Builtin = true
		t.Opaque = true
		return
	}
	if canonical, ok := builtinNames[name]; ok {
		t.Name = canonical
		t.Builtin = true
	}
}
