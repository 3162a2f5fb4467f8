package xdrzcc

// Kind classifies a symbol table entry.
type Kind int

const (
	KindTypedef Kind = iota + 1
	KindEnum
	KindStruct
	KindUnion
	KindConst
)

func (k Kind) String() string {
	switch k {
	case KindTypedef:
		return "typedef"
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindConst:
		return "const"
	}
	return "unknown"
}

// Type describes a single type reference as it appears at a member,
// typedef, pivot or case position. After resolution, a non-builtin Name
// always refers to a live struct, union or enum symbol; typedefs have
// been collapsed away.
type Type struct {
	Name        string
	ArraySize   string // expression text, set when Array
	VectorBound string // optional upper bound expression, set when Vector

	Builtin     bool
	Enumeration bool
	LinkedList  bool
	Opaque      bool
	Zerocopy    bool
	Optional    bool
	Vector      bool
	Array       bool
}

// ConstDef is a named constant, emitted verbatim into the header.
type ConstDef struct {
	Name  string
	Value string
}

// TypedefDef is a named alias. The resolver rewrites Type through any
// chain of typedefs to the terminal non-typedef target.
type TypedefDef struct {
	Name string
	Type *Type
}

// EnumEntry is one name/value pair of an enum declaration.
type EnumEntry struct {
	Name  string
	Value string
}

// EnumDef is an enumeration, treated as a 32-bit unsigned on the wire.
type EnumDef struct {
	Name    string
	Entries []*EnumEntry
}

// StructMember is one {type, name} member of a struct.
type StructMember struct {
	Name string
	Type *Type
}

// StructDef is an ordered sequence of members. A linked-list struct
// additionally records which member is the self-referential next
// pointer; that member is skipped by the per-node codecs and driven by
// value-follows booleans instead.
type StructDef struct {
	Name       string
	LinkedList bool
	NextMember string // resolved by Resolve for linked-list structs
	Members    []*StructMember
}

// UnionCase is one arm of a union. A case with Voided set carries no
// body. The default arm has Label == "default".
type UnionCase struct {
	Label  string
	Name   string
	Type   *Type
	Voided bool
}

func (c *UnionCase) isDefault() bool {
	return c.Label == "default"
}

// UnionDef is a discriminated union. With Opaque set, the wire form
// carries a 32-bit body-length prefix between the pivot and the body,
// except for arms whose body is a variable-length opaque.
type UnionDef struct {
	Name      string
	Opaque    bool
	PivotName string
	PivotType *Type
	Cases     []*UnionCase
}

// FunctionDef is one procedure of a program version.
type FunctionDef struct {
	ID        string
	Name      string
	CallType  *Type
	ReplyType *Type
}

// VersionDef is one version of an RPC program.
type VersionDef struct {
	ID        string
	Name      string
	Functions []*FunctionDef
}

// ProgramDef is an RPC program declaration.
type ProgramDef struct {
	ID       string
	Name     string
	Versions []*VersionDef
}

// Document is the parsed form of one IDL file: the five global ordered
// declaration sequences, the program tree, and the symbol table built
// during parsing.
type Document struct {
	Consts   []*ConstDef
	Enums    []*EnumDef
	Typedefs []*TypedefDef
	Structs  []*StructDef
	Unions   []*UnionDef
	Programs []*ProgramDef

	Symbols *SymbolTable
}

// lookupStruct returns the struct definition behind name, or nil.
func (d *Document) lookupStruct(name string) *StructDef {
	sym := d.Symbols.Lookup(name)
	if sym == nil || sym.Kind != KindStruct {
		return nil
	}
	return sym.Node.(*StructDef)
}
