package xdrzcc

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Surface grammar of the IDL. The participle structs below are a
// direct transcription of the accepted syntax; they are converted into
// the Document AST by parser.go, which is also where builtin name
// normalization and the linkedlist / opaque-union / zerocopy markers
// are folded into type flags.

var idlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/|//[^\n]*`},
	{Name: "Number", Pattern: `-?0[xX][0-9a-fA-F]+|-?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[\[\]{}<>()*=;:,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type idlFile struct {
	Decls []*idlDecl `parser:"@@*"`
}

type idlDecl struct {
	Const   *idlConst   `parser:"  @@"`
	Enum    *idlEnum    `parser:"| @@"`
	Typedef *idlTypedef `parser:"| @@"`
	Struct  *idlStruct  `parser:"| @@"`
	Union   *idlUnion   `parser:"| @@"`
	Program *idlProgram `parser:"| @@"`
}

type idlConst struct {
	Name  string `parser:"'const' @Ident '='"`
	Value string `parser:"@(Number | Ident) ';'"`
}

type idlEnum struct {
	Name    string          `parser:"'enum' @Ident '{'"`
	Entries []*idlEnumEntry `parser:"@@ ( ',' @@ )* '}' ';'"`
}

type idlEnumEntry struct {
	Name  string `parser:"@Ident '='"`
	Value string `parser:"@(Number | Ident)"`
}

// idlTypeName accepts both the fixed-width spellings (uint32_t, ...)
// and the classic XDR forms (unsigned int, unsigned hyper, ...).
type idlTypeName struct {
	Unsigned bool   `parser:"@'unsigned'?"`
	Name     string `parser:"@Ident"`
}

// idlMember covers struct members, union case bodies and typedef
// declarators: an optional zerocopy marker, a type, an optional
// reference star, a name, and an optional fixed-array or vector
// suffix.
type idlMember struct {
	Zerocopy bool         `parser:"@'zerocopy'?"`
	Type     *idlTypeName `parser:"@@"`
	Pointer  bool         `parser:"@'*'?"`
	Name     string       `parser:"@Ident"`
	Array    *string      `parser:"( '[' @(Number | Ident) ']'"`
	Vector   bool         `parser:"| @'<'"`
	Bound    *string      `parser:"  @(Number | Ident)? '>' )? ';'"`
}

type idlTypedef struct {
	Member *idlMember `parser:"'typedef' @@"`
}

type idlStruct struct {
	LinkedList bool         `parser:"@'linkedlist'?"`
	Name       string       `parser:"'struct' @Ident '{'"`
	Members    []*idlMember `parser:"@@+ '}' ';'"`
}

type idlUnion struct {
	Opaque    bool         `parser:"@'opaque'?"`
	Name      string       `parser:"'union' @Ident 'switch' '('"`
	PivotType *idlTypeName `parser:"@@"`
	PivotName string       `parser:"@Ident ')' '{'"`
	Cases     []*idlCase   `parser:"@@+ '}' ';'"`
}

type idlCase struct {
	Label  string     `parser:"( 'case' @(Number | Ident) | @'default' ) ':'"`
	Void   bool       `parser:"( @'void' ';'"`
	Member *idlMember `parser:"| @@ )"`
}

type idlProgram struct {
	Name     string        `parser:"'program' @Ident '{'"`
	Versions []*idlVersion `parser:"@@+ '}' '='"`
	ID       string        `parser:"@Number ';'"`
}

type idlVersion struct {
	Name      string         `parser:"'version' @Ident '{'"`
	Functions []*idlFunction `parser:"@@+ '}' '='"`
	ID        string         `parser:"@Number ';'"`
}

type idlFunction struct {
	Reply *idlTypeName `parser:"@@"`
	Name  string       `parser:"@Ident '('"`
	Call  *idlTypeName `parser:"@@ ')' '='"`
	ID    string       `parser:"@Number ';'"`
}

var idlParser = participle.MustBuild[idlFile](
	participle.Lexer(idlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)
