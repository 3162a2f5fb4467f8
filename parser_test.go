package xdrzcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDocument(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse("test.x", []byte(src))
	require.NoError(t, err)
	require.NoError(t, doc.Resolve())
	return doc
}

func generate(t *testing.T, src string, opts Options) (source string, header string) {
	t.Helper()
	doc := mustDocument(t, src)
	source, header, err := doc.Generate(opts)
	require.NoError(t, err)
	return source, header
}

func TestParseConst(t *testing.T) {
	doc, err := Parse("test.x", []byte(`const MAX_ITEMS = 42;`))
	require.NoError(t, err)
	require.Len(t, doc.Consts, 1)
	assert.Equal(t, "MAX_ITEMS", doc.Consts[0].Name)
	assert.Equal(t, "42", doc.Consts[0].Value)

	sym := doc.Symbols.Lookup("MAX_ITEMS")
	require.NotNil(t, sym)
	assert.Equal(t, KindConst, sym.Kind)
}

func TestParseConstHex(t *testing.T) {
	doc, err := Parse("test.x", []byte(`const MASK = 0xffff;`))
	require.NoError(t, err)
	assert.Equal(t, "0xffff", doc.Consts[0].Value)
}

func TestParseEnum(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		enum Color {
			RED = 1,
			GREEN = 2,
			BLUE = 3
		};
	`))
	require.NoError(t, err)
	require.Len(t, doc.Enums, 1)

	e := doc.Enums[0]
	assert.Equal(t, "Color", e.Name)
	require.Len(t, e.Entries, 3)
	assert.Equal(t, "GREEN", e.Entries[1].Name)
	assert.Equal(t, "2", e.Entries[1].Value)
}

func TestParseStructMemberShapes(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		struct Shapes {
			uint32_t scalar;
			uint32_t fixed[16];
			uint32_t vec<16>;
			uint32_t unbounded<>;
			uint32_t *opt;
			string name<>;
			opaque blob<>;
			opaque bounded<512>;
			opaque raw[8];
			zerocopy opaque payload<>;
		};
	`))
	require.NoError(t, err)
	require.Len(t, doc.Structs, 1)

	members := doc.Structs[0].Members
	require.Len(t, members, 10)

	scalar := members[0].Type
	assert.True(t, scalar.Builtin)
	assert.Equal(t, "uint32_t", scalar.Name)
	assert.False(t, scalar.Vector)
	assert.False(t, scalar.Array)

	fixed := members[1].Type
	assert.True(t, fixed.Array)
	assert.Equal(t, "16", fixed.ArraySize)

	vec := members[2].Type
	assert.True(t, vec.Vector)
	assert.Equal(t, "16", vec.VectorBound)

	unbounded := members[3].Type
	assert.True(t, unbounded.Vector)
	assert.Equal(t, "", unbounded.VectorBound)

	opt := members[4].Type
	assert.True(t, opt.Optional)

	name := members[5].Type
	assert.Equal(t, "xdr_string", name.Name)
	assert.True(t, name.Builtin)
	assert.False(t, name.Vector)

	blob := members[6].Type
	assert.True(t, blob.Opaque)
	assert.True(t, blob.Builtin)
	assert.False(t, blob.Vector)
	assert.False(t, blob.Array)

	bounded := members[7].Type
	assert.True(t, bounded.Opaque)
	assert.Equal(t, "512", bounded.VectorBound)

	raw := members[8].Type
	assert.True(t, raw.Opaque)
	assert.True(t, raw.Array)
	assert.Equal(t, "8", raw.ArraySize)

	payload := members[9].Type
	assert.True(t, payload.Opaque)
	assert.True(t, payload.Zerocopy)
}

func TestParseClassicSpellings(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		struct Classic {
			unsigned int a;
			int b;
			unsigned hyper c;
			hyper d;
			bool e;
		};
	`))
	require.NoError(t, err)

	members := doc.Structs[0].Members
	assert.Equal(t, "uint32_t", members[0].Type.Name)
	assert.Equal(t, "int32_t", members[1].Type.Name)
	assert.Equal(t, "uint64_t", members[2].Type.Name)
	assert.Equal(t, "int64_t", members[3].Type.Name)
	assert.Equal(t, "uint32_t", members[4].Type.Name)
	for _, m := range members {
		assert.True(t, m.Type.Builtin)
	}
}

func TestParseLinkedListStruct(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		linkedlist struct entry {
			uint32_t value;
			entry *next;
		};
	`))
	require.NoError(t, err)
	require.Len(t, doc.Structs, 1)
	assert.True(t, doc.Structs[0].LinkedList)
}

func TestParseUnion(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		union MyMsg switch (uint32_t opt) {
			case 1: uint32_t value;
			case 2: string label<>;
			case 3: void;
			default: void;
		};
	`))
	require.NoError(t, err)
	require.Len(t, doc.Unions, 1)

	u := doc.Unions[0]
	assert.False(t, u.Opaque)
	assert.Equal(t, "opt", u.PivotName)
	assert.Equal(t, "uint32_t", u.PivotType.Name)
	require.Len(t, u.Cases, 4)

	assert.Equal(t, "1", u.Cases[0].Label)
	assert.Equal(t, "value", u.Cases[0].Name)
	assert.True(t, u.Cases[2].Voided)
	assert.Equal(t, "default", u.Cases[3].Label)
	assert.True(t, u.Cases[3].Voided)
}

func TestParseOpaqueUnion(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		opaque union Framed switch (uint32_t kind) {
			case 1: uint32_t count;
			case 2: opaque body<>;
		};
	`))
	require.NoError(t, err)
	require.Len(t, doc.Unions, 1)
	assert.True(t, doc.Unions[0].Opaque)
}

func TestParseTypedef(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		typedef uint32_t counter;
		typedef opaque blob<>;
	`))
	require.NoError(t, err)
	require.Len(t, doc.Typedefs, 2)
	assert.Equal(t, "counter", doc.Typedefs[0].Name)
	assert.Equal(t, "uint32_t", doc.Typedefs[0].Type.Name)
	assert.True(t, doc.Typedefs[1].Type.Opaque)
}

func TestParseProgram(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		struct args3 { uint32_t x; };
		struct res3 { uint32_t y; };
		program TEST_PROGRAM {
			version test_v3 {
				void PROC_NULL(void) = 0;
				res3 PROC_GET(args3) = 1;
				uint32_t PROC_PING(uint32_t) = 2;
			} = 3;
		} = 100003;
	`))
	require.NoError(t, err)
	require.Len(t, doc.Programs, 1)

	p := doc.Programs[0]
	assert.Equal(t, "100003", p.ID)
	require.Len(t, p.Versions, 1)

	v := p.Versions[0]
	assert.Equal(t, "3", v.ID)
	require.Len(t, v.Functions, 3)

	assert.Equal(t, "void", v.Functions[0].CallType.Name)
	assert.Equal(t, "void", v.Functions[0].ReplyType.Name)
	assert.Equal(t, "args3", v.Functions[1].CallType.Name)
	assert.False(t, v.Functions[1].CallType.Builtin)
	assert.Equal(t, "uint32_t", v.Functions[2].CallType.Name)
	assert.True(t, v.Functions[2].CallType.Builtin)
}

func TestParseComments(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		/* a block comment */
		const A = 1;
		// a line comment
		const B = 2;
	`))
	require.NoError(t, err)
	assert.Len(t, doc.Consts, 2)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("test.x", []byte(`struct Broken {`))
	require.Error(t, err)

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "syntax error")
}

func TestParseDuplicateSymbol(t *testing.T) {
	_, err := Parse("test.x", []byte(`
		struct Twice { uint32_t a; };
		struct Twice { uint32_t b; };
	`))
	require.Error(t, err)

	var derr *DuplicateSymbolError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Twice", derr.Name)
}

func TestPrettyString(t *testing.T) {
	doc, err := Parse("test.x", []byte(`
		const MAX = 8;
		enum Color { RED = 1 };
		struct Point { uint32_t x; uint32_t y; };
	`))
	require.NoError(t, err)

	text := doc.PrettyString()
	assert.Contains(t, text, "const MAX = 8")
	assert.Contains(t, text, "enum Color")
	assert.Contains(t, text, "struct Point")
	assert.Contains(t, text, "x: uint32_t")
}
