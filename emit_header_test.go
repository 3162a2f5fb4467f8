package xdrzcc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderPreamble(t *testing.T) {
	_, header := generate(t, `struct S { uint32_t v; };`, Options{})

	assert.True(t, strings.HasPrefix(header, "#pragma once\n"))
	assert.Contains(t, header, "XDRZCC_XDR_BUILTIN_H")
	assert.Contains(t, header, "typedef struct {")
}

func TestHeaderConstants(t *testing.T) {
	_, header := generate(t, `
		const MAX_ITEMS = 42;
		const MASK = 0xff;
	`, Options{})

	assert.Contains(t, header, "#define MAX_ITEMS")
	assert.Contains(t, header, "42")
	assert.Contains(t, header, "#define MASK")
}

func TestHeaderEnumDeclaration(t *testing.T) {
	_, header := generate(t, `
		enum Color { RED = 1, BLUE = 2 };
	`, Options{})

	assert.Contains(t, header, "typedef enum {")
	assert.Contains(t, header, "} Color;")
	assert.Contains(t, header, "RED")
	assert.Contains(t, header, "= 1,")
}

func TestHeaderMemberForms(t *testing.T) {
	_, header := generate(t, `
		struct Inner { uint32_t v; };
		struct Shapes {
			uint32_t scalar;
			uint32_t fixed[16];
			uint32_t vec<>;
			Inner *opt;
			Inner inners<>;
			string name<>;
			opaque blob<>;
			opaque raw[8];
			zerocopy opaque payload<>;
		};
	`, Options{})

	assert.Contains(t, header, "uint32_t  scalar;")
	assert.Contains(t, header, "uint32_t  fixed[16];")
	assert.Contains(t, header, "uint32_t  num_vec;")
	assert.Contains(t, header, "uint32_t *vec;")
	assert.Contains(t, header, "struct Inner *opt;")
	assert.Contains(t, header, "uint32_t  num_inners;")
	assert.Contains(t, header, "struct Inner *inners;")
	assert.Contains(t, header, "xdr_string  name;")
	assert.Contains(t, header, "xdr_opaque  blob;")
	assert.Contains(t, header, "uint8_t raw[8];")
	assert.Contains(t, header, "xdr_iovecr  payload;")
}

func TestHeaderDependencyOrder(t *testing.T) {
	// Outer is declared first in the IDL but depends on Inner.
	_, header := generate(t, `
		struct Outer { Inner in; };
		struct Inner { uint32_t v; };
	`, Options{})

	inner := strings.Index(header, "struct Inner {")
	outer := strings.Index(header, "struct Outer {")
	require.GreaterOrEqual(t, inner, 0)
	require.GreaterOrEqual(t, outer, 0)
	assert.Less(t, inner, outer)
}

func TestHeaderSelfReferenceAllowed(t *testing.T) {
	_, header := generate(t, `
		linkedlist struct entry {
			uint32_t value;
			entry *next;
		};
	`, Options{})

	assert.Contains(t, header, "struct entry {")
	assert.Contains(t, header, "struct entry *next;")
}

func TestHeaderCycleDetected(t *testing.T) {
	doc := mustDocument(t, `
		struct X { Y y; };
		struct Y { X x; };
	`)

	_, _, err := doc.Generate(Options{})
	require.Error(t, err)

	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	assert.ElementsMatch(t, []string{"X", "Y"}, cerr.Names)
}

func TestHeaderEnumMemberRewrite(t *testing.T) {
	doc := mustDocument(t, `
		enum Color { RED = 1 };
		struct Canvas { Color c; };
	`)

	_, header, err := doc.Generate(Options{})
	require.NoError(t, err)

	// Declared with the enum type name...
	assert.Contains(t, header, "Color  c;")

	// ...then treated as a 32-bit unsigned by the marshalling phases.
	c := doc.Structs[0].Members[0].Type
	assert.Equal(t, "uint32_t", c.Name)
	assert.True(t, c.Builtin)
}

func TestHeaderUnionDeclaration(t *testing.T) {
	_, header := generate(t, `
		union MyMsg switch (uint32_t opt) {
			case 1: uint32_t value;
			case 2: string label<>;
			case 3: void;
		};
	`, Options{})

	assert.Contains(t, header, "struct MyMsg {")
	assert.Contains(t, header, "opt;")
	assert.Contains(t, header, "    union {")
	assert.Contains(t, header, "uint32_t  value;")
	assert.Contains(t, header, "xdr_string  label;")
}

func TestHeaderUnionEnumPivotRewrite(t *testing.T) {
	doc := mustDocument(t, `
		enum Kind { A = 1, B = 2 };
		union U switch (Kind k) {
			case A: uint32_t v;
			default: void;
		};
	`)

	_, header, err := doc.Generate(Options{})
	require.NoError(t, err)

	assert.Contains(t, header, "Kind")
	assert.Equal(t, "uint32_t", doc.Unions[0].PivotType.Name)
	assert.True(t, doc.Unions[0].PivotType.Builtin)
}

func TestHeaderPrototypes(t *testing.T) {
	_, header := generate(t, `struct Foo { uint32_t v; };`, Options{})

	assert.Contains(t, header, "int marshall_Foo(")
	assert.Contains(t, header, "int unmarshall_Foo(")
	assert.Contains(t, header, "int marshall_length_Foo(const struct Foo *in);")
	assert.Contains(t, header, "void dump_Foo(const char *name, const struct Foo *in);")
}

func TestHeaderProgramDeclarations(t *testing.T) {
	src := `
		struct args3 { uint32_t x; };
		program TEST_PROG {
			version test_v1 {
				void PROC_NULL(void) = 0;
				args3 PROC_GET(args3) = 1;
			} = 1;
		} = 100;
	`

	_, header := generate(t, src, Options{EmitRPC2: true})
	assert.Contains(t, header, "struct test_v1 {")
	assert.Contains(t, header, "struct evpl_rpc2_program rpc2;")
	assert.Contains(t, header, "send_call_PROC_NULL")
	assert.Contains(t, header, "recv_call_PROC_GET")
	assert.Contains(t, header, "void test_v1_init(struct test_v1 *);")

	_, header = generate(t, src, Options{})
	assert.NotContains(t, header, "test_v1_init")
}
