package xdrzcc

// Options controls generation.
type Options struct {
	// EmitRPC2 additionally emits the RPC program dispatch scaffolding
	// for every program/version declared in the IDL.
	EmitRPC2 bool

	// HeaderInclude is the name used by the generated source to
	// include the generated header.
	HeaderInclude string
}

type generator struct {
	doc  *Document
	opts Options
}

// Generate produces the generated C source and header for a resolved
// document.
func (d *Document) Generate(opts Options) (source string, header string, err error) {
	if opts.HeaderInclude == "" {
		opts.HeaderInclude = "xdr.h"
	}
	g := &generator{doc: d, opts: opts}

	h := newOutputWriter()
	if err := g.emitHeader(h); err != nil {
		return "", "", err
	}

	s := newOutputWriter()
	g.emitSource(s)

	return s.output(), h.output(), nil
}
