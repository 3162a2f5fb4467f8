package xdrzcc

import _ "embed"

// The generated pair embeds the runtime fragments verbatim: the header
// declarations at the top of the generated header, the definitions at
// the top of the generated source. The generator never reimplements
// these; it only emits calls against their contracts.

//go:embed runtime/xdr_builtin.h
var embeddedBuiltinH string

//go:embed runtime/xdr_builtin.c
var embeddedBuiltinC string
