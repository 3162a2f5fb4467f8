package xdrzcc

// Source layout: include of the generated header, embedded runtime
// definitions, forward declarations for every aggregate's internal
// routines, then per-aggregate routine bodies, then (when requested)
// program scaffolds.
func (g *generator) emitSource(out *outputWriter) {
	out.line("#include <stdio.h>")
	out.linef("#include \"%s\"", g.opts.HeaderInclude)
	out.blank()
	out.raw(embeddedBuiltinC)
	out.blank()

	for _, s := range g.doc.Structs {
		g.emitInternalDecls(out, s.Name)
		g.emitDumpDecl(out, s.Name)
	}
	for _, u := range g.doc.Unions {
		g.emitInternalDecls(out, u.Name)
		g.emitDumpDecl(out, u.Name)
	}
	out.blank()

	for _, s := range g.doc.Structs {
		g.emitStructRoutines(out, s)
	}
	for _, u := range g.doc.Unions {
		g.emitUnionRoutines(out, u)
	}

	if g.opts.EmitRPC2 {
		for _, p := range g.doc.Programs {
			for _, v := range p.Versions {
				g.emitProgram(out, p, v)
			}
		}
	}
}

// inlineQualifier picks the internal routine linkage: non-recursive
// aggregates are force-inlined, recursive ones cannot be.
func (g *generator) inlineQualifier(name string) string {
	if g.doc.isTypeRecursive(name) {
		return "static int WARN_UNUSED_RESULT"
	}
	return "static FORCE_INLINE int WARN_UNUSED_RESULT"
}

func (g *generator) lengthQualifier(name string) string {
	if g.doc.isTypeRecursive(name) {
		return "static int"
	}
	return "static FORCE_INLINE int"
}

func (g *generator) emitInternalDecls(out *outputWriter, name string) {
	out.line(g.inlineQualifier(name))
	out.linef("__marshall_%s(", name)
	out.linef("    struct %s *in,", name)
	out.line("    struct xdr_write_cursor *cursor);")
	out.blank()

	out.line("static int")
	out.linef("__unmarshall_%s_vector(", name)
	out.linef("    struct %s *out,", name)
	out.line("    struct xdr_read_cursor *cursor,")
	out.line("    xdr_dbuf *dbuf);")
	out.blank()

	out.line("static int")
	out.linef("__unmarshall_%s_contig(", name)
	out.linef("    struct %s *out,", name)
	out.line("    struct xdr_read_cursor *cursor,")
	out.line("    xdr_dbuf *dbuf);")
	out.blank()

	out.line("static int")
	out.linef("__marshall_length_%s(", name)
	out.linef("    const struct %s *in);", name)
	out.blank()
}

func (g *generator) emitDumpDecl(out *outputWriter, name string) {
	out.linef("static void _dump_%s(const char *prefix, const char *name, const struct %s *in);",
		name, name)
}

// emitMarshallMember appends the encode step for one member to the
// current routine body.
func (g *generator) emitMarshallMember(out *outputWriter, name string, t *Type) {
	switch {
	case t.Opaque && t.Array:
		out.linef("    if (unlikely(xdr_write_cursor_append(cursor, in->%s, %s) < 0)) return -1;",
			name, t.ArraySize)
		out.line("    {")
		out.line("        const uint32_t zeropad = 0;")
		out.linef("        if (unlikely(xdr_write_cursor_append(cursor, &zeropad, xdr_pad(%s)) < 0)) return -1;",
			t.ArraySize)
		out.line("    }")
	case t.Opaque && t.Zerocopy:
		out.linef("    if (unlikely(__marshall_opaque_zerocopy(&in->%s, cursor) < 0)) return -1;",
			name)
	case t.Opaque:
		out.linef("    if (unlikely(__marshall_opaque(&in->%s, %s, cursor) < 0)) return -1;",
			name, boundOrZero(t))
	case t.Name == "xdr_string":
		out.linef("    if (unlikely(__marshall_xdr_string(&in->%s, cursor) < 0)) return -1;",
			name)
	case t.LinkedList:
		list := g.doc.lookupStruct(t.Name)
		out.line("    {")
		out.line("        uint32_t more;")
		out.linef("        struct %s *current = in->%s;", t.Name, name)
		out.line("        while (current != NULL) {")
		out.line("            more = 1;")
		out.line("            if (unlikely(__marshall_uint32_t(&more, cursor) < 0)) return -1;")
		out.linef("            if (unlikely(__marshall_%s(current, cursor) < 0)) return -1;", t.Name)
		out.linef("            current = current->%s;", list.NextMember)
		out.line("        }")
		out.line("        more = 0;")
		out.line("        if (unlikely(__marshall_uint32_t(&more, cursor) < 0)) return -1;")
		out.line("    }")
	case t.Optional:
		out.line("    {")
		out.linef("        uint32_t more = !!(in->%s);", name)
		out.line("        if (unlikely(__marshall_uint32_t(&more, cursor) < 0)) return -1;")
		out.line("        if (more) {")
		out.linef("            if (unlikely(__marshall_%s(in->%s, cursor) < 0)) return -1;",
			t.Name, name)
		out.line("        }")
		out.line("    }")
	case t.Vector:
		out.linef("    if (unlikely(__marshall_uint32_t(&in->num_%s, cursor) < 0)) return -1;", name)
		out.linef("    for (int i = 0; i < in->num_%s; i++) {", name)
		out.linef("        if (unlikely(__marshall_%s(&in->%s[i], cursor) < 0)) return -1;",
			t.Name, name)
		out.line("    }")
	case t.Array:
		out.linef("    for (int i = 0; i < %s; ++i) {", t.ArraySize)
		out.linef("        if (unlikely(__marshall_%s(&in->%s[i], cursor) < 0)) return -1;",
			t.Name, name)
		out.line("    }")
	default:
		out.linef("    if (unlikely(__marshall_%s(&in->%s, cursor) < 0)) return -1;", t.Name, name)
	}
}

// emitUnmarshallMember appends the decode step for one member. The
// variant is "vector" or "contig" and selects the helper suffix; fixed
// opaque additionally takes a direct copy on the contig path. Every
// step funnels through the common rc/len trailer so the two variants
// consume identical byte counts.
func (g *generator) emitUnmarshallMember(out *outputWriter, name string, t *Type, variant string) {
	switch {
	case t.Opaque && t.Array:
		if variant == "vector" {
			out.linef("    rc = xdr_read_cursor_vector_extract(cursor, out->%s, %s);",
				name, t.ArraySize)
			out.line("    if (unlikely(rc < 0)) return rc;")
			out.line("    len += rc;")
			out.linef("    rc = xdr_read_cursor_vector_skip(cursor, xdr_pad(%s));", t.ArraySize)
		} else {
			out.linef("    if (unlikely(cursor->iov_offset + %s + xdr_pad(%s) > xdr_iovec_len(cursor->cur))) return -1;",
				t.ArraySize, t.ArraySize)
			out.linef("    memcpy(out->%s, xdr_iovec_data(cursor->cur) + cursor->iov_offset, %s);",
				name, t.ArraySize)
			out.linef("    cursor->iov_offset += %s + xdr_pad(%s);", t.ArraySize, t.ArraySize)
			out.linef("    cursor->offset += %s + xdr_pad(%s);", t.ArraySize, t.ArraySize)
			out.linef("    len += %s + xdr_pad(%s);", t.ArraySize, t.ArraySize)
			out.line("    rc = 0;")
		}
	case t.Opaque && t.Zerocopy:
		out.linef("    rc = __unmarshall_opaque_zerocopy_%s(&out->%s, cursor, dbuf);",
			variant, name)
	case t.Opaque:
		out.linef("    rc = __unmarshall_opaque_%s(&out->%s, %s, cursor, dbuf);",
			variant, name, boundOrZero(t))
	case t.Name == "xdr_string":
		out.linef("    rc = __unmarshall_xdr_string_%s(&out->%s, cursor, dbuf);", variant, name)
	case t.LinkedList:
		list := g.doc.lookupStruct(t.Name)
		out.line("    {")
		out.line("        uint32_t more;")
		out.linef("        rc = __unmarshall_uint32_t_%s(&more, cursor, dbuf);", variant)
		out.line("        if (unlikely(rc < 0)) return rc;")
		out.line("        len += rc;")
		out.linef("        out->%s = NULL;", name)
		out.linef("        struct %s *current = NULL, *last = NULL;", t.Name)
		out.line("        while (more) {")
		out.line("            current = xdr_dbuf_alloc_space(sizeof(*current), dbuf);")
		out.line("            if (unlikely(current == NULL)) return -1;")
		out.linef("            rc = __unmarshall_%s_%s(current, cursor, dbuf);", t.Name, variant)
		out.line("            if (unlikely(rc < 0)) return rc;")
		out.line("            len += rc;")
		out.line("            if (last) {")
		out.linef("                last->%s = current;", list.NextMember)
		out.line("            } else {")
		out.linef("                out->%s = current;", name)
		out.line("            }")
		out.line("            last = current;")
		out.linef("            last->%s = NULL;", list.NextMember)
		out.linef("            rc = __unmarshall_uint32_t_%s(&more, cursor, dbuf);", variant)
		out.line("            if (unlikely(rc < 0)) return rc;")
		out.line("            len += rc;")
		out.line("        }")
		out.line("        rc = 0;")
		out.line("    }")
	case t.Optional:
		out.line("    {")
		out.line("        uint32_t more;")
		out.linef("        rc = __unmarshall_uint32_t_%s(&more, cursor, dbuf);", variant)
		out.line("        if (unlikely(rc < 0)) return rc;")
		out.line("        len += rc;")
		out.line("        rc = 0;")
		out.line("        if (more) {")
		out.linef("            out->%s = xdr_dbuf_alloc_space(sizeof(*out->%s), dbuf);", name, name)
		out.linef("            if (unlikely(out->%s == NULL)) return -1;", name)
		out.linef("            rc = __unmarshall_%s_%s(out->%s, cursor, dbuf);", t.Name, variant, name)
		out.line("        } else {")
		out.linef("            out->%s = NULL;", name)
		out.line("        }")
		out.line("    }")
	case t.Vector:
		out.linef("    rc = __unmarshall_uint32_t_%s(&out->num_%s, cursor, dbuf);", variant, name)
		out.line("    if (unlikely(rc < 0)) return rc;")
		out.line("    len += rc;")
		out.linef("    out->%s = xdr_dbuf_alloc_space(out->num_%s * sizeof(*out->%s), dbuf);",
			name, name, name)
		out.linef("    if (unlikely(out->%s == NULL)) return -1;", name)
		out.linef("    for (int i = 0; i < out->num_%s; i++) {", name)
		out.linef("        rc = __unmarshall_%s_%s(&out->%s[i], cursor, dbuf);", t.Name, variant, name)
		out.line("        if (unlikely(rc < 0)) return rc;")
		out.line("        len += rc;")
		out.line("    }")
		out.line("    rc = 0;")
	case t.Array:
		out.linef("    for (int i = 0; i < %s; i++) {", t.ArraySize)
		out.linef("        rc = __unmarshall_%s_%s(&out->%s[i], cursor, dbuf);", t.Name, variant, name)
		out.line("        if (unlikely(rc < 0)) return rc;")
		out.line("        len += rc;")
		out.line("    }")
		out.line("    rc = 0;")
	default:
		out.linef("    rc = __unmarshall_%s_%s(&out->%s, cursor, dbuf);", t.Name, variant, name)
	}

	out.line("    if (unlikely(rc < 0)) return rc;")
	out.line("    len += rc;")
}

// emitLengthMember appends the exact encoded size of one member,
// padding included. Note that an optional member referencing the same
// struct recurses down the chain, which is precisely what makes the
// length of a linked list head cover the whole chain plus its
// terminating boolean.
func (g *generator) emitLengthMember(out *outputWriter, name string, t *Type) {
	switch {
	case t.Opaque && t.Array:
		out.linef("    length += %s + xdr_pad(%s);", t.ArraySize, t.ArraySize)
	case t.Opaque && t.Zerocopy:
		out.linef("    length += 4 + in->%s.length + xdr_pad(in->%s.length);", name, name)
	case t.Opaque:
		out.linef("    length += 4 + in->%s.len + xdr_pad(in->%s.len);", name, name)
	case t.Name == "xdr_string":
		out.linef("    length += 4 + in->%s.len + xdr_pad(in->%s.len);", name, name)
	case t.Vector:
		out.line("    length += 4;")
		out.linef("    for (int i = 0; i < in->num_%s; i++) {", name)
		out.linef("        length += __marshall_length_%s(&in->%s[i]);", t.Name, name)
		out.line("    }")
	case t.Optional:
		out.line("    length += 4;")
		out.linef("    if (in->%s) {", name)
		out.linef("        length += __marshall_length_%s(in->%s);", t.Name, name)
		out.line("    }")
	case t.Array:
		out.linef("    for (int i = 0; i < %s; i++) {", t.ArraySize)
		out.linef("        length += __marshall_length_%s(&in->%s[i]);", t.Name, name)
		out.line("    }")
	default:
		out.linef("    length += __marshall_length_%s(&in->%s);", t.Name, name)
	}
}

// emitDumpMember appends the structural dump step for one member.
// Integer builtins print hex; opaque payloads defer to dump_opaque,
// which prints a printable payload as ASCII at any length, and any
// other payload as hex below 32 bytes and as its length only from 32
// bytes up.
func (g *generator) emitDumpMember(out *outputWriter, name string, t *Type) {
	if t.Builtin {
		switch {
		case t.Opaque && t.Zerocopy:
			out.linef("    dump_output(\"%%s.%s = <opaque> [%%u bytes]\", subprefix, in->%s.length);",
				name, name)
		case t.Opaque && t.Array:
			out.line("    {")
			out.line("        char opaquestr[80];")
			out.linef("        dump_opaque(opaquestr, sizeof(opaquestr), in->%s, %s);",
				name, t.ArraySize)
			out.linef("        dump_output(\"%%s.%s = %%s [%%u bytes]\", subprefix, opaquestr, %s);",
				name, t.ArraySize)
			out.line("    }")
		case t.Opaque:
			out.line("    {")
			out.line("        char opaquestr[80];")
			out.linef("        dump_opaque(opaquestr, sizeof(opaquestr), in->%s.data, in->%s.len);",
				name, name)
			out.linef("        dump_output(\"%%s.%s = %%s [%%u bytes]\", subprefix, opaquestr, in->%s.len);",
				name, name)
			out.line("    }")
		case t.Name == "xdr_string":
			out.linef("    dump_output(\"%%s.%s = '%%.*s'\", subprefix, in->%s.len, in->%s.str);",
				name, name, name)
		case t.Name == "uint32_t" || t.Name == "int32_t":
			if t.Vector {
				out.linef("    dump_output(\"%%s.num_%s = %%u\", subprefix, in->num_%s);",
					name, name)
				out.linef("    for (int i = 0; i < in->num_%s; i++) {", name)
				out.line("        char subsubprefix[160];")
				out.linef("        snprintf(subsubprefix, sizeof(subsubprefix), \"%%s.%s[%%d]\", subprefix, i);",
					name)
				out.linef("        dump_output(\"%%s = %%08x\", subsubprefix, in->%s[i]);", name)
				out.line("    }")
			} else {
				out.linef("    dump_output(\"%%s.%s = %%08x\", subprefix, in->%s);", name, name)
			}
		case t.Name == "uint64_t" || t.Name == "int64_t":
			if t.Vector {
				out.linef("    dump_output(\"%%s.num_%s = %%u\", subprefix, in->num_%s);",
					name, name)
				out.linef("    for (int i = 0; i < in->num_%s; i++) {", name)
				out.line("        char subsubprefix[160];")
				out.linef("        snprintf(subsubprefix, sizeof(subsubprefix), \"%%s.%s[%%d]\", subprefix, i);",
					name)
				out.linef("        dump_output(\"%%s = %%016llx\", subsubprefix, (unsigned long long) in->%s[i]);",
					name)
				out.line("    }")
			} else {
				out.linef("    dump_output(\"%%s.%s = %%016llx\", subprefix, (unsigned long long) in->%s);",
					name, name)
			}
		case t.Name == "float" || t.Name == "double":
			if t.Vector {
				out.linef("    dump_output(\"%%s.num_%s = %%u\", subprefix, in->num_%s);",
					name, name)
				out.linef("    for (int i = 0; i < in->num_%s; i++) {", name)
				out.line("        char subsubprefix[160];")
				out.linef("        snprintf(subsubprefix, sizeof(subsubprefix), \"%%s.%s[%%d]\", subprefix, i);",
					name)
				out.linef("        dump_output(\"%%s = %%g\", subsubprefix, (double) in->%s[i]);", name)
				out.line("    }")
			} else {
				out.linef("    dump_output(\"%%s.%s = %%g\", subprefix, (double) in->%s);", name, name)
			}
		default:
			out.linef("    dump_output(\"%%s.%s = builtin\", subprefix);", name)
		}
		return
	}

	switch {
	case t.Enumeration:
		out.linef("    dump_output(\"%%s.%s = enum\", subprefix);", name)
	case t.Array:
		out.linef("    dump_output(\"%%s.%s = array\", subprefix);", name)
	case t.Vector:
		out.linef("    dump_output(\"%%s.num_%s = %%u\", subprefix, in->num_%s);", name, name)
		out.linef("    for (int i = 0; i < in->num_%s; i++) {", name)
		out.line("        char subsubprefix[160];")
		out.linef("        snprintf(subsubprefix, sizeof(subsubprefix), \"%%s.%s[%%d]\", subprefix, i);",
			name)
		out.linef("        _dump_%s(subsubprefix, \"%s\", &in->%s[i]);", t.Name, name, name)
		out.line("    }")
	case t.Optional:
		out.linef("    if (in->%s) {", name)
		out.linef("        _dump_%s(subprefix, \"%s\", in->%s);", t.Name, name, name)
		out.line("    } else {")
		out.linef("        dump_output(\"%%s.%s = NULL\", subprefix);", name)
		out.line("    }")
	default:
		out.linef("    _dump_%s(subprefix, \"%s\", &in->%s);", t.Name, name, name)
	}
}

func boundOrZero(t *Type) string {
	if t.VectorBound != "" {
		return t.VectorBound
	}
	return "0"
}

// skipMember reports whether a member is the linked-list next pointer,
// which the per-node codecs do not encode.
func skipMember(s *StructDef, m *StructMember) bool {
	return s.LinkedList && m.Name == s.NextMember
}

func (g *generator) emitStructRoutines(out *outputWriter, s *StructDef) {
	out.line(g.inlineQualifier(s.Name))
	out.linef("__marshall_%s(", s.Name)
	out.linef("    struct %s *in,", s.Name)
	out.line("    struct xdr_write_cursor *cursor) {")
	for _, m := range s.Members {
		if skipMember(s, m) {
			continue
		}
		g.emitMarshallMember(out, m.Name, m.Type)
	}
	out.line("    return 0;")
	out.line("}")
	out.blank()

	for _, variant := range []string{"vector", "contig"} {
		out.line(g.inlineQualifier(s.Name))
		out.linef("__unmarshall_%s_%s(", s.Name, variant)
		out.linef("    struct %s *out,", s.Name)
		out.line("    struct xdr_read_cursor *cursor,")
		out.line("    xdr_dbuf *dbuf) {")
		out.line("    int rc, len = 0;")
		for _, m := range s.Members {
			if skipMember(s, m) {
				continue
			}
			g.emitUnmarshallMember(out, m.Name, m.Type, variant)
		}
		out.line("    return len;")
		out.line("}")
		out.blank()
	}

	g.emitWrappers(out, s.Name, s)
	g.emitDumpStruct(out, s)
	g.emitLengthStruct(out, s)
}

// emitWrappers writes the public entry points: the marshall wrapper
// initializes a write cursor over the caller's scratch iovec, encodes
// (walking the chain for linked-list structs), flushes the scratch
// segment into the output list and surfaces the total byte count; the
// unmarshall wrapper dispatches on segment count.
func (g *generator) emitWrappers(out *outputWriter, name string, s *StructDef) {
	out.line("int WARN_UNUSED_RESULT")
	out.linef("marshall_%s(", name)
	out.linef("    struct %s *in,", name)
	out.line("    xdr_iovec *iov_in,")
	out.line("    xdr_iovec *iov_out,")
	out.line("    int *niov_out,")
	out.line("    struct evpl_rpc2_rdma_chunk *rdma_chunk,")
	out.line("    int out_offset) {")
	out.line("    struct xdr_write_cursor cursor;")
	out.line("    xdr_write_cursor_init(&cursor, iov_in, iov_out, *niov_out, rdma_chunk, out_offset);")

	if s != nil && s.LinkedList {
		out.line("    uint32_t more;")
		out.linef("    struct %s *current = in;", name)
		out.line("    while (current != NULL) {")
		out.line("        more = 1;")
		out.line("        if (unlikely(__marshall_uint32_t(&more, &cursor) < 0)) return -1;")
		out.linef("        if (unlikely(__marshall_%s(current, &cursor) < 0)) return -1;", name)
		out.linef("        current = current->%s;", s.NextMember)
		out.line("    }")
		out.line("    more = 0;")
		out.line("    if (unlikely(__marshall_uint32_t(&more, &cursor) < 0)) return -1;")
	} else {
		out.linef("    if (unlikely(__marshall_%s(in, &cursor) < 0)) return -1;", name)
	}

	out.line("    if (unlikely(xdr_write_cursor_flush(&cursor) < 0)) return -1;")
	out.line("    *niov_out = cursor.niov;")
	out.line("    return cursor.total;")
	out.line("}")
	out.blank()

	out.line("int WARN_UNUSED_RESULT")
	out.linef("unmarshall_%s(", name)
	out.linef("    struct %s *out,", name)
	out.line("    xdr_iovec *iov,")
	out.line("    int niov,")
	out.line("    struct evpl_rpc2_rdma_chunk *rdma_chunk,")
	out.line("    xdr_dbuf *dbuf) {")
	out.line("    struct xdr_read_cursor cursor;")
	out.line("    if (niov == 1) {")
	out.line("        xdr_read_cursor_contig_init(&cursor, iov, rdma_chunk);")
	out.linef("        return __unmarshall_%s_contig(out, &cursor, dbuf);", name)
	out.line("    } else {")
	out.line("        xdr_read_cursor_vector_init(&cursor, iov, niov, rdma_chunk);")
	out.linef("        return __unmarshall_%s_vector(out, &cursor, dbuf);", name)
	out.line("    }")
	out.line("}")
	out.blank()
}

func (g *generator) emitDumpStruct(out *outputWriter, s *StructDef) {
	out.linef("static void _dump_%s(const char *prefix, const char *name, const struct %s *in)",
		s.Name, s.Name)
	out.line("{")
	out.line("    char subprefix[80];")
	out.line("    snprintf(subprefix, sizeof(subprefix), \"%s%s%s\", prefix, prefix[0] ? \".\" : \"\", name);")
	for _, m := range s.Members {
		g.emitDumpMember(out, m.Name, m.Type)
	}
	out.line("}")
	out.blank()

	out.linef("void dump_%s(const char *name, const struct %s *in)", s.Name, s.Name)
	out.line("{")
	out.linef("    _dump_%s(\"\", \"%s\", in);", s.Name, s.Name)
	out.line("}")
	out.blank()
}

func (g *generator) emitLengthStruct(out *outputWriter, s *StructDef) {
	out.linef("%s __marshall_length_%s(const struct %s *in)",
		g.lengthQualifier(s.Name), s.Name, s.Name)
	out.line("{")
	out.line("    uint32_t length = 0;")
	for _, m := range s.Members {
		g.emitLengthMember(out, m.Name, m.Type)
	}
	out.line("    return length;")
	out.line("}")
	out.blank()

	out.linef("int marshall_length_%s(const struct %s *in)", s.Name, s.Name)
	out.line("{")
	if s.LinkedList {
		// The marshall wrapper writes a value-follows word before the
		// head as well; the per-node lengths only cover the words that
		// follow each node.
		out.linef("    return 4 + (in ? __marshall_length_%s(in) : 0);", s.Name)
	} else {
		out.linef("    return __marshall_length_%s(in);", s.Name)
	}
	out.line("}")
	out.blank()
}

// isVarlenOpaque reports a variable-length opaque case body, which
// already carries its own length prefix: an opaque union suppresses
// the separate body-length word for those arms.
func isVarlenOpaque(t *Type) bool {
	return t != nil && t.Opaque && !t.Array
}

// unionCases iterates the explicit arms first, the default arm last,
// invoking fn with the case and whether it is the default.
func unionCases(u *UnionDef, fn func(c *UnionCase, isDefault bool)) {
	for _, c := range u.Cases {
		if !c.isDefault() {
			fn(c, false)
		}
	}
	for _, c := range u.Cases {
		if c.isDefault() {
			fn(c, true)
		}
	}
}

func (g *generator) emitUnionRoutines(out *outputWriter, u *UnionDef) {
	g.emitUnionMarshall(out, u)
	g.emitUnionUnmarshall(out, u, "vector")
	g.emitUnionUnmarshall(out, u, "contig")
	g.emitWrappers(out, u.Name, nil)
	g.emitDumpUnion(out, u)
	g.emitLengthUnion(out, u)
}

func (g *generator) emitUnionMarshall(out *outputWriter, u *UnionDef) {
	out.line(g.inlineQualifier(u.Name))
	out.linef("__marshall_%s(", u.Name)
	out.linef("    struct %s *in,", u.Name)
	out.line("    struct xdr_write_cursor *cursor) {")

	g.emitMarshallMember(out, u.PivotName, u.PivotType)

	if u.Opaque {
		// The body-length word precedes the body, except when the body
		// is a variable opaque whose own length prefix frames it.
		out.line("    {")
		out.line("        uint32_t body_len = 0;")
		out.line("        int skip_body_len = 0;")
		out.linef("        switch (in->%s) {", u.PivotName)
		unionCases(u, func(c *UnionCase, isDefault bool) {
			if isDefault {
				out.line("        default:")
			} else {
				out.linef("        case %s:", c.Label)
			}
			switch {
			case c.Voided:
				out.line("            body_len = 0;")
			case isVarlenOpaque(c.Type):
				out.line("            skip_body_len = 1;")
			case c.Type.Opaque:
				out.linef("            body_len = %s + xdr_pad(%s);",
					c.Type.ArraySize, c.Type.ArraySize)
			default:
				out.linef("            body_len = __marshall_length_%s(&in->%s);",
					c.Type.Name, c.Name)
			}
			out.line("            break;")
		})
		out.line("        }")
		out.line("        if (!skip_body_len) {")
		out.line("            if (unlikely(__marshall_uint32_t(&body_len, cursor) < 0)) return -1;")
		out.line("        }")
		out.line("    }")
	}

	out.linef("    switch (in->%s) {", u.PivotName)
	unionCases(u, func(c *UnionCase, isDefault bool) {
		if isDefault {
			out.line("    default:")
		} else {
			out.linef("    case %s:", c.Label)
		}
		if !c.Voided && c.Type != nil {
			g.emitMarshallMember(out, c.Name, c.Type)
		}
		out.line("        break;")
	})
	out.line("    }")
	out.line("    return 0;")
	out.line("}")
	out.blank()
}

func (g *generator) emitUnionUnmarshall(out *outputWriter, u *UnionDef, variant string) {
	out.line(g.inlineQualifier(u.Name))
	out.linef("__unmarshall_%s_%s(", u.Name, variant)
	out.linef("    struct %s *out,", u.Name)
	out.line("    struct xdr_read_cursor *cursor,")
	out.line("    xdr_dbuf *dbuf) {")
	out.line("    int rc, len = 0;")

	if u.Opaque {
		out.line("    uint32_t expected_body_len = 0;")
		out.line("    int body_start_len = 0;")
		out.line("    int skip_body_len_check = 0;")
	}

	g.emitUnmarshallMember(out, u.PivotName, u.PivotType, variant)

	if u.Opaque {
		out.linef("    switch (out->%s) {", u.PivotName)
		unionCases(u, func(c *UnionCase, isDefault bool) {
			if !isVarlenOpaque(c.Type) {
				return
			}
			if isDefault {
				out.line("    default:")
			} else {
				out.linef("    case %s:", c.Label)
			}
			out.line("        skip_body_len_check = 1;")
			out.line("        break;")
		})
		if !unionHasVarlenOpaqueDefault(u) {
			out.line("    default:")
			out.line("        break;")
		}
		out.line("    }")
		out.line("    if (!skip_body_len_check) {")
		out.linef("        rc = __unmarshall_uint32_t_%s(&expected_body_len, cursor, dbuf);", variant)
		out.line("        if (unlikely(rc < 0)) return rc;")
		out.line("        len += rc;")
		out.line("        body_start_len = len;")
		out.line("    }")
	}

	out.linef("    switch (out->%s) {", u.PivotName)
	unionCases(u, func(c *UnionCase, isDefault bool) {
		if isDefault {
			out.line("    default:")
		} else {
			out.linef("    case %s:", c.Label)
		}
		if !c.Voided && c.Type != nil {
			g.emitUnmarshallMember(out, c.Name, c.Type, variant)
		}
		out.line("        break;")
	})
	out.line("    }")

	if u.Opaque {
		out.line("    if (!skip_body_len_check && unlikely((uint32_t)(len - body_start_len) != expected_body_len)) return -1;")
	}

	out.line("    return len;")
	out.line("}")
	out.blank()
}

func unionHasVarlenOpaqueDefault(u *UnionDef) bool {
	for _, c := range u.Cases {
		if c.isDefault() && isVarlenOpaque(c.Type) {
			return true
		}
	}
	return false
}

func (g *generator) emitDumpUnion(out *outputWriter, u *UnionDef) {
	out.linef("static void _dump_%s(const char *prefix, const char *name, const struct %s *in)",
		u.Name, u.Name)
	out.line("{")
	out.line("    char subprefix[80];")
	out.line("    snprintf(subprefix, sizeof(subprefix), \"%s%s%s\", prefix, prefix[0] ? \".\" : \"\", name);")
	g.emitDumpMember(out, u.PivotName, u.PivotType)
	out.linef("    switch (in->%s) {", u.PivotName)
	unionCases(u, func(c *UnionCase, isDefault bool) {
		if isDefault {
			out.line("    default:")
		} else {
			out.linef("    case %s:", c.Label)
		}
		if !isDefault && c.Type != nil {
			g.emitDumpMember(out, c.Name, c.Type)
		}
		out.line("        break;")
	})
	out.line("    }")
	out.line("}")
	out.blank()

	out.linef("void dump_%s(const char *name, const struct %s *in)", u.Name, u.Name)
	out.line("{")
	out.linef("    _dump_%s(\"\", \"%s\", in);", u.Name, u.Name)
	out.line("}")
	out.blank()
}

func (g *generator) emitLengthUnion(out *outputWriter, u *UnionDef) {
	out.linef("%s __marshall_length_%s(const struct %s *in)",
		g.lengthQualifier(u.Name), u.Name, u.Name)
	out.line("{")
	out.line("    uint32_t length = 0;")
	g.emitLengthMember(out, u.PivotName, u.PivotType)
	out.linef("    switch (in->%s) {", u.PivotName)
	unionCases(u, func(c *UnionCase, isDefault bool) {
		if isDefault {
			out.line("    default:")
		} else {
			out.linef("    case %s:", c.Label)
		}
		if u.Opaque && !isVarlenOpaque(c.Type) {
			out.line("        length += 4;")
		}
		if !c.Voided && c.Type != nil {
			g.emitLengthMember(out, c.Name, c.Type)
		}
		out.line("        break;")
	})
	out.line("    }")
	out.line("    return length;")
	out.line("}")
	out.blank()

	out.linef("int marshall_length_%s(const struct %s *in)", u.Name, u.Name)
	out.line("{")
	out.linef("    return __marshall_length_%s(in);", u.Name)
	out.line("}")
	out.blank()
}
