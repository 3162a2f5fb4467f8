package xdrzcc

import "strconv"

// RPC program scaffolding: per program/version, a procedure-name
// table, call/reply dispatch routines, per-procedure send helpers, and
// the descriptor-table init routine, all against the evpl_rpc2
// transport surface. Builtin scalar arguments travel by value,
// compound ones by reference, void ones not at all.

// formatParamType renders a call/reply type for a parameter position.
func formatParamType(t *Type) string {
	if t.Builtin {
		return t.Name
	}
	return "struct " + t.Name
}

// isByvalueBuiltin reports builtins passed to callbacks by value.
func isByvalueBuiltin(t *Type) bool {
	if !t.Builtin {
		return false
	}
	switch t.Name {
	case "void", "xdr_string", "xdr_iovec":
		return false
	}
	return true
}

func isVoid(t *Type) bool {
	return t.Name == "void"
}

func (g *generator) emitProgramHeader(out *outputWriter, p *ProgramDef, v *VersionDef) {
	out.line("#include \"evpl/evpl_rpc2_program.h\"")
	out.linef("struct %s {", v.Name)
	out.line("    struct evpl_rpc2_program rpc2;")

	for _, fn := range v.Functions {
		callType := formatParamType(fn.CallType)
		replyType := formatParamType(fn.ReplyType)

		// send_call_<proc>
		args := ""
		if !isVoid(fn.CallType) {
			if isByvalueBuiltin(fn.CallType) {
				args = callType + ", "
			} else {
				args = callType + " *, "
			}
		}
		callback := "void (*callback)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, int status, void *callback_private_data)"
		if !isVoid(fn.ReplyType) {
			if isByvalueBuiltin(fn.ReplyType) {
				callback = "void (*callback)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, " +
					replyType + " reply, int status, void *callback_private_data)"
			} else {
				callback = "void (*callback)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, " +
					replyType + " *reply, int status, void *callback_private_data)"
			}
		}
		out.linef("   void (*send_call_%s)(struct evpl_rpc2_program *program, struct evpl *evpl, struct evpl_rpc2_conn *conn, const struct evpl_rpc2_cred *cred, %sint ddp, int max_rdma_write_chunk, int max_rdma_reply_chunk, %s, void *callback_private_data);",
			fn.Name, args, callback)

		// send_reply_<proc>
		if !isVoid(fn.ReplyType) {
			ref := " *"
			if isByvalueBuiltin(fn.ReplyType) {
				ref = ""
			}
			out.linef("   int WARN_UNUSED_RESULT (*send_reply_%s)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, %s%s, struct evpl_rpc2_encoding *);",
				fn.Name, replyType, ref)
		} else {
			out.linef("   int WARN_UNUSED_RESULT (*send_reply_%s)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, struct evpl_rpc2_encoding *);",
				fn.Name)
		}

		// recv_call_<proc>
		if !isVoid(fn.CallType) {
			ref := " *"
			if isByvalueBuiltin(fn.CallType) {
				ref = ""
			}
			out.linef("   void (*recv_call_%s)(struct evpl *evpl, struct evpl_rpc2_conn *conn, struct evpl_rpc2_cred *cred, %s%s, struct evpl_rpc2_encoding *, void *);",
				fn.Name, callType, ref)
		} else {
			out.linef("   void (*recv_call_%s)(struct evpl *evpl, struct evpl_rpc2_conn *conn, struct evpl_rpc2_cred *cred, struct evpl_rpc2_encoding *, void *);",
				fn.Name)
		}

		// recv_reply_<proc>
		if !isVoid(fn.ReplyType) {
			ref := " *"
			if isByvalueBuiltin(fn.ReplyType) {
				ref = " "
			}
			out.linef("    void (*recv_reply_%s)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, %s%sreply, int status, void *callback_private_data);",
				fn.Name, replyType, ref)
		} else {
			out.linef("    void (*recv_reply_%s)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, int status, void *callback_private_data);",
				fn.Name)
		}
	}

	out.line("};")
	out.blank()
	out.linef("void %s_init(struct %s *);", v.Name, v.Name)
	out.blank()
}

func (g *generator) emitProgram(out *outputWriter, p *ProgramDef, v *VersionDef) {
	out.line("#include <evpl/evpl.h>")
	out.line("#include \"evpl/evpl_rpc2_program.h\"")

	maxproc := 0
	out.linef("const static char *%s_%s_procs[] = {", p.Name, v.Name)
	for _, fn := range v.Functions {
		out.linef("    [%s] = \"%s\",", fn.ID, fn.Name)
		if id, err := strconv.Atoi(fn.ID); err == nil && id > maxproc {
			maxproc = id
		}
	}
	out.line("};")
	out.blank()

	g.emitBuiltinWrappers(out, v)
	g.emitCallDispatch(out, v)
	g.emitReplyDispatch(out, v)

	for _, fn := range v.Functions {
		g.emitSendReply(out, fn)
		g.emitSendCall(out, fn)
	}

	g.emitProgramInit(out, p, v, maxproc)
}

// emitBuiltinWrappers synthesizes marshall/unmarshall wrappers for
// builtin call and reply types, which have no generated aggregate
// wrappers of their own. Each builtin is emitted once.
func (g *generator) emitBuiltinWrappers(out *outputWriter, v *VersionDef) {
	seen := map[string]bool{}

	for _, fn := range v.Functions {
		for _, t := range []*Type{fn.CallType, fn.ReplyType} {
			if !t.Builtin || t.Name == "void" || t.Name == "xdr_iovec" {
				continue
			}
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true

			out.linef("static int unmarshall_%s(", t.Name)
			out.linef("    %s *out,", t.Name)
			out.line("    xdr_iovec *iov,")
			out.line("    int niov,")
			out.line("    struct evpl_rpc2_rdma_chunk *rdma_chunk,")
			out.line("    xdr_dbuf *dbuf)")
			out.line("{")
			out.line("    struct xdr_read_cursor cursor;")
			out.line("    if (niov == 1) {")
			out.line("        xdr_read_cursor_contig_init(&cursor, iov, rdma_chunk);")
			out.linef("        return __unmarshall_%s_contig(out, &cursor, dbuf);", t.Name)
			out.line("    } else {")
			out.line("        xdr_read_cursor_vector_init(&cursor, iov, niov, rdma_chunk);")
			out.linef("        return __unmarshall_%s_vector(out, &cursor, dbuf);", t.Name)
			out.line("    }")
			out.line("}")
			out.blank()

			out.linef("static int marshall_%s(", t.Name)
			out.linef("    const %s *in,", t.Name)
			out.line("    xdr_iovec *iov_in,")
			out.line("    xdr_iovec *iov_out,")
			out.line("    int *niov_out,")
			out.line("    struct evpl_rpc2_rdma_chunk *rdma_chunk,")
			out.line("    int out_offset)")
			out.line("{")
			out.line("    struct xdr_write_cursor cursor;")
			out.line("    xdr_write_cursor_init(&cursor, iov_in, iov_out, *niov_out, rdma_chunk, out_offset);")
			out.linef("    if (unlikely(__marshall_%s(in, &cursor) < 0)) return -1;", t.Name)
			out.line("    if (unlikely(xdr_write_cursor_flush(&cursor) < 0)) return -1;")
			out.line("    *niov_out = cursor.niov;")
			out.line("    return cursor.total;")
			out.line("}")
			out.blank()
		}
	}
}

// emitCallDispatch routes an inbound call to the program-owned receive
// callback, first allocating the argument structure from the
// per-message arena and unmarshalling the message into it.
func (g *generator) emitCallDispatch(out *outputWriter, v *VersionDef) {
	out.line("static int")
	out.linef("call_dispatch_%s(", v.Name)
	out.line("    struct evpl *evpl,")
	out.line("    struct evpl_rpc2_conn *conn,")
	out.line("    struct evpl_rpc2_encoding *encoding,")
	out.line("    uint32_t proc,")
	out.line("    void *program_data,")
	out.line("    struct evpl_rpc2_cred *cred,")
	out.line("    xdr_iovec *iov,")
	out.line("    int niov,")
	out.line("    int length,")
	out.line("    void *private_data)")
	out.line("{")
	out.linef("    struct %s *prog = program_data;", v.Name)
	out.line("    int len;")
	out.line("    switch (proc) {")

	for _, fn := range v.Functions {
		callType := formatParamType(fn.CallType)

		out.linef("    case %s:", fn.ID)
		out.linef("        if (prog->recv_call_%s == NULL) {", fn.Name)
		out.line("            return 1;")
		out.line("        }")

		if !isVoid(fn.CallType) {
			out.linef("        %s *%s_arg;", callType, fn.Name)
			out.linef("        %s_arg = xdr_dbuf_alloc_space(sizeof(*%s_arg), encoding->dbuf);",
				fn.Name, fn.Name)
			out.linef("        if (unlikely(%s_arg == NULL)) return 1;", fn.Name)
			out.linef("        len = unmarshall_%s(%s_arg, iov, niov, encoding->read_chunk, encoding->dbuf);",
				fn.CallType.Name, fn.Name)
			out.line("        if (unlikely(len != length)) return 2;")
			out.line("        if (len < 0) return 2;")
			if isByvalueBuiltin(fn.CallType) {
				out.linef("        prog->recv_call_%s(evpl, conn, cred, *%s_arg, encoding, private_data);",
					fn.Name, fn.Name)
			} else {
				out.linef("        prog->recv_call_%s(evpl, conn, cred, %s_arg, encoding, private_data);",
					fn.Name, fn.Name)
			}
		} else {
			out.linef("        prog->recv_call_%s(evpl, conn, cred, encoding, private_data);",
				fn.Name)
		}
		out.line("        break;")
		out.blank()
	}

	out.line("    default:")
	out.line("        return 1;")
	out.line("    }")
	out.line("    return 0;")
	out.line("}")
	out.blank()
}

// emitReplyDispatch is the symmetric client side: decode the reply and
// invoke the caller's callback.
func (g *generator) emitReplyDispatch(out *outputWriter, v *VersionDef) {
	out.line("static int")
	out.linef("reply_dispatch_%s(", v.Name)
	out.line("    struct evpl *evpl,")
	out.line("    struct evpl_rpc2_conn *conn,")
	out.line("    xdr_dbuf *dbuf,")
	out.line("    uint32_t proc,")
	out.line("    struct evpl_rpc2_rdma_chunk *read_chunk,")
	out.line("    const struct evpl_rpc2_verf *verf,")
	out.line("    xdr_iovec *iov,")
	out.line("    int niov,")
	out.line("    int length,")
	out.line("    void *callback_fn,")
	out.line("    void *callback_private_data)")
	out.line("{")
	out.line("    int len;")
	out.line("    switch (proc) {")

	for _, fn := range v.Functions {
		replyType := formatParamType(fn.ReplyType)

		out.linef("    case %s:", fn.ID)

		if !isVoid(fn.ReplyType) {
			out.line("        {")
			out.linef("        %s *%s_arg;", replyType, fn.Name)
			if fn.ReplyType.Array {
				out.linef("        %s_arg = xdr_dbuf_alloc_space(sizeof(*%s_arg) * %s, dbuf);",
					fn.Name, fn.Name, fn.ReplyType.ArraySize)
			} else {
				out.linef("        %s_arg = xdr_dbuf_alloc_space(sizeof(*%s_arg), dbuf);",
					fn.Name, fn.Name)
			}
			out.linef("        if (unlikely(%s_arg == NULL)) return 1;", fn.Name)
			if fn.ReplyType.Array {
				out.line("        len = 0;")
				out.line("        {")
				out.line("            struct xdr_read_cursor cursor;")
				out.line("            if (niov == 1) {")
				out.line("                xdr_read_cursor_contig_init(&cursor, iov, read_chunk);")
				out.linef("                for (int _i = 0; _i < %s; _i++) {", fn.ReplyType.ArraySize)
				out.linef("                    int _rc = __unmarshall_%s_contig(&%s_arg[_i], &cursor, dbuf);",
					fn.ReplyType.Name, fn.Name)
				out.line("                    if (unlikely(_rc < 0)) return 2;")
				out.line("                    len += _rc;")
				out.line("                }")
				out.line("            } else {")
				out.line("                xdr_read_cursor_vector_init(&cursor, iov, niov, read_chunk);")
				out.linef("                for (int _i = 0; _i < %s; _i++) {", fn.ReplyType.ArraySize)
				out.linef("                    int _rc = __unmarshall_%s_vector(&%s_arg[_i], &cursor, dbuf);",
					fn.ReplyType.Name, fn.Name)
				out.line("                    if (unlikely(_rc < 0)) return 2;")
				out.line("                    len += _rc;")
				out.line("                }")
				out.line("            }")
				out.line("        }")
			} else {
				out.linef("        len = unmarshall_%s(%s_arg, iov, niov, read_chunk, dbuf);",
					fn.ReplyType.Name, fn.Name)
			}
			out.line("        if (unlikely(len != length)) return 2;")
			out.line("        if (len < 0) return 2;")
			if isByvalueBuiltin(fn.ReplyType) {
				out.linef(" void (*callback_%s)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, %s reply, int status, void *callback_private_data) = callback_fn;",
					fn.Name, replyType)
				out.linef("        callback_%s(evpl, verf, *%s_arg, 0, callback_private_data);",
					fn.Name, fn.Name)
			} else {
				out.linef(" void (*callback_%s)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, %s *reply, int status, void *callback_private_data) = callback_fn;",
					fn.Name, replyType)
				out.linef("        callback_%s(evpl, verf, %s_arg, 0, callback_private_data);",
					fn.Name, fn.Name)
			}
			out.line("        }")
		} else {
			out.linef(" void (*callback_%s)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, int status, void *callback_private_data) = callback_fn;",
				fn.Name)
			out.linef("        callback_%s(evpl, verf, 0, callback_private_data);", fn.Name)
		}
		out.line("        break;")
		out.blank()
	}

	out.line("    default:")
	out.line("        return 2;")
	out.line("    }")
	out.line("    return 0;")
	out.line("}")
	out.blank()
}

func (g *generator) emitSendReply(out *outputWriter, fn *FunctionDef) {
	replyType := formatParamType(fn.ReplyType)

	if !isVoid(fn.ReplyType) {
		if isByvalueBuiltin(fn.ReplyType) {
			out.linef("static int send_reply_%s(struct evpl *evpl, const struct evpl_rpc2_verf *verf, %s arg, struct evpl_rpc2_encoding *encoding)",
				fn.Name, replyType)
		} else {
			out.linef("static int send_reply_%s(struct evpl *evpl, const struct evpl_rpc2_verf *verf, %s *arg, struct evpl_rpc2_encoding *encoding)",
				fn.Name, replyType)
		}
		out.line("{")
		out.line("    uint32_t reserve = encoding->program->reserve;")
		out.line("    struct evpl_rpc2_rdma_chunk *write_chunk = encoding->write_chunk;")
		out.line("    struct evpl_iovec iov, *msg_iov;")
		out.line("    int niov, msg_niov = 260, len;")
		out.line("    msg_iov = xdr_dbuf_alloc_space(sizeof(*msg_iov) * 260, encoding->dbuf);")
		out.line("    if (unlikely(msg_iov == NULL)) return 1;")
		out.line("    niov = evpl_iovec_reserve(evpl, 128*1024, 8, 1, &iov);")
		out.line("    if (unlikely(niov != 1)) return 1;")
		if fn.ReplyType.Array {
			out.line("    {")
			out.line("        struct xdr_write_cursor cursor;")
			out.line("        xdr_write_cursor_init(&cursor, &iov, msg_iov, msg_niov, write_chunk, reserve);")
			out.linef("        for (int _i = 0; _i < %s; _i++) {", fn.ReplyType.ArraySize)
			out.linef("            if (unlikely(__marshall_%s(&arg[_i], &cursor) < 0)) return -1;",
				fn.ReplyType.Name)
			out.line("        }")
			out.line("        if (unlikely(xdr_write_cursor_flush(&cursor) < 0)) return -1;")
			out.line("        msg_niov = cursor.niov;")
			out.line("        len = cursor.total;")
			out.line("    }")
		} else if isByvalueBuiltin(fn.ReplyType) {
			out.linef("    len = marshall_%s(&arg, &iov, msg_iov, &msg_niov, write_chunk, reserve);",
				fn.ReplyType.Name)
		} else {
			out.linef("    len = marshall_%s(arg, &iov, msg_iov, &msg_niov, write_chunk, reserve);",
				fn.ReplyType.Name)
		}
		out.line("    if (unlikely(len < 0)) return 2;")
		out.line("    xdr_iovec_set_len(&iov, len + reserve);")
		out.line("    evpl_iovec_commit(evpl, 0, &iov, 1);")
		out.line("    evpl_iovec_release(evpl, &iov);")
		out.line("    evpl_rpc2_send_reply_dispatch(evpl, encoding, verf, msg_iov, msg_niov, len);")
	} else {
		out.linef("static int send_reply_%s(struct evpl *evpl, const struct evpl_rpc2_verf *verf, struct evpl_rpc2_encoding *encoding)",
			fn.Name)
		out.line("{")
		out.line("    uint32_t reserve = encoding->program->reserve;")
		out.line("    struct evpl_iovec iov;")
		out.line("    int niov;")
		out.line("    niov = evpl_iovec_alloc(evpl, reserve, 8, 1, 0, &iov);")
		out.line("    evpl_rpc2_send_reply_dispatch(evpl, encoding, verf, &iov, niov, reserve);")
	}
	out.line("    return 0;")
	out.line("}")
	out.blank()
}

func (g *generator) emitSendCall(out *outputWriter, fn *FunctionDef) {
	callType := formatParamType(fn.CallType)
	replyType := formatParamType(fn.ReplyType)
	hasArgs := !isVoid(fn.CallType)
	hasReply := !isVoid(fn.ReplyType)

	out.line("static void")
	out.linef("send_call_%s(", fn.Name)
	out.line("    struct evpl_rpc2_program *program,")
	out.line("    struct evpl *evpl,")
	out.line("    struct evpl_rpc2_conn *conn,")
	out.line("    const struct evpl_rpc2_cred *cred,")

	if hasArgs {
		if isByvalueBuiltin(fn.CallType) {
			out.linef("    %s args,", callType)
		} else {
			out.linef("    %s *args,", callType)
		}
	}

	out.line("    int ddp,")
	out.line("    int max_rdma_write_chunk,")
	out.line("    int max_rdma_reply_chunk,")

	if hasReply {
		ref := " *"
		if isByvalueBuiltin(fn.ReplyType) {
			ref = " "
		}
		out.linef("    void (*callback)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, %s%sreply, int status, void *callback_private_data),",
			replyType, ref)
	} else {
		out.line("    void (*callback)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, int status, void *callback_private_data),")
	}

	out.line("    void *callback_private_data)")
	out.line("{")
	out.line("    struct evpl_iovec iov, *msg_iov;")
	out.line("    int msg_niov = 260, len;")

	if hasArgs {
		out.line("    xdr_dbuf *dbuf = (xdr_dbuf *) evpl_rpc2_thread_get_client_dbuf(conn->thread);")
		out.line("    struct evpl_rpc2_rdma_chunk rdma_chunk;")
		out.line("    rdma_chunk.length = 0;")
		out.line("    rdma_chunk.max_length = conn->rdma && ddp ? UINT32_MAX : 0;")
		out.line("    rdma_chunk.niov = 0;")
		out.line("    xdr_dbuf_reset(dbuf);")
		out.line("    msg_iov = xdr_dbuf_alloc_space(sizeof(*msg_iov) * 260, dbuf);")
		out.line("    if (unlikely(msg_iov == NULL)) {")
		out.line("        xdr_dbuf_free(dbuf);")
		out.line("        return;")
		out.line("    }")
		out.line("    evpl_iovec_reserve(evpl, 128*1024, 8, 1, &iov);")
		out.blank()
		if isByvalueBuiltin(fn.CallType) {
			out.linef("    len = marshall_%s(&args, &iov, msg_iov, &msg_niov, &rdma_chunk, program->reserve);",
				fn.CallType.Name)
		} else {
			out.linef("    len = marshall_%s(args, &iov, msg_iov, &msg_niov, &rdma_chunk, program->reserve);",
				fn.CallType.Name)
		}
		out.line("    if (unlikely(len < 0)) {")
		out.line("        xdr_dbuf_free(dbuf);")
		out.line("        return;")
		out.line("    }")
		out.blank()
		out.line("    xdr_iovec_set_len(&iov, len);")
		out.line("    evpl_iovec_commit(evpl, 0, &iov, 1);")
		out.line("    evpl_iovec_release(evpl, &iov);")
		out.linef("    evpl_rpc2_call(evpl, program, conn, cred, %s, msg_iov, msg_niov, len, conn->rdma && ddp ? &rdma_chunk : NULL, max_rdma_write_chunk, max_rdma_reply_chunk, callback, callback_private_data);",
			fn.ID)
	} else {
		out.line("    int niov;")
		out.line("    niov = evpl_iovec_alloc(evpl, program->reserve, 8, 1, 0, &iov);")
		out.linef("    evpl_rpc2_call(evpl, program, conn, cred, %s, &iov, niov, program->reserve, NULL, max_rdma_write_chunk, max_rdma_reply_chunk, callback, callback_private_data);",
			fn.ID)
	}

	out.line("}")
	out.blank()
}

func (g *generator) emitProgramInit(out *outputWriter, p *ProgramDef, v *VersionDef, maxproc int) {
	out.linef("void %s_init(struct %s *prog)", v.Name, v.Name)
	out.line("{")
	out.line("    memset(prog, 0, sizeof(*prog));")
	out.linef("    prog->rpc2.program = %s;", p.ID)
	out.linef("    prog->rpc2.version = %s;", v.ID)
	out.linef("    prog->rpc2.maxproc = %d;", maxproc)
	out.line("    prog->rpc2.reserve = 256;")
	out.linef("    prog->rpc2.procs = %s_%s_procs;", p.Name, v.Name)
	out.line("    prog->rpc2.program_data = prog;")
	out.linef("    prog->rpc2.recv_call_dispatch = call_dispatch_%s;", v.Name)
	out.linef("    prog->rpc2.recv_reply_dispatch = reply_dispatch_%s;", v.Name)

	for _, fn := range v.Functions {
		out.linef("    prog->send_call_%s = send_call_%s;", fn.Name, fn.Name)
		out.linef("    prog->send_reply_%s = send_reply_%s;", fn.Name, fn.Name)
	}

	out.line("}")
	out.blank()
}
