package xdrzcc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const programSrc = `
	struct args3 { uint32_t x; };
	struct res3 { uint32_t y; };
	program TEST_PROG {
		version test_v1 {
			void PROC_NULL(void) = 0;
			res3 PROC_GET(args3) = 1;
			uint32_t PROC_PING(uint32_t) = 2;
		} = 1;
	} = 100;
`

func TestProgramProcTable(t *testing.T) {
	source, _ := generate(t, programSrc, Options{EmitRPC2: true})

	assert.Contains(t, source, "const static char *TEST_PROG_test_v1_procs[] = {")
	assert.Contains(t, source, "[0] = \"PROC_NULL\",")
	assert.Contains(t, source, "[1] = \"PROC_GET\",")
	assert.Contains(t, source, "[2] = \"PROC_PING\",")
}

func TestProgramBuiltinWrappers(t *testing.T) {
	source, _ := generate(t, programSrc, Options{EmitRPC2: true})

	// uint32_t appears as both call and reply type; its wrappers are
	// synthesized exactly once.
	assert.Contains(t, source, "static int unmarshall_uint32_t(")
	assert.Contains(t, source, "static int marshall_uint32_t(")
	assert.Equal(t, 1, countOccurrences(source, "static int unmarshall_uint32_t("))
}

func TestProgramCallDispatch(t *testing.T) {
	source, _ := generate(t, programSrc, Options{EmitRPC2: true})

	assert.Contains(t, source, "call_dispatch_test_v1(")
	assert.Contains(t, source, "struct test_v1 *prog = program_data;")

	// Void argument: the callback takes no argument parameter.
	assert.Contains(t, source, "prog->recv_call_PROC_NULL(evpl, conn, cred, encoding, private_data);")

	// Compound argument: allocated from the per-message arena and
	// passed by reference.
	assert.Contains(t, source, "PROC_GET_arg = xdr_dbuf_alloc_space(sizeof(*PROC_GET_arg), encoding->dbuf);")
	assert.Contains(t, source, "prog->recv_call_PROC_GET(evpl, conn, cred, PROC_GET_arg, encoding, private_data);")

	// Builtin scalar argument: passed by value.
	assert.Contains(t, source, "prog->recv_call_PROC_PING(evpl, conn, cred, *PROC_PING_arg, encoding, private_data);")

	// Decoded length must match the inbound message length.
	assert.Contains(t, source, "if (unlikely(len != length)) return 2;")
}

func TestProgramReplyDispatch(t *testing.T) {
	source, _ := generate(t, programSrc, Options{EmitRPC2: true})

	assert.Contains(t, source, "reply_dispatch_test_v1(")
	assert.Contains(t, source, "callback_PROC_GET(evpl, verf, PROC_GET_arg, 0, callback_private_data);")
	assert.Contains(t, source, "callback_PROC_PING(evpl, verf, *PROC_PING_arg, 0, callback_private_data);")
	assert.Contains(t, source, "callback_PROC_NULL(evpl, verf, 0, callback_private_data);")
}

func TestProgramSendHelpers(t *testing.T) {
	source, _ := generate(t, programSrc, Options{EmitRPC2: true})

	assert.Contains(t, source, "static int send_reply_PROC_GET(struct evpl *evpl, const struct evpl_rpc2_verf *verf, struct res3 *arg, struct evpl_rpc2_encoding *encoding)")
	assert.Contains(t, source, "static int send_reply_PROC_PING(struct evpl *evpl, const struct evpl_rpc2_verf *verf, uint32_t arg, struct evpl_rpc2_encoding *encoding)")
	assert.Contains(t, source, "send_call_PROC_GET(")
	assert.Contains(t, source, "len = marshall_args3(args, &iov, msg_iov, &msg_niov, &rdma_chunk, program->reserve);")
	assert.Contains(t, source, "len = marshall_uint32_t(&args, &iov, msg_iov, &msg_niov, &rdma_chunk, program->reserve);")
}

func TestProgramInit(t *testing.T) {
	source, _ := generate(t, programSrc, Options{EmitRPC2: true})

	assert.Contains(t, source, "void test_v1_init(struct test_v1 *prog)")
	assert.Contains(t, source, "prog->rpc2.program = 100;")
	assert.Contains(t, source, "prog->rpc2.version = 1;")
	assert.Contains(t, source, "prog->rpc2.maxproc = 2;")
	assert.Contains(t, source, "prog->rpc2.procs = TEST_PROG_test_v1_procs;")
	assert.Contains(t, source, "prog->rpc2.recv_call_dispatch = call_dispatch_test_v1;")
	assert.Contains(t, source, "prog->send_call_PROC_GET = send_call_PROC_GET;")
	assert.Contains(t, source, "prog->send_reply_PROC_NULL = send_reply_PROC_NULL;")
}

func TestProgramHeaderByvalueBuiltinReply(t *testing.T) {
	_, header := generate(t, programSrc, Options{EmitRPC2: true})

	// A by-value builtin reply travels as "uint32_t reply", never glued
	// to the parameter name; compounds go by reference.
	assert.Contains(t, header, "void (*recv_reply_PROC_PING)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, uint32_t reply, int status, void *callback_private_data);")
	assert.Contains(t, header, "void (*recv_reply_PROC_GET)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, struct res3 *reply, int status, void *callback_private_data);")
	assert.NotContains(t, header, "uint32_treply")

	// The send_call callback carries the same reply convention.
	assert.Contains(t, header, "void (*callback)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, uint32_t reply, int status, void *callback_private_data)")
	assert.Contains(t, header, "int WARN_UNUSED_RESULT (*send_reply_PROC_PING)(struct evpl *evpl, const struct evpl_rpc2_verf *verf, uint32_t, struct evpl_rpc2_encoding *);")
}

func TestProgramSuppressedWithoutFlag(t *testing.T) {
	source, _ := generate(t, programSrc, Options{})

	assert.NotContains(t, source, "call_dispatch_test_v1")
	assert.NotContains(t, source, "test_v1_init")
}

func countOccurrences(s, sub string) int {
	return strings.Count(s, sub)
}
