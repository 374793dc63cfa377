package benchmark

import "bytes"

const (
	kvMaxEvents     = 10
	kvPollTimeoutMs = 10
	kvMaxBufferLen  = 1024
)

var (
	kvReplyOK      = []byte("+OK\r\n")
	kvReplyGet     = []byte("$2\r\nHI\r\n")
	kvReplyUnknown = []byte("-ERR unknown command\r\n")
)

// KVServerTarget is a minimal redis-like responder. Every worker waits on
// one shared epoll set holding the listening socket and all accepted
// clients, so one dispatch may accept, read and reply.
//
// Workers share the listening socket and the epoll descriptor without any
// extra locking; the kernel serializes accept and epoll_ctl, and two
// workers may still be woken for the same ready client.
type KVServerTarget struct{}

func (KVServerTarget) Name() string { return "bm_server_redis" }

func (KVServerTarget) OperationCount() int { return 1 }

func (KVServerTarget) OperationName(int) string { return "op0_read_write" }

// kvRespond picks the reply for one request buffer by substring match.
func kvRespond(req []byte) []byte {
	switch {
	case bytes.Contains(req, []byte("SET")):
		return kvReplyOK
	case bytes.Contains(req, []byte("GET")):
		return kvReplyGet
	default:
		return kvReplyUnknown
	}
}
