package signaling

import "fmt"

// Protocol error codes, reported in the response envelope. None of them
// close the connection; admission failures are rejected before a
// connection ever reaches this layer.
const (
	CodeBadRequest   = "badRequest"
	CodePrecondition = "precondition"
	CodeNotFound     = "notFound"
	CodeNoProducer   = "noProducer"
	CodeIncompatible = "incompatibleCapabilities"
	CodeEngine       = "engine"
)

// Error is a protocol-visible request failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errBadRequest(format string, args ...interface{}) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

func errPrecondition(msg string) *Error {
	return &Error{Code: CodePrecondition, Message: msg}
}

func errNotFound(what, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("unknown %s %q", what, id)}
}

// errNoProducer is an expected outcome, not a fault: the client is
// supposed to retry after a delay.
var errNoProducer = &Error{Code: CodeNoProducer, Message: "no producer"}

var errIncompatible = &Error{Code: CodeIncompatible, Message: "incompatible rtp capabilities"}
