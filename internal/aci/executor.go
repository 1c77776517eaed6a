// Package aci implements the wire protocols used to talk to IDOL-style
// servers: the ACI action protocol on the primary and service ports, and the
// line-oriented indexing protocol on the index port.
package aci

import (
	"context"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// Action names an ACI action.
type Action string

const (
	ActionGetVersion  Action = "GetVersion"
	ActionGetChildren Action = "GetChildren"
	ActionGetStatus   Action = "GetStatus"
)

// Parameters carries additional action parameters.
type Parameters map[string]string

// Executor issues ACI actions against a server port and returns the raw
// response body. Implementations decide transport concerns such as timeouts;
// callers see only success or failure.
type Executor interface {
	Execute(ctx context.Context, addr domain.Address, action Action, params Parameters) ([]byte, error)
}

// IndexExecutor issues the lightweight index test command against an index
// port. A reachable index port answers the test command with an error; that
// error is returned as an *IndexError carrying the server's message text.
type IndexExecutor interface {
	TestCommand(ctx context.Context, addr domain.Address) error
}

// IndexError is an error response read back from an index port. The message
// is the exact text the server returned.
type IndexError struct {
	Message string
}

func (e *IndexError) Error() string {
	return e.Message
}
