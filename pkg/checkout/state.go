package checkout

import (
	"context"
	"log/slog"
)

// State is a step of a single checkout attempt. Rejected is only reachable
// from Validating.
type State int

const (
	StateValidating State = iota
	StatePersisting
	StateCompleted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StatePersisting:
		return "persisting"
	case StateCompleted:
		return "completed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// attempt tracks the state of one Checkout call.
type attempt struct {
	log     *slog.Logger
	session string
	state   State
}

func (a *attempt) advance(ctx context.Context, next State) {
	a.log.DebugContext(ctx, "checkout state", "session", a.session, "from", a.state.String(), "to", next.String())
	a.state = next
}

func (a *attempt) reject(ctx context.Context, err error) error {
	a.advance(ctx, StateRejected)
	a.log.InfoContext(ctx, "checkout rejected", "session", a.session, "reason", err.Error())
	return err
}
