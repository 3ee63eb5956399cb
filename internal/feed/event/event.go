package event

import "errors"

// Phase is one of the three lifecycle phases of a single wallet call.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
	PhaseError  Phase = "error"
)

// ErrMalformed marks events missing the correlation id or method (or carrying
// an unknown phase). Malformed events never mutate a session.
var ErrMalformed = errors.New("malformed event")

// Event is one lifecycle event of a wallet-provider call. ID is the
// caller-chosen correlation string tying before/after/error together; the
// aggregator tolerates duplicates and out-of-order delivery of the phases.
type Event struct {
	Phase  Phase  `json:"phase"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (e Event) Validate() error {
	if e.ID == "" || e.Method == "" {
		return ErrMalformed
	}
	switch e.Phase {
	case PhaseBefore, PhaseAfter, PhaseError:
		return nil
	}
	return ErrMalformed
}
