package view

import (
	"latexify/internal/templatestore"
)

// State is the position of a session in the list → select → generate flow.
type State int

const (
	StateIdle State = iota
	StateListed
	StateSelected
	StateSubmitting
	StateGenerated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListed:
		return "listed"
	case StateSelected:
		return "selected"
	case StateSubmitting:
		return "submitting"
	case StateGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Snapshot is a point-in-time copy of a session. Result is the display string,
// so a failed generation shows the fixed placeholder.
type Snapshot struct {
	State        State                    `json:"state"`
	Templates    []templatestore.Template `json:"templates"`
	Selected     *templatestore.Template  `json:"selected,omitempty"`
	Format       string                   `json:"format,omitempty"`
	Text         string                   `json:"text"`
	Details      string                   `json:"details"`
	Result       string                   `json:"result"`
	ResultFailed bool                     `json:"resultFailed"`
	InFlight     bool                     `json:"inFlight"`
}

// CanSubmit reports whether Submit would issue a request.
func (s Snapshot) CanSubmit() bool { return s.Text != "" && !s.InFlight }
