// Package session runs the upload, job submit, and improve workflow against
// the analysis service. The most recently started session is the only one
// whose progress is observable.
package session

import "encoding/json"

// State is the position of a session in its workflow
type State int

// Session states. Failed is reachable from any non-terminal state.
const (
	Idle State = iota
	Uploading
	SubmittingJob
	Improving
	Ready
	Failed
)

var stateNames = map[State]string{
	Idle:          "idle",
	Uploading:     "uploading",
	SubmittingJob: "submittingJob",
	Improving:     "improving",
	Ready:         "ready",
	Failed:        "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == Ready || s == Failed
}

// Loading reports whether a network step is in flight
func (s State) Loading() bool {
	return s == Uploading || s == SubmittingJob || s == Improving
}

// MessageKey is the translation key describing the state
func (s State) MessageKey() string {
	return "session." + s.String()
}

// MarshalJSON encodes the state by name
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
