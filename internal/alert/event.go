package alert

import "time"

// Event is one entry in the engine's audit buffer.
type Event struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Context   any       `json:"context,omitempty"`
	Location  string    `json:"location,omitempty"`
}

// AlertContext is the context attached to events produced by RaiseAlert.
type AlertContext struct {
	Kind  Kind `json:"kind"`
	Count int  `json:"count"`
}
