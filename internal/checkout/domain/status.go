package domain

import "errors"

type Status string

const (
	StatusIdle                 Status = "idle"
	StatusLoadingSources       Status = "loading-sources"
	StatusAwaitingConfirmation Status = "awaiting-confirmation"
	StatusProcessing           Status = "processing"
	StatusSucceeded            Status = "succeeded"
	StatusFailed               Status = "failed"
)

var ErrInvalidTransition = errors.New("checkout: invalid status transition")

var transitions = map[Status][]Status{
	StatusIdle:                 {StatusLoadingSources},
	StatusLoadingSources:       {StatusAwaitingConfirmation, StatusFailed},
	StatusAwaitingConfirmation: {StatusProcessing},
	StatusProcessing:           {StatusSucceeded, StatusFailed},
	StatusFailed:               {StatusAwaitingConfirmation},
}

// CanTransition reports whether the session may move from one status to
// another. Every status may return to idle.
func CanTransition(from, to Status) bool {
	if to == StatusIdle {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
