package report

import (
	"go.uber.org/atomic"
)

type NotesErrors struct {
	Create    atomic.Uint64 `json:"create"`
	OpenState atomic.Uint64 `json:"open_state"`
}

type NotesState struct {
	Created       atomic.Uint64 `json:"created"`
	OpenStatesSet atomic.Uint64 `json:"open_states_set"`
}

type NotesReport struct {
	State  NotesState  `json:"state"`
	Errors NotesErrors `json:"errors"`
}
