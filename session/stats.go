package session

import (
	fractal "github.com/marben/dist_fractal"
)

// State of a session's most recent render.
type State int

const (
	Idle State = iota
	Rendering
)

func (st State) String() string {
	if st == Rendering {
		return "rendering"
	}
	return "idle"
}

func (st State) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

// Stats is a snapshot of a session's progress.
type Stats struct {
	Generation uint64           `json:"generation"`
	State      State            `json:"state"`
	Rows       int              `json:"rows"`
	RowsDone   int              `json:"rowsDone"`
	Workers    int              `json:"workers"`
	Busy       int              `json:"busy"`
	Viewport   fractal.Viewport `json:"viewport"`
}

// Progress is the finished fraction of the current frame.
func (st Stats) Progress() float64 {
	if st.Rows == 0 {
		return 0
	}
	return float64(st.RowsDone) / float64(st.Rows)
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Generation: s.generation,
		Workers:    s.workers,
		Busy:       s.busy,
		Viewport:   s.viewport,
	}
	if f := s.active; f != nil {
		st.Rows = f.Request.Height
		st.RowsDone = f.completed
		if !f.finished {
			st.State = Rendering
		}
	}
	return st
}

// Current returns the frame of the latest generation, or nil before the
// first render.
func (s *Session) Current() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
