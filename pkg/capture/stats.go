package capture

import "sync/atomic"

// State of the acquisition loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Stats are written only by the loop and may be read from any goroutine.
type Stats struct {
	state        atomic.Int32
	blocks       atomic.Uint64
	misses       atomic.Uint64
	bytesWritten atomic.Uint64
}

type Snapshot struct {
	State        string `json:"state"`
	Blocks       uint64 `json:"blocks_written"`
	Misses       uint64 `json:"misses"`
	BytesWritten uint64 `json:"bytes_written"`
}

func (s *Stats) State() State {
	return State(s.state.Load())
}

func (s *Stats) Blocks() uint64 {
	return s.blocks.Load()
}

func (s *Stats) Misses() uint64 {
	return s.misses.Load()
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		State:        s.State().String(),
		Blocks:       s.blocks.Load(),
		Misses:       s.misses.Load(),
		BytesWritten: s.bytesWritten.Load(),
	}
}

func (s *Stats) setState(state State) {
	s.state.Store(int32(state))
}
