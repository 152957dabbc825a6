package vitamin

import (
	"time"

	"github.com/loov/hrtime"
	"golang.org/x/exp/slog"
)

// FrameStats accumulates CPU side frame durations measured with hrtime.
type FrameStats struct {
	Count uint64
	Last  time.Duration
	Min   time.Duration
	Max   time.Duration
	total time.Duration
}

// Start returns a timestamp to pass to Record.
func (s *FrameStats) Start() time.Duration {
	return hrtime.Now()
}

// Record adds the time elapsed since start.
func (s *FrameStats) Record(start time.Duration) {
	s.Add(hrtime.Since(start))
}

func (s *FrameStats) Add(d time.Duration) {
	if s.Count == 0 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Last = d
	s.total += d
	s.Count++
}

func (s *FrameStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.total / time.Duration(s.Count)
}

// LogValue groups the counters under one key.
func (s *FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frames", s.Count),
		slog.Duration("last", s.Last),
		slog.Duration("min", s.Min),
		slog.Duration("max", s.Max),
		slog.Duration("mean", s.Mean()),
	)
}
