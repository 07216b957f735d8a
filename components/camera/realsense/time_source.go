package realsense

import (
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/depthsim/utils"
)

// A TimeSource reports the current simulation time.
type TimeSource interface {
	SimTime() utils.Stamp
}

// TimeSourceFunc adapts a function to a TimeSource.
type TimeSourceFunc func() utils.Stamp

// SimTime calls f.
func (f TimeSourceFunc) SimTime() utils.Stamp {
	return f()
}

// ClockTimeSource reports the time elapsed on a clock since the source was created, as a
// simulation that starts at zero would.
type ClockTimeSource struct {
	clock clock.Clock
	start time.Time
}

// NewClockTimeSource starts counting simulation time on clk.
func NewClockTimeSource(clk clock.Clock) *ClockTimeSource {
	return &ClockTimeSource{clock: clk, start: clk.Now()}
}

// SimTime returns the time elapsed since the source was created.
func (s *ClockTimeSource) SimTime() utils.Stamp {
	return utils.StampFromDuration(s.clock.Since(s.start))
}
