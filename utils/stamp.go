package utils

import (
	"fmt"
	"time"
)

// Stamp is a simulation timestamp split into whole seconds and nanoseconds, passed through
// unmodified into output headers.
type Stamp struct {
	Sec     int32  `json:"sec"`
	Nanosec uint32 `json:"nanosec"`
}

// StampFromDuration converts time elapsed since the start of the simulation into a Stamp.
func StampFromDuration(d time.Duration) Stamp {
	if d < 0 {
		d = 0
	}
	return Stamp{Sec: int32(d / time.Second), Nanosec: uint32(d % time.Second)}
}

// Duration returns the stamp as a duration since the zero stamp.
func (s Stamp) Duration() time.Duration {
	return time.Duration(s.Sec)*time.Second + time.Duration(s.Nanosec)
}

// IsZero reports whether the stamp was never set.
func (s Stamp) IsZero() bool {
	return s.Sec == 0 && s.Nanosec == 0
}

func (s Stamp) String() string {
	return fmt.Sprintf("%d.%09d", s.Sec, s.Nanosec)
}

// Header is the metadata stamped on every published message.
type Header struct {
	Stamp   Stamp  `json:"stamp"`
	FrameID string `json:"frame_id"`
}
