// Package egress implements the SMPTE 2022-2 datagram scheduler: a
// multi-stream timed UDP sender that releases bursts of datagrams at
// a fixed cadence while honoring per-datagram send deadlines. Grounded
// on ipcaster's original net/Datagram.hpp and net/DatagramsMuxer.hpp.
package egress

import (
	"time"

	"github.com/adolfomarver/ipcaster/mpegts"
)

// Datagram is a single SMPTE 2022-2 UDP payload with the wall-clock
// deadline by which it should be sent.
type Datagram struct {
	TargetIP   string
	TargetPort uint16
	Payload    *mpegts.Buffer
	Deadline   time.Time
}

// TicksToDuration converts a count of 27MHz PCR ticks to a time.Duration.
func TicksToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks * 1_000_000_000 / mpegts.PCRClockFrequency)
}

// epoch is the origin of the monotonic deadline clock: PCR tick 0
// converts to this instant plus zero duration. All Datagram deadlines
// and stream sync/start points are offsets from this origin, matching
// the original's Clock::time_point(0) epoch.
var epoch = time.Unix(0, 0)

// DeadlineFromTicks converts a PCR-derived timestamp, in 27MHz ticks,
// into a send deadline on the muxer's monotonic clock.
func DeadlineFromTicks(ticks uint64) time.Time {
	return epoch.Add(TicksToDuration(ticks))
}
