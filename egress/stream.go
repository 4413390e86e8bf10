package egress

import (
	"sync"
	"time"

	"github.com/adolfomarver/ipcaster/collections"
)

// DefaultPreroll is the minimum amount of buffered stream time that
// must be banked before a stream starts releasing datagrams.
const DefaultPreroll = 40 * time.Millisecond

// Stream is a per-source record inside the Muxer: a bounded queue of
// pending datagrams, all addressed to the same target, plus the
// bookkeeping needed to re-anchor the stream's PCR-derived deadlines
// onto the Muxer's wall clock. Grounded on ipcaster's original
// net/DatagramsMuxer.hpp's nested Stream class.
type Stream struct {
	targetIP   string
	targetPort uint16
	queue      *collections.Queue[*Datagram]
	preroll    time.Duration

	mu             sync.Mutex
	syncPointSet   bool
	syncPoint      time.Time
	startPointSet  bool
	startPoint     time.Time
	tailDeadline   time.Time
	lastPoppedTick time.Time
}

func newStream(targetIP string, targetPort uint16, fifoCapacity int) *Stream {
	return &Stream{
		targetIP:   targetIP,
		targetPort: targetPort,
		queue:      collections.NewQueue[*Datagram](fifoCapacity),
		preroll:    DefaultPreroll,
	}
}

// Push enqueues a datagram, stamping it with the stream's target and,
// on the first call, anchoring sync_point to its deadline. Blocks if
// the stream's queue is full.
func (s *Stream) Push(d *Datagram) {
	s.mu.Lock()
	if !s.syncPointSet {
		s.syncPoint = d.Deadline
		s.syncPointSet = true
	}
	s.tailDeadline = d.Deadline
	s.mu.Unlock()

	d.TargetIP = s.targetIP
	d.TargetPort = s.targetPort

	s.queue.Push(d)
}

// Flush blocks until the stream's queue has drained.
func (s *Stream) Flush() {
	for s.queue.ReadAvailable() > 0 {
		time.Sleep(100 * time.Millisecond)
	}
}

// popFrontIfEligible pops and returns the front datagram if its
// deadline, normalized onto the Muxer's wall clock, has already
// passed. The returned datagram's deadline is rewritten to its
// normalized value.
func (s *Stream) popFrontIfEligible(now time.Time) (*Datagram, bool) {
	if s.queue.ReadAvailable() == 0 {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startPointSet {
		if s.tailDeadline.Sub(s.queue.Front().Deadline) < s.preroll {
			return nil, false
		}
		s.startPoint = now
		s.startPointSet = true
	}

	front := s.queue.Front()
	normalized := s.startPoint.Add(front.Deadline.Sub(s.syncPoint))
	if !normalized.Before(now) {
		return nil, false
	}

	s.queue.Pop()
	s.lastPoppedTick = front.Deadline
	front.Deadline = normalized

	return front, true
}

// CurrentTime returns the stream-relative elapsed time of the last
// datagram released, i.e. its original deadline minus sync_point.
func (s *Stream) CurrentTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastPoppedTick.IsZero() {
		return 0
	}
	return s.lastPoppedTick.Sub(s.syncPoint)
}

// TargetIP returns the stream's destination address.
func (s *Stream) TargetIP() string { return s.targetIP }

// TargetPort returns the stream's destination port.
func (s *Stream) TargetPort() uint16 { return s.targetPort }

// Close is a no-op: a Stream's resources are released when the Muxer
// removes it from its stream list, not by the encapsulator that feeds
// it. It exists so Stream satisfies smpte2022.Consumer.
func (s *Stream) Close() {}
