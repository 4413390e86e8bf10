package scheduler

import (
	"sync"
	"sync/atomic"

	"github.com/adolfomarver/ipcaster/egress"
	"github.com/adolfomarver/ipcaster/mpegts"
	"github.com/adolfomarver/ipcaster/smpte2022"
	"github.com/adolfomarver/ipcaster/source"
	"go.uber.org/zap"
)

// deleteQueueCapacity bounds the number of pending auto-deletions;
// well above any realistic number of simultaneously-ending streams.
const deleteQueueCapacity = 256

// Scheduler owns the set of active streams and their ids. EOF or
// error on a stream's Source schedules its removal asynchronously, on
// a control channel drained by a dedicated goroutine, so the
// notifying callback never needs the scheduler mutex it would
// otherwise deadlock against. Grounded on the async-deletion design
// recorded for this component.
type Scheduler struct {
	muxer *egress.Muxer
	log   *zap.Logger

	mu      sync.Mutex
	handles map[uint64]*Handle
	nextID  uint64

	deleteCh chan uint64
	stopCh   chan struct{}
	exit     atomic.Bool
	wg       sync.WaitGroup
}

// New creates a Scheduler that sends every stream's datagrams through muxer.
func New(muxer *egress.Muxer, log *zap.Logger) *Scheduler {
	s := &Scheduler{
		muxer:    muxer,
		log:      log,
		handles:  make(map[uint64]*Handle),
		deleteCh: make(chan uint64, deleteQueueCapacity),
		stopCh:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runDeleteLoop()

	return s
}

// CreateStream opens path, wires a Source through a fresh SMPTE 2022-2
// encapsulator into a new Muxer stream addressed to targetIP:targetPort,
// starts it, and returns its Handle with a freshly allocated id.
func (s *Scheduler) CreateStream(path, targetIP string, targetPort uint16) (*Handle, error) {
	parser, err := mpegts.Open(path)
	if err != nil {
		return nil, err
	}

	stream := s.muxer.CreateStream(targetIP, targetPort, DefaultStreamFIFODepth)
	enc := smpte2022.New(stream, targetIP, targetPort)
	src := source.New(parser, enc)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	h := &Handle{ID: id, Path: path, TargetIP: targetIP, TargetPort: targetPort, parser: parser, enc: enc, source: src, stream: stream}
	s.handles[id] = h
	s.mu.Unlock()

	src.Subscribe(&autoDeleteObserver{id: id, scheduler: s})

	if err := src.Start(); err != nil {
		s.removeHandle(id)
		return nil, err
	}

	return h, nil
}

// DefaultStreamFIFODepth is the number of datagrams buffered per
// stream inside the Muxer before the encapsulator's push blocks.
const DefaultStreamFIFODepth = 512

// DeleteStream synchronously tears down the stream identified by id:
// stops its source, removes its Muxer stream, and closes its parser.
// It does not flush: the caller is interrupting the stream, not
// waiting for it to end, so anything still buffered ahead of the
// current send position is dropped rather than drained at real-time
// pace. It returns once the source's consumer has finished pushing the
// buffer it was encapsulating when the delete arrived; while that
// buffer's datagrams wait for room in the full Muxer stream queue, the
// stream keeps sending, for up to one read buffer's worth of playout
// time. Returns *NotFoundError if id is not active.
func (s *Scheduler) DeleteStream(id uint64) error {
	h := s.removeHandle(id)
	if h == nil {
		return &NotFoundError{ID: id}
	}

	s.teardown(h, false)
	return nil
}

// ListStreams returns a snapshot of every currently active stream.
func (s *Scheduler) ListStreams() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h)
	}
	return out
}

// Close stops the delete-control loop and tears down every remaining
// stream. Call once, at process shutdown.
func (s *Scheduler) Close() {
	s.exit.Store(true)
	close(s.stopCh)
	s.wg.Wait()

	for _, h := range s.ListStreams() {
		s.DeleteStream(h.ID)
	}
}

func (s *Scheduler) removeHandle(id uint64) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[id]
	if !ok {
		return nil
	}
	delete(s.handles, id)
	return h
}

// teardown stops h's source, closes its encapsulator, removes its
// Muxer stream, and closes its parser. With flush, the source's
// trailing partial datagram is pushed and the Muxer stream is drained
// before removal, so production having genuinely finished (EOF or a
// read error) still reaches the wire byte-for-byte.
func (s *Scheduler) teardown(h *Handle, flush bool) {
	h.source.Stop(flush)
	h.enc.Close()
	s.muxer.RemoveStream(h.stream)
	h.parser.Close()
}

// scheduleAsyncDelete posts id onto the control channel for the
// delete loop to act on, decoupling the notifying goroutine from the
// scheduler mutex.
func (s *Scheduler) scheduleAsyncDelete(id uint64) {
	if s.exit.Load() {
		return
	}
	select {
	case s.deleteCh <- id:
	default:
		s.log.Warn("scheduler: delete queue full, dropping auto-delete", zap.Uint64("id", id))
	}
}

// runDeleteLoop tears down streams whose Source reported EOF or error.
// Either way production has permanently stopped on its own, so the
// teardown flushes: any trailing partial datagram and whatever is
// still queued belongs to the stream's legitimate output, not to data
// an external caller chose to cut off.
func (s *Scheduler) runDeleteLoop() {
	defer s.wg.Done()

	for {
		select {
		case id := <-s.deleteCh:
			h := s.removeHandle(id)
			if h == nil {
				continue
			}
			s.teardown(h, true)
		case <-s.stopCh:
			return
		}
	}
}

// autoDeleteObserver schedules a stream's removal when its Source
// reaches EOF or errors out.
type autoDeleteObserver struct {
	id        uint64
	scheduler *Scheduler
}

func (o *autoDeleteObserver) OnEnd() {
	o.scheduler.scheduleAsyncDelete(o.id)
}

func (o *autoDeleteObserver) OnError(err error) {
	o.scheduler.log.Warn("scheduler: stream ended with error", zap.Uint64("id", o.id), zap.Error(err))
	o.scheduler.scheduleAsyncDelete(o.id)
}
