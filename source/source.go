package source

import (
	"sync"
	"sync/atomic"

	"github.com/adolfomarver/ipcaster/collections"
	"github.com/adolfomarver/ipcaster/mpegts"
)

// DefaultQueueCapacity is the number of parsed buffers the internal
// queue can hold before the producer blocks.
const DefaultQueueCapacity = 8

// Parser is the subset of *mpegts.FileParser a Source drives.
type Parser interface {
	Read() (*mpegts.Buffer, error)
	Close() error
}

// Encapsulator is the subset of *smpte2022.Encapsulator a Source feeds.
type Encapsulator interface {
	Push(buf *mpegts.Buffer)
	Flush()
	Close()
}

// Source binds a Parser to an Encapsulator across two goroutines: a
// producer that reads buffers from the parser, and a consumer that
// feeds them to the encapsulator. Grounded on ipcaster's original
// source/FileSource.hpp two-thread driver.
type Source struct {
	parser       Parser
	encapsulator Encapsulator

	queue *collections.Queue[*mpegts.Buffer]

	started atomic.Bool
	exit    atomic.Bool
	wg      sync.WaitGroup

	mu       sync.Mutex
	lastErr  error

	observers *observerRegistry
}

// New creates a Source over parser and encapsulator with the default
// queue capacity.
func New(parser Parser, encapsulator Encapsulator) *Source {
	return &Source{
		parser:       parser,
		encapsulator: encapsulator,
		queue:        collections.NewQueue[*mpegts.Buffer](DefaultQueueCapacity),
		observers:    newObserverRegistry(),
	}
}

// Subscribe registers an observer for end/error notifications,
// returning a handle that deregisters it when unsubscribed.
func (s *Source) Subscribe(o Observer) *Subscription {
	return s.observers.subscribe(o)
}

// Start launches the producer and consumer goroutines. It must be
// called exactly once; subsequent calls return ErrAlreadyStarted.
func (s *Source) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	s.wg.Add(2)
	go s.runProducer()
	go s.runConsumer()

	return nil
}

// Stop unblocks both sides of the internal queue, joins both
// goroutines, and — if flush is true — flushes the encapsulator.
func (s *Source) Stop(flush bool) error {
	if !s.started.Load() {
		return ErrNotStarted
	}

	s.exit.Store(true)
	s.queue.UnblockProducer(true)
	s.queue.UnblockConsumer(true)

	s.wg.Wait()

	if flush {
		s.encapsulator.Flush()
	}
	return nil
}

func (s *Source) runProducer() {
	defer s.wg.Done()

	for !s.exit.Load() {
		buf, err := s.parser.Read()
		if err != nil {
			s.setErr(err)
			s.queue.Push(nil)
			return
		}
		if buf == nil {
			s.queue.Push(nil)
			return
		}

		s.queue.Push(buf)
	}
}

func (s *Source) runConsumer() {
	defer s.wg.Done()

	for {
		if s.queue.WaitReadAvailable() == 0 {
			return
		}
		if s.exit.Load() {
			return
		}

		buf := s.queue.Front()
		s.queue.Pop()

		if buf == nil {
			if err := s.Err(); err != nil {
				s.observers.notifyError(err)
			} else {
				s.observers.notifyEnd()
			}
			return
		}

		s.encapsulator.Push(buf)
	}
}

func (s *Source) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Err returns the error that terminated the source, if any.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
