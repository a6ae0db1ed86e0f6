package events

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrSubscriberClosed       = errors.New("subscriber closed")
	ErrSubscriberBackpressure = errors.New("subscriber queue full")
)

// Subscriber is the hub's handle on one live stream. Publishers only ever
// offer frames into its queue; the connection handler that owns the
// transport drains Frames and stops when Done is closed.
type Subscriber struct {
	ID string

	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber(queueSize int) *Subscriber {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Subscriber{
		ID:     uuid.NewString(),
		frames: make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// Offer enqueues a frame without blocking.
func (s *Subscriber) Offer(frame []byte) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}
	select {
	case s.frames <- frame:
		return nil
	default:
		return ErrSubscriberBackpressure
	}
}

func (s *Subscriber) Frames() <-chan []byte { return s.frames }

func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Close marks the subscriber dead. The frame channel is never closed so a
// racing Offer cannot panic; it just lands in a queue nobody reads.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Subscriber) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
