package events

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultQueueSize is the per-subscriber frame buffer used when none is set.
const DefaultQueueSize = 64

// Publisher is what the rest of the engine depends on to broadcast.
type Publisher interface {
	Publish(env Envelope)
}

type Stats struct {
	Subscribers int   `json:"subscribers"`
	Published   int64 `json:"published"`
	Delivered   int64 `json:"delivered"`
	Pruned      int64 `json:"pruned"`
}

// Hub fans envelopes out to every registered subscriber.
type Hub struct {
	registry  *Registry
	queueSize int
	handshake []byte
	logger    *zerolog.Logger

	closed    atomic.Bool
	published atomic.Int64
	delivered atomic.Int64
	pruned    atomic.Int64
}

func NewHub(registry *Registry, queueSize int, logger *zerolog.Logger) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	handshake, _ := Envelope{Type: TypeConnected}.Frame()
	return &Hub{
		registry:  registry,
		queueSize: queueSize,
		handshake: handshake,
		logger:    logger,
	}
}

// Subscribe registers a new subscriber. The handshake frame is queued
// before the subscriber becomes visible to publishers, so it is always
// the first thing the stream sees.
func (h *Hub) Subscribe() *Subscriber {
	s := newSubscriber(h.queueSize)
	_ = s.Offer(h.handshake)
	if h.closed.Load() {
		s.Close()
		return s
	}
	h.registry.Add(s)
	if h.closed.Load() {
		// lost a race with Close
		h.Unsubscribe(s)
		return s
	}
	h.logger.Debug().Str("subscriber", s.ID).Int("total", h.registry.Len()).Msg("subscriber connected")
	return s
}

// Unsubscribe is safe to call any number of times, including after the
// hub already pruned s.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if h.registry.Remove(s) {
		h.logger.Debug().Str("subscriber", s.ID).Int("total", h.registry.Len()).Msg("subscriber disconnected")
	}
	s.Close()
}

// Publish encodes env once and offers the frame to every subscriber
// registered at the time of the call. Subscribers that are closed or
// cannot keep up are dropped from the registry before Publish returns.
func (h *Hub) Publish(env Envelope) {
	if err := env.Validate(); err != nil {
		h.logger.Error().Err(err).Msg("publish rejected")
		return
	}
	frame, err := env.Frame()
	if err != nil {
		h.logger.Error().Err(err).Str("type", env.Type).Msg("publish encode failed")
		return
	}
	h.published.Add(1)

	var dead []*Subscriber
	for _, s := range h.registry.Snapshot() {
		if err := s.Offer(frame); err != nil {
			dead = append(dead, s)
			h.logger.Debug().Err(err).Str("subscriber", s.ID).Msg("delivery failed")
			continue
		}
		h.delivered.Add(1)
	}

	for _, s := range dead {
		if h.registry.Remove(s) {
			h.pruned.Add(1)
		}
		s.Close()
	}
	h.logger.Debug().Str("type", env.Type).Int("pruned", len(dead)).Msg("published")
}

// Close ends every stream. Subscribers arriving afterwards are closed
// immediately.
func (h *Hub) Close() {
	h.closed.Store(true)
	subs := h.registry.Snapshot()
	for _, s := range subs {
		h.registry.Remove(s)
		s.Close()
	}
	h.logger.Info().Int("subscribers", len(subs)).Msg("event hub closed")
}

func (h *Hub) Stats() Stats {
	return Stats{
		Subscribers: h.registry.Len(),
		Published:   h.published.Load(),
		Delivered:   h.delivered.Load(),
		Pruned:      h.pruned.Load(),
	}
}
