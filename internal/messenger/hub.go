package messenger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const inboxSize = 64

// Hub routes messages between contexts living in one process.
type Hub struct {
	log *zap.Logger

	mu        sync.RWMutex
	endpoints map[string]*Endpoint
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		log:       logger.Named("hub"),
		endpoints: make(map[string]*Endpoint),
	}
}

// Attach registers a context under label and returns its transport.
func (h *Hub) Attach(label string) (*Endpoint, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.endpoints[label]; ok {
		return nil, fmt.Errorf("context %q already attached", label)
	}
	ep := &Endpoint{
		hub:   h,
		label: label,
		inbox: make(chan *Message, inboxSize),
		done:  make(chan struct{}),
	}
	h.endpoints[label] = ep
	h.log.Debug("context attached", zap.String("context", label))
	return ep, nil
}

// Detach removes the context named label. Messages still queued for it are dropped.
func (h *Hub) Detach(label string) {
	h.mu.Lock()
	ep, ok := h.endpoints[label]
	delete(h.endpoints, label)
	h.mu.Unlock()

	if ok {
		ep.closeOnce.Do(func() { close(ep.done) })
		h.log.Debug("context detached", zap.String("context", label))
	}
}

// remove detaches ep unless its label has since been taken by another endpoint.
func (h *Hub) remove(ep *Endpoint) {
	h.mu.Lock()
	if h.endpoints[ep.label] == ep {
		delete(h.endpoints, ep.label)
	}
	h.mu.Unlock()

	ep.closeOnce.Do(func() { close(ep.done) })
}

// Labels returns the live contexts, sorted.
func (h *Hub) Labels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	labels := make([]string, 0, len(h.endpoints))
	for label := range h.endpoints {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (h *Hub) lookup(label string) *Endpoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.endpoints[label]
}

func (h *Hub) deliver(ctx context.Context, msg *Message) error {
	dst := h.lookup(msg.Target)
	if dst == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchContext, msg.Target)
	}
	select {
	case dst.inbox <- msg:
		return nil
	case <-dst.done:
		return fmt.Errorf("%w: %s", ErrNoSuchContext, msg.Target)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) broadcast(msg *Message) {
	h.mu.RLock()
	targets := make([]*Endpoint, 0, len(h.endpoints))
	for label, ep := range h.endpoints {
		if label != msg.From {
			targets = append(targets, ep)
		}
	}
	h.mu.RUnlock()

	for _, ep := range targets {
		copied := *msg
		copied.Target = ep.label
		select {
		case ep.inbox <- &copied:
		default:
			droppedBroadcasts.Inc()
			h.log.Warn("inbox full, dropping broadcast", zap.String("context", ep.label))
		}
	}
}

// Endpoint is the Transport of one context attached to a Hub.
type Endpoint struct {
	hub   *Hub
	label string
	inbox chan *Message

	closeOnce sync.Once
	done      chan struct{}
}

// Label returns the context name the endpoint is attached under.
func (e *Endpoint) Label() string {
	return e.label
}

// Send routes msg. The sender label is always stamped by the hub.
func (e *Endpoint) Send(ctx context.Context, msg *Message) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}

	msg.From = e.label
	if msg.Kind == KindBroadcast {
		e.hub.broadcast(msg)
		return nil
	}
	return e.hub.deliver(ctx, msg)
}

func (e *Endpoint) Recv(ctx context.Context) (*Message, error) {
	select {
	case msg := <-e.inbox:
		return msg, nil
	case <-e.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close detaches the endpoint from its hub.
func (e *Endpoint) Close() error {
	e.hub.remove(e)
	return nil
}
