package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const eventQueueSize = 16

// pendingCall is an issued call waiting for the reply of target.
type pendingCall struct {
	target string
	reply  chan *Message
}

// Messenger is the RPC endpoint of one context. It serves the context's registry
// and correlates replies to the calls it issued by request id.
type Messenger struct {
	label     string
	registry  Registry
	transport Transport
	log       *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingCall

	feed   event.FeedOf[model.Event]
	events chan model.Event

	closeOnce sync.Once
	closed    chan struct{}
	handlers  sync.WaitGroup
}

// New returns a Messenger for the context named label. registry may be nil for a
// context that only issues calls.
func New(label string, registry Registry, transport Transport, logger *zap.Logger) *Messenger {
	if registry == nil {
		registry = Registry{}
	}
	return &Messenger{
		label:     label,
		registry:  registry,
		transport: transport,
		log:       logger.Named("messenger").With(zap.String("context", label)),
		pending:   make(map[string]*pendingCall),
		events:    make(chan model.Event, eventQueueSize),
		closed:    make(chan struct{}),
	}
}

// Label returns the name of the context this messenger belongs to.
func (m *Messenger) Label() string {
	return m.label
}

// Serve receives messages until the transport closes or ctx is done.
// Calls are dispatched on their own goroutine so a handler may itself call
// another context. When Serve returns, calls still waiting fail with ErrClosed.
func (m *Messenger) Serve(ctx context.Context) error {
	go m.publishEvents()

	for {
		msg, err := m.transport.Recv(ctx)
		if err != nil {
			m.shutdown()
			m.handlers.Wait()
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		m.handleIncoming(ctx, msg)
	}
}

func (m *Messenger) shutdown() {
	m.closeOnce.Do(func() {
		close(m.closed)
		close(m.events)
	})
}

// Done is closed when Serve has returned.
func (m *Messenger) Done() <-chan struct{} {
	return m.closed
}

func (m *Messenger) handleIncoming(ctx context.Context, msg *Message) {
	switch msg.Kind {
	case KindReply:
		m.mu.Lock()
		call, ok := m.pending[msg.ID]
		if ok && call.target != msg.From {
			ok = false
		}
		if ok {
			delete(m.pending, msg.ID)
		}
		m.mu.Unlock()
		if !ok {
			m.log.Debug("reply for unknown request", zap.String("id", msg.ID), zap.String("from", msg.From))
			return
		}
		call.reply <- msg

	case KindCall:
		m.handlers.Add(1)
		go m.dispatch(ctx, msg)

	case KindBroadcast:
		if msg.Event == nil {
			return
		}
		select {
		case m.events <- *msg.Event:
		default:
			droppedBroadcasts.Inc()
			m.log.Warn("event queue full, dropping broadcast", zap.String("type", string(msg.Event.Type)))
		}

	default:
		m.log.Warn("unsupported message kind", zap.String("kind", string(msg.Kind)), zap.String("from", msg.From))
	}
}

// publishEvents hands received broadcasts to subscribers off the receive loop.
func (m *Messenger) publishEvents() {
	for ev := range m.events {
		m.feed.Send(ev)
	}
}

func (m *Messenger) dispatch(ctx context.Context, msg *Message) {
	defer m.handlers.Done()

	reply := &Message{
		Kind:   KindReply,
		ID:     msg.ID,
		From:   m.label,
		Target: msg.From,
		Method: msg.Method,
	}

	result, err := m.invoke(withCaller(ctx, msg.From), msg)
	if err == nil {
		reply.Result, err = json.Marshal(result)
		if err != nil {
			err = fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	code := ""
	if err != nil {
		reply.Result = nil
		reply.Exception = model.NewErrorResponse(err)
		code = reply.Exception.Code
		m.log.Debug("call failed", zap.String("method", string(msg.Method)), zap.String("from", msg.From), zap.Error(err))
	}
	handledCalls.WithLabelValues(string(msg.Method), code).Inc()

	if err := m.transport.Send(ctx, reply); err != nil {
		m.log.Warn("failed to send reply", zap.String("method", string(msg.Method)), zap.String("to", msg.From), zap.Error(err))
	}
}

func (m *Messenger) invoke(ctx context.Context, msg *Message) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("handler panicked", zap.String("method", string(msg.Method)), zap.Any("panic", r))
			result, err = nil, fmt.Errorf("handler %s panicked", msg.Method)
		}
	}()

	handler, ok := m.registry[msg.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownMethod, msg.Method)
	}
	return handler(ctx, msg.Params)
}

// Call invokes method on the context named target and decodes the reply into result
// (which may be nil). An exception reply is returned as an error that matches the
// model sentinels with errors.Is.
// No timeout is imposed here: without a deadline on ctx, Call waits until a reply
// arrives or the messenger stops. Cancelling ctx abandons the call.
func (m *Messenger) Call(ctx context.Context, target string, method Method, params, result any) error {
	var raw json.RawMessage
	if params != nil {
		var err error
		if raw, err = json.Marshal(params); err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
	}

	id := uuid.NewString()
	ch := make(chan *Message, 1)

	m.mu.Lock()
	m.pending[id] = &pendingCall{target: target, reply: ch}
	m.mu.Unlock()
	pendingCalls.WithLabelValues(m.label).Inc()
	defer m.release(id)

	call := &Message{
		Kind:   KindCall,
		ID:     id,
		From:   m.label,
		Target: target,
		Method: method,
		Params: raw,
	}
	if err := m.transport.Send(ctx, call); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", method, target, err)
	}

	select {
	case reply := <-ch:
		if reply.Exception != nil {
			return model.ErrorFromResponse(reply.Exception)
		}
		if result != nil && len(reply.Result) > 0 {
			if err := json.Unmarshal(reply.Result, result); err != nil {
				return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closed:
		return ErrClosed
	}
}

func (m *Messenger) release(id string) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
	pendingCalls.WithLabelValues(m.label).Dec()
}

// Pending returns the number of calls waiting for a reply.
func (m *Messenger) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Broadcast notifies every other live context. Delivery is best-effort.
func (m *Messenger) Broadcast(ctx context.Context, ev model.Event) error {
	msg := &Message{
		Kind:  KindBroadcast,
		From:  m.label,
		Event: &ev,
	}
	if err := m.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to broadcast %s: %w", ev.Type, err)
	}
	return nil
}

// Subscribe delivers broadcasts received by this context to ch.
func (m *Messenger) Subscribe(ch chan<- model.Event) event.Subscription {
	return m.feed.Subscribe(ch)
}
