package messenger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// KeepAlive is the interval between pings sent to a page context.
	KeepAlive          = 30 * time.Second
	// MaxPageMessageSize bounds a single message read from a page.
	MaxPageMessageSize = 1 << 20

	pongWait  = 2 * KeepAlive
	writeWait = 10 * time.Second
)

// WebsocketTransport carries messages over one websocket connection.
type WebsocketTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	incoming  chan *Message
	closeOnce sync.Once
	done      chan struct{}
}

// DialWebsocket connects to a daemon's websocket endpoint.
func DialWebsocket(ctx context.Context, url string, header http.Header) (*WebsocketTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewWebsocketTransport(conn), nil
}

// NewWebsocketTransport wraps an established connection and starts reading from it.
func NewWebsocketTransport(conn *websocket.Conn) *WebsocketTransport {
	t := &WebsocketTransport{
		conn:     conn,
		incoming: make(chan *Message),
		done:     make(chan struct{}),
	}
	go t.readMessages()
	return t
}

func (t *WebsocketTransport) readMessages() {
	defer close(t.incoming)

	for {
		var msg Message
		if err := t.conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case t.incoming <- &msg:
		case <-t.done:
			return
		}
	}
}

func (t *WebsocketTransport) Send(ctx context.Context, msg *Message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := t.conn.WriteJSON(msg); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (t *WebsocketTransport) ping() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Recv returns the next message. A closed connection yields ErrClosed.
func (t *WebsocketTransport) Recv(ctx context.Context) (*Message, error) {
	select {
	case msg, ok := <-t.incoming:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *WebsocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

// ServeWebsocket bridges one untrusted page connection onto the hub until either side closes.
// The page is attached under a fresh page label; whatever it claims as its sender is
// overwritten. It may only call the background context; its replies and broadcasts
// are dropped. A page that stops answering pings is disconnected.
func ServeWebsocket(ctx context.Context, hub *Hub, conn *websocket.Conn, logger *zap.Logger) error {
	conn.SetReadLimit(MaxPageMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	label := pagePrefix + uuid.NewString()
	ep, err := hub.Attach(label)
	if err != nil {
		conn.Close()
		return err
	}
	defer ep.Close()

	log := logger.Named("page").With(zap.String("context", label))
	log.Info("page connected")
	defer log.Info("page disconnected")

	transport := NewWebsocketTransport(conn)
	defer transport.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		forwardToPage(ctx, ep, transport, log)
	}()

	for {
		msg, err := transport.Recv(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		switch {
		case msg.Kind == KindCall && msg.Target != Background:
			err = fmt.Errorf("%w: %s", ErrNoSuchContext, msg.Target)
		case msg.Kind == KindCall:
			err = ep.Send(ctx, msg)
		default:
			log.Warn("dropping page message",
				zap.String("kind", string(msg.Kind)),
				zap.String("target", msg.Target),
				zap.String("method", string(msg.Method)))
			continue
		}
		if err == nil {
			continue
		}

		log.Warn("failed to route page message", zap.String("method", string(msg.Method)), zap.Error(err))
		if msg.Kind == KindCall {
			reply := &Message{
				Kind:      KindReply,
				ID:        msg.ID,
				From:      msg.Target,
				Method:    msg.Method,
				Exception: model.NewErrorResponse(err),
			}
			if err := transport.Send(ctx, reply); err != nil {
				return err
			}
		}
	}
}

// forwardToPage writes everything routed to the page's endpoint to the connection.
func forwardToPage(ctx context.Context, ep *Endpoint, transport *WebsocketTransport, log *zap.Logger) {
	keepalive := time.NewTicker(KeepAlive)
	defer keepalive.Stop()

	recv := make(chan *Message)
	go func() {
		defer close(recv)
		for {
			msg, err := ep.Recv(ctx)
			if err != nil {
				return
			}
			select {
			case recv <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			if err := transport.ping(); err != nil {
				log.Info("ping failed", zap.Error(err))
				return
			}
		case msg, ok := <-recv:
			if !ok {
				return
			}
			if err := transport.Send(ctx, msg); err != nil {
				log.Info("failed to write to page", zap.Error(err))
				return
			}
		}
	}
}
