package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rbright/intervu/internal/session"
)

const (
	queueSize     = 64
	redialBackoff = 2 * time.Second
)

// Publisher streams session events to a live hub. Observe never blocks the session loop.
type Publisher struct {
	base   *url.URL
	dialer *websocket.Dialer
	logger *slog.Logger

	queue chan session.Event
	once  sync.Once
	done  chan struct{}

	conn       *websocket.Conn
	lastDialAt time.Time
}

// NewPublisher targets the hub under baseURL (http, https, ws or wss).
func NewPublisher(baseURL string, logger *slog.Logger) (*Publisher, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse live url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported live url scheme %q", u.Scheme)
	}
	u.Path += "/v1/live"

	return &Publisher{
		base:   u,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		logger: logger,
		queue:  make(chan session.Event, queueSize),
		done:   make(chan struct{}),
	}, nil
}

// Start runs the writer until ctx is done or Close is called.
func (p *Publisher) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Publisher) Observe(ev session.Event) {
	select {
	case p.queue <- ev:
	default:
		p.logDebug("live queue full; dropping event", "type", ev.Type)
	}
}

// Close flushes queued events and waits for the writer to exit.
func (p *Publisher) Close() {
	p.once.Do(func() { close(p.queue) })
	<-p.done
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.done)
	defer func() {
		if p.conn != nil {
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = p.conn.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.queue:
			if !ok {
				return
			}
			p.send(ctx, ev)
		}
	}
}

func (p *Publisher) send(ctx context.Context, ev session.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logDebug("encode live event", "error", err.Error())
		return
	}

	if p.conn == nil {
		if !p.lastDialAt.IsZero() && time.Since(p.lastDialAt) < redialBackoff {
			return
		}
		p.lastDialAt = time.Now()
		conn, _, err := p.dialer.DialContext(ctx, p.endpoint(ev.Session), nil)
		if err != nil {
			p.logDebug("dial live hub", "error", err.Error())
			return
		}
		p.conn = conn
		go discardReads(conn)
	}

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		p.logDebug("write live event", "error", err.Error())
		_ = p.conn.Close()
		p.conn = nil
	}
}

// discardReads services control frames so hub pings get answered.
func discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (p *Publisher) endpoint(sessionID string) string {
	u := *p.base
	u.RawQuery = url.Values{"session": {sessionID}, "role": {RolePublisher}}.Encode()
	return u.String()
}

func (p *Publisher) logDebug(msg string, attrs ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, attrs...)
}
