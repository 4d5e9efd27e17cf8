package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	marketdata "main/internal/domain/entity/marketdata"
	interfaces "main/internal/domain/interfaces"
)

const (
	DefaultFeedURL     = "wss://ws-feed.exchange.coinbase.com"
	DefaultProductsURL = "https://api.exchange.coinbase.com/products"

	// The feed multiplexes many symbols per connection; a burst of ticker
	// frames can coalesce into large messages.
	maxMessageSize = 64 << 20

	// One outbound subscribe frame names every assigned symbol, so the
	// write buffer is sized generously rather than per message.
	writeBufferSize = 256 * 1024

	defaultHandshakeTimeout = 15 * time.Second
	subscribeTimeout        = 10 * time.Second
)

// Config carries the endpoints and timeouts of the Coinbase exchange feed.
type Config struct {
	FeedURL          string
	ProductsURL      string
	HandshakeTimeout time.Duration

	// AckTimeout bounds the wait for the first inbound message after the
	// subscribe write. A feed that accepts the dial and then goes silent
	// fails the session instead of parking it.
	AckTimeout time.Duration
}

// Client dials the Coinbase WebSocket feed and serves one-shot catalog
// queries against its products endpoint.
type Client struct {
	cfg        Config
	dialer     *websocket.Dialer
	httpClient *http.Client
	logger     *logrus.Logger
}

var (
	_ interfaces.TickFeed     = (*Client)(nil)
	_ interfaces.SymbolSource = (*Client)(nil)
)

// NewClient prepares a client; zero-valued config fields fall back to the
// public Coinbase endpoints.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.FeedURL == "" {
		cfg.FeedURL = DefaultFeedURL
	}
	if cfg.ProductsURL == "" {
		cfg.ProductsURL = DefaultProductsURL
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = subscribeTimeout
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			WriteBufferSize:  writeBufferSize,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Open dials the feed and subscribes to the ticker channel for all given
// symbols in one request.
func (c *Client) Open(ctx context.Context, symbols []string) (interfaces.TickSession, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.FeedURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.FeedURL, err)
	}
	conn.SetReadLimit(maxMessageSize)

	sub := subscribeRequest{
		Type: "subscribe",
		Channels: []channelRequest{
			{Name: "ticker", ProductIDs: symbols},
		},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(subscribeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %d symbols: %w", len(symbols), err)
	}
	_ = conn.SetWriteDeadline(time.Time{})

	// The subscription ack must arrive within the ack window; afterwards the
	// feed may legitimately go quiet for long stretches.
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.AckTimeout))

	return &session{conn: conn}, nil
}

type session struct {
	conn  *websocket.Conn
	acked bool
}

// Next reads one inbound feed message. Control messages (subscription acks,
// heartbeats, non-text frames) come back as (nil, nil); messages that fail to
// parse come back wrapping interfaces.ErrMalformedUpdate. A missed
// subscription ack surfaces as a transport error.
func (s *session) Next() (*marketdata.Tick, error) {
	msgType, data, err := s.conn.ReadMessage()
	if err != nil {
		if !s.acked {
			return nil, fmt.Errorf("await subscription ack: %w", err)
		}
		return nil, fmt.Errorf("read feed message: %w", err)
	}
	if !s.acked {
		s.acked = true
		_ = s.conn.SetReadDeadline(time.Time{})
	}
	if msgType != websocket.TextMessage {
		return nil, nil
	}
	return ParseMessage(data)
}

func (s *session) Close() error {
	return s.conn.Close()
}
