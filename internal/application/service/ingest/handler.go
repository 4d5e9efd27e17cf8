package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	marketdata "main/internal/domain/entity/marketdata"
	interfaces "main/internal/domain/interfaces"
	"main/internal/infrastructure/metrics"
)

const (
	defaultFlushInterval       = 5 * time.Second
	defaultMaxBufferedTicks    = 10000
	defaultBaseReconnectDelay  = time.Second
	defaultMaxReconnectDelay   = 60 * time.Second
	defaultRotateCheckInterval = 3 * time.Second

	sessionChanBuffer = 512
)

// Options tunes a connection handler's flush policy and backoff.
type Options struct {
	FlushInterval       time.Duration
	MaxBufferedTicks    int
	BaseReconnectDelay  time.Duration
	MaxReconnectDelay   time.Duration
	RotateCheckInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.FlushInterval <= 0 {
		o.FlushInterval = defaultFlushInterval
	}
	if o.MaxBufferedTicks <= 0 {
		o.MaxBufferedTicks = defaultMaxBufferedTicks
	}
	if o.BaseReconnectDelay <= 0 {
		o.BaseReconnectDelay = defaultBaseReconnectDelay
	}
	if o.MaxReconnectDelay <= 0 {
		o.MaxReconnectDelay = defaultMaxReconnectDelay
	}
	if o.RotateCheckInterval <= 0 {
		o.RotateCheckInterval = defaultRotateCheckInterval
	}
	return o
}

// Handler owns one feed connection subscribed to a fixed symbol group, the
// ordering buffer for its in-flight ticks, and the column files they land in.
// The receive loop and the flush path run on the same goroutine, so a stalled
// disk delays only this connection's reads.
type Handler struct {
	id      int
	symbols []string
	feed    interfaces.TickFeed
	store   interfaces.TickStore
	buffer  *Buffer
	opts    Options
	logger  *logrus.Entry
	metrics *metrics.Metrics
	label   string

	delay     time.Duration
	lastFlush time.Time
	streaming bool
}

// NewHandler wires a handler for one symbol group. The symbol set is fixed
// for the handler's lifetime.
func NewHandler(id int, symbols []string, feed interfaces.TickFeed, store interfaces.TickStore, opts Options, logger *logrus.Logger, m *metrics.Metrics) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		id:      id,
		symbols: symbols,
		feed:    feed,
		store:   store,
		buffer:  NewBuffer(),
		opts:    opts,
		logger:  logger.WithField("connection", id),
		metrics: m,
		label:   strconv.Itoa(id),
		delay:   opts.BaseReconnectDelay,
	}
}

// Run cycles the connection state machine until ctx ends: connect, subscribe,
// stream, and on any transport failure back off and reconnect. Buffered ticks
// are flushed best-effort before every reconnect and on shutdown.
func (h *Handler) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		err := h.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.logger.WithError(err).Warn("feed session ended")
		}
		h.metrics.ReconnectsTotal.WithLabelValues(h.label).Inc()

		h.logger.WithField("delay", h.delay.String()).Info("waiting before reconnect")
		select {
		case <-ctx.Done():
			return
		case <-time.After(h.delay):
		}
		h.delay = nextDelay(h.delay, h.opts.MaxReconnectDelay)
	}
}

// nextDelay doubles the reconnect delay up to the cap, producing the bounded
// sequence 1, 2, 4, 8, 16, 32, 60, 60, ... for the defaults.
func nextDelay(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		next = limit
	}
	return next
}

func (h *Handler) session(ctx context.Context) error {
	h.streaming = false

	sess, err := h.feed.Open(ctx, h.symbols)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer sess.Close()
	h.logger.WithField("symbols", len(h.symbols)).Info("subscribed to feed")

	type readResult struct {
		tick *marketdata.Tick
		err  error
	}
	results := make(chan readResult, sessionChanBuffer)
	go func() {
		for {
			tick, err := sess.Next()
			select {
			case results <- readResult{tick: tick, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil && !errors.Is(err, interfaces.ErrMalformedUpdate) {
				return
			}
		}
	}()

	flushTicker := time.NewTicker(h.opts.FlushInterval)
	defer flushTicker.Stop()
	rotateTicker := time.NewTicker(h.opts.RotateCheckInterval)
	defer rotateTicker.Stop()
	h.lastFlush = time.Now()

	for {
		select {
		case <-ctx.Done():
			h.flushBuffer()
			return ctx.Err()

		case res := <-results:
			if res.err != nil {
				if errors.Is(res.err, interfaces.ErrMalformedUpdate) {
					h.metrics.MessagesTotal.WithLabelValues(h.label).Inc()
					h.metrics.ParseErrorsTotal.WithLabelValues(h.label).Inc()
					h.logger.WithError(res.err).Debug("dropped malformed update")
					continue
				}
				h.flushBuffer()
				return res.err
			}
			h.metrics.MessagesTotal.WithLabelValues(h.label).Inc()
			h.markStreaming()
			if res.tick == nil {
				continue
			}
			h.buffer.Insert(*res.tick)
			h.metrics.BufferSize.WithLabelValues(h.label).Set(float64(h.buffer.Len()))
			if h.buffer.Len() >= h.opts.MaxBufferedTicks {
				h.flushBuffer()
				// Restart the interval clock so the next time-based flush
				// lands within one interval of this one.
				flushTicker.Reset(h.opts.FlushInterval)
			}

		case <-flushTicker.C:
			if h.shouldFlush(time.Now()) {
				h.flushBuffer()
				flushTicker.Reset(h.opts.FlushInterval)
			}

		case <-rotateTicker.C:
			h.rotateIfNeeded(time.Now())
		}
	}
}

// markStreaming records the first subscription ack or data message of a
// session and resets the backoff delay to its base value.
func (h *Handler) markStreaming() {
	if h.streaming {
		return
	}
	h.streaming = true
	h.delay = h.opts.BaseReconnectDelay
	h.logger.Info("streaming")
}

// shouldFlush applies the dual threshold: buffered count or elapsed time,
// whichever trips first.
func (h *Handler) shouldFlush(now time.Time) bool {
	if h.buffer.Len() >= h.opts.MaxBufferedTicks {
		return true
	}
	return now.Sub(h.lastFlush) >= h.opts.FlushInterval
}

// flushBuffer drains the ordering buffer in ascending key order into the
// column files. An I/O failure on one symbol skips that symbol for the rest
// of the cycle; other symbols keep writing.
func (h *Handler) flushBuffer() {
	ticks := h.buffer.Drain()
	h.metrics.BufferSize.WithLabelValues(h.label).Set(0)
	if len(ticks) == 0 {
		h.lastFlush = time.Now()
		return
	}

	written := 0
	failed := make(map[string]struct{})
	for i := range ticks {
		if _, skip := failed[ticks[i].Symbol]; skip {
			continue
		}
		if err := h.store.Append(&ticks[i]); err != nil {
			h.logger.WithError(err).WithField("symbol", ticks[i].Symbol).Warn("append failed, symbol skipped this cycle")
			failed[ticks[i].Symbol] = struct{}{}
			continue
		}
		written++
	}
	if err := h.store.Flush(); err != nil {
		h.logger.WithError(err).Warn("column file flush failed")
	}

	h.lastFlush = time.Now()
	h.metrics.FlushesTotal.WithLabelValues(h.label).Inc()
	h.metrics.RecordsWrittenTotal.WithLabelValues(h.label).Add(float64(written))
	h.metrics.LastFlushUnix.WithLabelValues(h.label).Set(float64(h.lastFlush.Unix()))
	h.logger.WithFields(logrus.Fields{
		"records":         written,
		"skipped_symbols": len(failed),
	}).Debug("flushed ordering buffer")
}

// rotateIfNeeded runs on a fixed cadence independent of message arrival, so
// the date boundary is honored even on quiet connections. Buffered ticks are
// flushed into the old date's files before their handles close.
func (h *Handler) rotateIfNeeded(now time.Time) {
	if !h.store.DateChanged(now) {
		return
	}
	h.flushBuffer()
	if err := h.store.Rotate(now); err != nil {
		h.logger.WithError(err).Warn("rotation failed")
		return
	}
	h.logger.WithField("date", now.Format("2006-01-02")).Info("rotated column files")
}

func (h *Handler) shutdown() {
	h.flushBuffer()
	if err := h.store.Close(); err != nil {
		h.logger.WithError(err).Warn("closing column files failed")
	}
}
