package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	interfaces "main/internal/domain/interfaces"
	"main/internal/infrastructure/metrics"
)

// defaultSymbolsPerConnection sizes the pool when no explicit connection
// count is configured.
const defaultSymbolsPerConnection = 20

// ErrNoSymbols is returned when discovery produced nothing to ingest.
var ErrNoSymbols = errors.New("no symbols to ingest")

// StoreFactory builds the column file store owned by one connection handler.
type StoreFactory func(connectionID int) (interfaces.TickStore, error)

// Partition splits symbols into contiguous, disjoint, non-empty groups whose
// sizes differ by at most one. The split is deterministic for a given input
// order.
func Partition(symbols []string, groups int) [][]string {
	if len(symbols) == 0 {
		return nil
	}
	if groups <= 0 {
		groups = 1
	}
	if groups > len(symbols) {
		groups = len(symbols)
	}

	out := make([][]string, 0, groups)
	base := len(symbols) / groups
	extra := len(symbols) % groups
	start := 0
	for i := 0; i < groups; i++ {
		size := base
		if i < extra {
			size++
		}
		out = append(out, symbols[start:start+size])
		start += size
	}
	return out
}

// Pool partitions the symbol universe across a bounded number of connection
// handlers and keeps each symbol group supervised for the process lifetime.
type Pool struct {
	feed     interfaces.TickFeed
	newStore StoreFactory
	opts     Options
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

func NewPool(feed interfaces.TickFeed, newStore StoreFactory, opts Options, logger *logrus.Logger, m *metrics.Metrics) *Pool {
	return &Pool{
		feed:     feed,
		newStore: newStore,
		opts:     opts.withDefaults(),
		logger:   logger,
		metrics:  m,
	}
}

// Run starts one handler goroutine per symbol group, all at once: there is no
// per-connection-creation rate limit upstream, only per-message volume, which
// the ordering buffers absorb. Run blocks until ctx ends.
func (p *Pool) Run(ctx context.Context, symbols []string, connections int) error {
	if len(symbols) == 0 {
		return ErrNoSymbols
	}
	if connections <= 0 {
		connections = (len(symbols) + defaultSymbolsPerConnection - 1) / defaultSymbolsPerConnection
	}
	groups := Partition(symbols, connections)

	p.logger.WithFields(logrus.Fields{
		"symbols":     len(symbols),
		"connections": len(groups),
	}).Info("starting connection pool")

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			p.supervise(gctx, i, group)
			return nil
		})
	}
	return g.Wait()
}

// supervise restarts a symbol group under a fresh handler when construction
// fails; the other groups are unaffected.
func (p *Pool) supervise(ctx context.Context, id int, symbols []string) {
	log := p.logger.WithField("connection", id)
	for ctx.Err() == nil {
		tickStore, err := p.newStore(id)
		if err != nil {
			log.WithError(err).Error("handler construction failed, restarting symbol group")
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.opts.BaseReconnectDelay):
			}
			continue
		}

		NewHandler(id, symbols, p.feed, tickStore, p.opts, p.logger, p.metrics).Run(ctx)
	}
}
