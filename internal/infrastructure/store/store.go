package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	marketdata "main/internal/domain/entity/marketdata"
)

// Store owns the column files of one connection's symbols for the current
// calendar date. It is not safe for concurrent use: each connection handler
// owns exactly one Store and never shares it.
type Store struct {
	root   string
	date   string
	files  map[string]*symbolFiles
	logger *logrus.Entry
}

// DateSuffix renders the calendar date the way file names carry it: DD.MM.YY.
func DateSuffix(now time.Time) string {
	return now.Format("02.01.06")
}

// NewStore prepares a store rooted at root. Column files open lazily on the
// first append for each symbol.
func NewStore(root string, now time.Time, logger *logrus.Entry) (*Store, error) {
	if root == "" {
		return nil, errors.New("data root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data root %s: %w", root, err)
	}
	return &Store{
		root:   root,
		date:   DateSuffix(now),
		files:  make(map[string]*symbolFiles),
		logger: logger,
	}, nil
}

// Append encodes one tick and writes its 7 cells through the symbol's
// buffered column writers, opening them on first use.
func (s *Store) Append(tick *marketdata.Tick) error {
	files, ok := s.files[tick.Symbol]
	if !ok {
		opened, err := openSymbolFiles(s.root, tick.Symbol, s.date)
		if err != nil {
			return err
		}
		s.files[tick.Symbol] = opened
		files = opened
	}
	return files.append(Encode(tick))
}

// Flush forces buffered bytes of every open column file to disk. An I/O
// failure on one symbol is logged and does not stop the others.
func (s *Store) Flush() error {
	var errs []error
	for symbol, files := range s.files {
		if err := files.flush(); err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Warn("flush failed, symbol skipped this cycle")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DateChanged reports whether now falls on a different calendar date than
// the files currently open.
func (s *Store) DateChanged(now time.Time) bool {
	return DateSuffix(now) != s.date
}

// Rotate flushes and closes the current date's files and retargets the store
// at now's date. Files for the new date open lazily on the next append, so
// quiet symbols cost nothing. No-op when the date has not changed.
func (s *Store) Rotate(now time.Time) error {
	suffix := DateSuffix(now)
	if suffix == s.date {
		return nil
	}

	var errs []error
	for symbol, files := range s.files {
		if err := files.close(); err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Warn("closing rotated files failed")
			errs = append(errs, err)
		}
	}
	s.files = make(map[string]*symbolFiles)
	s.date = suffix
	return errors.Join(errs...)
}

// Close flushes and closes every open column file.
func (s *Store) Close() error {
	var errs []error
	for _, files := range s.files {
		if err := files.close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.files = nil
	return errors.Join(errs...)
}
