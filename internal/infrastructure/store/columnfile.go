package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// fileBufferSize amortizes write syscalls across many 4-byte records.
const fileBufferSize = 64 * 1024

// columnWriter owns one append-only buffered column file.
type columnWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer
}

func openColumnWriter(path string) (*columnWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open column file %s: %w", path, err)
	}
	return &columnWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriterSize(file, fileBufferSize),
	}, nil
}

func (w *columnWriter) append(cell [RecordWidth]byte) error {
	if _, err := w.buf.Write(cell[:]); err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	return nil
}

func (w *columnWriter) flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	return nil
}

func (w *columnWriter) close() error {
	flushErr := w.flush()
	closeErr := w.file.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("close %s: %w", w.path, closeErr)
	}
	return errors.Join(flushErr, closeErr)
}

// symbolFiles groups the per-date column writers of one symbol.
type symbolFiles struct {
	symbol  string
	writers [NumColumns]*columnWriter
}

func openSymbolFiles(root, symbol, dateSuffix string) (*symbolFiles, error) {
	dir := filepath.Join(root, symbol, "MD")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}

	files := &symbolFiles{symbol: symbol}
	for i, column := range Columns {
		path := filepath.Join(dir, fmt.Sprintf("%s.%s.bin", column, dateSuffix))
		writer, err := openColumnWriter(path)
		if err != nil {
			_ = files.close()
			return nil, err
		}
		files.writers[i] = writer
	}
	return files, nil
}

func (f *symbolFiles) append(record Record) error {
	for i, writer := range f.writers {
		if err := writer.append(record[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *symbolFiles) flush() error {
	var errs []error
	for _, writer := range f.writers {
		if writer == nil {
			continue
		}
		if err := writer.flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *symbolFiles) close() error {
	var errs []error
	for _, writer := range f.writers {
		if writer == nil {
			continue
		}
		if err := writer.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
