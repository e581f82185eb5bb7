package records

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	dirPermissions  = 0750
	filePermissions = 0640
)

// CSVFiles names the file for each kind, relative to the sink directory.
type CSVFiles map[Kind]string

// DefaultCSVFiles are the standard log file names.
func DefaultCSVFiles() CSVFiles {
	return CSVFiles{
		KindSensor: "sensor_log.csv",
		KindVoice:  "voice_log.csv",
		KindAction: "action_log.csv",
	}
}

type csvFile struct {
	f          *os.File
	w          *csv.Writer
	needHeader bool
}

// CSVSink appends records to one CSV file per kind.
//
// A header row is written before the first record of each file, unless the
// file already had content when the sink was opened. One lock covers all
// files, so rows never interleave.
type CSVSink struct {
	mu     sync.Mutex
	files  map[Kind]*csvFile
	closed bool
}

// OpenCSVSink opens (creating if needed) the files under dir.
func OpenCSVSink(dir string, names CSVFiles) (*CSVSink, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating records directory: %w", err)
	}

	s := &CSVSink{files: make(map[Kind]*csvFile, len(names))}
	for kind, name := range names {
		if _, ok := schemas[kind]; !ok {
			s.Close()
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		path := filepath.Join(dir, name)

		hasContent := false
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			hasContent = true
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePermissions) //nolint:gosec // path from config
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		s.files[kind] = &csvFile{f: f, w: csv.NewWriter(f), needHeader: !hasContent}
	}
	return s, nil
}

// Write implements Sink. Kinds without a configured file are skipped.
func (s *CSVSink) Write(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	cf, ok := s.files[e.Record.Kind()]
	if !ok {
		return nil
	}

	if cf.needHeader {
		if err := cf.w.Write(Header(e.Record.Kind())); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		cf.needHeader = false
	}
	if err := cf.w.Write(e.Row()); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	cf.w.Flush()
	if err := cf.w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", cf.f.Name(), err)
	}
	return nil
}

// Close closes every file. Safe to call multiple times.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for _, cf := range s.files {
		cf.w.Flush()
		if err := cf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
