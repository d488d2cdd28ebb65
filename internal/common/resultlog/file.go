package resultlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

const maxLineBytes = 4 << 20

// FileStore appends newline-delimited JSON to a single file. Each append
// opens, writes one complete line and closes the file; the advisory lock keeps
// lines from separate processes whole.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Append(_ context.Context, entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock log file: %w", err)
	}
	defer s.lock.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write log line: %w", err)
	}
	return f.Close()
}

// Recent scans the file and keeps the last n lines. Lines that fail to parse
// or run past maxLineBytes are skipped, so fewer than n entries may come back.
func (s *FileStore) Recent(_ context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	lines := make([][]byte, 0, n)
	reader := bufio.NewReaderSize(f, 64*1024)
	for {
		raw, oversized, err := readLine(reader)
		if raw = bytes.TrimSpace(raw); !oversized && len(raw) > 0 {
			if len(lines) == n {
				lines = lines[1:]
			}
			lines = append(lines, raw)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read log file: %w", err)
		}
	}

	entries := make([]Entry, 0, len(lines))
	for _, raw := range lines {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readLine returns the next line including its newline. A line longer than
// maxLineBytes is consumed up to its newline and reported as oversized with a
// nil body.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	oversized := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > maxLineBytes+1 {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, oversized, err
	}
}
