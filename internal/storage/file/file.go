package file

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/MikhailRaia/shortlinks/internal/storage/memory"
	"github.com/rs/zerolog/log"
)

// Storage is an in-memory keyspace backed by an append-only JSONL journal.
// Every mutation is written to the journal before it becomes visible, and the journal is
// replayed on open.
type Storage struct {
	*memory.Storage

	filePath string
	file     *os.File
	writer   *bufio.Writer
	mu       sync.Mutex

	needsNewline bool
}

// NewStorage opens (or creates) the journal at filePath and rebuilds state from it.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		Storage:  memory.NewStorage(),
		filePath: filePath,
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for writing: %w", err)
	}
	s.file = file
	s.writer = bufio.NewWriter(file)

	if s.needsNewline {
		if _, err := file.Write([]byte("\n")); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to terminate journal: %w", err)
		}
	}

	s.Storage.SetJournal(s)
	return s, nil
}

// loadFromFile replays the journal. A torn final entry, left by a crash mid-write, is cut
// off with a warning; a bad entry followed by more entries is corruption and fails the open.
func (s *Storage) loadFromFile() error {
	file, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	var (
		line     int
		goodEnd  int64
		offset   int64
		tornLine int
		tornErr  error

		goodNewline bool
	)
	for {
		data, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("error reading file: %w", readErr)
		}
		if len(data) == 0 {
			break
		}
		line++
		offset += int64(len(data))

		if tornErr != nil {
			return fmt.Errorf("failed to unmarshal journal line %d: %w", tornLine, tornErr)
		}

		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 {
			var m memory.Mutation
			if err := json.Unmarshal(trimmed, &m); err != nil {
				tornLine, tornErr = line, err
				continue
			}
			if err := s.Storage.Apply(m); err != nil {
				return fmt.Errorf("failed to replay journal line %d: %w", line, err)
			}
		}
		goodEnd = offset
		goodNewline = data[len(data)-1] == '\n'

		if errors.Is(readErr, io.EOF) {
			break
		}
	}

	if tornErr != nil {
		log.Warn().
			Err(tornErr).
			Str("path", s.filePath).
			Int("line", tornLine).
			Msg("Dropping incomplete journal entry")
		if err := os.Truncate(s.filePath, goodEnd); err != nil {
			return fmt.Errorf("failed to truncate journal: %w", err)
		}
	}
	s.needsNewline = goodEnd > 0 && !goodNewline

	log.Debug().Str("path", s.filePath).Int("entries", line).Msg("Journal replayed")
	return nil
}

// Append writes one mutation and flushes it to the file.
func (s *Storage) Append(m memory.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mutation: %w", err)
	}

	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}

	return nil
}

// Close flushes and closes the journal.
func (s *Storage) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Error().Err(err).Str("path", s.filePath).Msg("Failed to flush journal")
	}
	if err := s.file.Close(); err != nil {
		log.Error().Err(err).Str("path", s.filePath).Msg("Failed to close journal")
	}
	s.file = nil
}
