package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Processed-set bounds: once more than ProcessedCeiling IDs are stored, only the
// newest ProcessedKeep survive.
const (
	ProcessedCeiling = 100
	ProcessedKeep    = 50
)

const processedDelim = "|"

// ProcessedFile is a models.ProcessedSet stored as "|1|2|3|" in a text file.
// Writes go through a temp file and a rename so readers never see a torn file.
type ProcessedFile struct {
	path  string
	mutex sync.Mutex
}

// NewProcessedFile creates a processed set backed by path. The file is created
// on first write.
func NewProcessedFile(path string) *ProcessedFile {
	return &ProcessedFile{path: path}
}

func (p *ProcessedFile) read() (string, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read processed file: %w", err)
	}
	return string(data), nil
}

// HasProcessed reports whether postID was marked. "|12|" never matches "|123|".
func (p *ProcessedFile) HasProcessed(_ context.Context, postID int64) (bool, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	data, err := p.read()
	if err != nil {
		return false, err
	}
	return strings.Contains(data, processedDelim+strconv.FormatInt(postID, 10)+processedDelim), nil
}

// MarkProcessed appends postID, trimming the set when it grows past the ceiling.
func (p *ProcessedFile) MarkProcessed(_ context.Context, postID int64) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	data, err := p.read()
	if err != nil {
		return err
	}
	ids := append(splitProcessed(data), strconv.FormatInt(postID, 10))
	if len(ids) > ProcessedCeiling {
		ids = ids[len(ids)-ProcessedKeep:]
	}
	return p.write(processedDelim + strings.Join(ids, processedDelim) + processedDelim)
}

// IDs returns the stored IDs, oldest first.
func (p *ProcessedFile) IDs(_ context.Context) ([]int64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	data, err := p.read()
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, s := range splitProcessed(data) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt processed entry %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *ProcessedFile) write(contents string) error {
	// Ensure the directory exists.
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write processed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write processed file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to replace processed file: %w", err)
	}
	return nil
}

// splitProcessed tolerates the "|1||2|" layout older installs wrote.
func splitProcessed(data string) []string {
	var ids []string
	for _, s := range strings.Split(data, processedDelim) {
		if s = strings.TrimSpace(s); s != "" {
			ids = append(ids, s)
		}
	}
	return ids
}
