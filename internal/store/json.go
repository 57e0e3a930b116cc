package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matdaan/vicore/internal/models"
)

const attemptsFileName = "attempts.jsonl"

// JSONStore keeps the chain as one JSON file per block plus a JSON-lines
// attempt log. Suitable for single-node deployments and audits.
type JSONStore struct {
	blockDir string

	mu       sync.Mutex
	attempts *os.File
}

func NewJSONStore(dir string) (*JSONStore, error) {
	blockDir := filepath.Join(dir, "blocks")

	if err := os.MkdirAll(blockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blocks directory: %w", err)
	}

	attempts, err := os.OpenFile(filepath.Join(dir, attemptsFileName), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open attempt log: %w", err)
	}

	return &JSONStore{
		blockDir: blockDir,
		attempts: attempts,
	}, nil
}

func (s *JSONStore) WriteBlock(_ context.Context, block *models.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to encode block %d: %w", block.Index, err)
	}

	fileName := fmt.Sprintf("block_%010d.json", block.Index)
	filePath := filepath.Join(s.blockDir, fileName)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write block %d: %w", block.Index, err)
	}

	return nil
}

func (s *JSONStore) LoadChain(_ context.Context) ([]models.Block, error) {
	entries, err := os.ReadDir(s.blockDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocks directory: %w", err)
	}

	var blocks []models.Block
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "block_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.blockDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		var block models.Block
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		blocks = append(blocks, block)
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Index < blocks[j].Index })

	return blocks, nil
}

func (s *JSONStore) WriteAttempt(_ context.Context, attempt *models.VerificationAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to encode attempt: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.attempts.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append attempt: %w", err)
	}

	return nil
}

func (s *JSONStore) CountRecentFailures(_ context.Context, voterID string, since time.Time) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.attempts.Seek(0, 0); err != nil {
		return 0, fmt.Errorf("failed to rewind attempt log: %w", err)
	}

	var count uint
	scanner := bufio.NewScanner(s.attempts)
	for scanner.Scan() {
		var attempt models.VerificationAttempt
		if err := json.Unmarshal(scanner.Bytes(), &attempt); err != nil {
			return 0, fmt.Errorf("corrupt attempt log entry: %w", err)
		}
		if attempt.VoterID == voterID && attempt.Outcome.Failed() && !attempt.Timestamp.Before(since) {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan attempt log: %w", err)
	}

	if _, err := s.attempts.Seek(0, 2); err != nil {
		return 0, fmt.Errorf("failed to restore attempt log position: %w", err)
	}

	return count, nil
}

func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts.Close()
}
