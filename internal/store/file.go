package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileSessionStore writes one indented JSON document per session to
// {dir}/{id}.json. Documents are never overwritten.
type FileSessionStore struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewFileSessionStore(dir string, logger *zap.Logger) (*FileSessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileSessionStore{dir: dir, logger: logger}, nil
}

func (s *FileSessionStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

func (s *FileSessionStore) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	final := s.path(sess.ID)
	if _, err := os.Lstat(final); err == nil {
		return ErrConflict
	}

	tmp, err := os.CreateTemp(s.dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return os.Rename(tmp.Name(), final)
}

func (s *FileSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess.Stage = domain.StagePersisted
	return &sess, nil
}

// List scans the directory and returns the newest sessions first. Files that
// fail to decode are skipped.
func (s *FileSessionStore) List(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var out []domain.SessionSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("failed to read session file", zap.String("file", name), zap.Error(err))
			continue
		}
		var sum domain.SessionSummary
		if err := json.Unmarshal(data, &sum); err != nil {
			s.logger.Warn("skipping malformed session file", zap.String("file", name), zap.Error(err))
			continue
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
