package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// session owns the per-run scratch space. Every run gets a fresh
// directory; nothing survives across runs.
type session struct {
	id  string
	dir string
}

func newSession(workDir string) (*session, error) {
	id := uuid.NewString()
	dir := filepath.Join(workDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	return &session{id: id, dir: dir}, nil
}

func (s *session) cleanup() {
	_ = os.RemoveAll(s.dir)
}
