package render

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Scratch tracks every temp file a single render allocates so one deferred
// Close removes them all, whichever path the render exits through.
type Scratch struct {
	dir string

	mu    sync.Mutex
	paths []string
}

func NewScratch(tempDir string) *Scratch {
	return &Scratch{dir: tempDir}
}

// Path reserves a uniquely named file under the temp directory. The file is
// not created; the path is just registered for cleanup.
func (s *Scratch) Path(suffix string) string {
	p := filepath.Join(s.dir, fmt.Sprintf("%s%s", uuid.New().String(), suffix))
	s.Register(p)
	return p
}

// Register adds an externally created file to the cleanup list.
func (s *Scratch) Register(path string) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
}

// Close removes every registered path. Missing files are fine; anything else
// is logged and skipped.
func (s *Scratch) Close() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("[Render] failed to remove temp file %s: %v", p, err)
		}
	}
}
