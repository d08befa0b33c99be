package app

import (
	"context"
	"os"
	"sync"

	"github.com/vitals-dev/vitals/domain"
)

// ModuleProvider serves resolved module files to the scan pipeline.
// The file list is replaced before each scan and read concurrently by
// API handlers, so access is guarded.
type ModuleProvider struct {
	mu    sync.RWMutex
	files []string
}

// NewModuleProvider creates an empty module provider
func NewModuleProvider() *ModuleProvider {
	return &ModuleProvider{}
}

// SetFiles replaces the module list served to subsequent scans
func (p *ModuleProvider) SetFiles(files []string) {
	copied := make([]string, len(files))
	copy(copied, files)

	p.mu.Lock()
	p.files = copied
	p.mu.Unlock()
}

// Paths returns the module paths in a stable order
func (p *ModuleProvider) Paths() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	copied := make([]string, len(p.files))
	copy(copied, p.files)
	return copied
}

// Fetch loads the content of a single module from disk
func (p *ModuleProvider) Fetch(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", domain.NewModuleReadError(path, err)
	}
	return string(content), nil
}

// Ensure ModuleProvider implements the interface
var _ domain.ModuleSourceProvider = (*ModuleProvider)(nil)
