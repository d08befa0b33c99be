package service

import (
	"sync"

	"github.com/vitals-dev/vitals/domain"
)

// ScanVersionerImpl issues monotonically increasing scan versions.
// Safe for concurrent use.
type ScanVersionerImpl struct {
	mu      sync.Mutex
	version int
}

// NewScanVersioner creates a versioner starting before the first version
func NewScanVersioner() *ScanVersionerImpl {
	return &ScanVersionerImpl{}
}

// Next advances the version counter and returns the new value
func (v *ScanVersionerImpl) Next() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.version++
	return v.version
}

// Current returns the version without advancing it
func (v *ScanVersionerImpl) Current() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Invalidate burns the current version so no future scan can repeat it.
// A fresh analysis after Invalidate always carries a fingerprint distinct
// from every previously published one.
func (v *ScanVersionerImpl) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.version++
}

// Compile-time interface check
var _ domain.ScanVersioner = (*ScanVersionerImpl)(nil)
