package middleware_test

import (
	"github.com/aretw0/arbor/pkg/adapters/memory"
)

// NewMockStore returns an in-memory store standing in for a real backend.
func NewMockStore() *memory.Store {
	return memory.NewStore()
}
