package transport

import (
	"context"
	"sync"
)

// Directory maps room codes to the address of the hub hosting them.
type Directory interface {
	// Register claims code for addr, failing with ErrCodeTaken on collision.
	Register(ctx context.Context, code, addr string) error
	// Lookup fails with ErrSessionNotFound for unknown codes.
	Lookup(ctx context.Context, code string) (string, error)
	// Refresh extends a registration that expires.
	Refresh(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

// StaticDirectory points every code at one hub; the hub itself rejects codes
// it does not own. It is how guests join on a LAN without a registry.
type StaticDirectory struct {
	Addr string
}

func (d StaticDirectory) Register(context.Context, string, string) error { return nil }

func (d StaticDirectory) Lookup(context.Context, string) (string, error) {
	if d.Addr == "" {
		return "", ErrSessionNotFound
	}
	return d.Addr, nil
}

func (d StaticDirectory) Refresh(context.Context, string) error { return nil }

func (d StaticDirectory) Release(context.Context, string) error { return nil }

// MemoryDirectory is an in-process registry, shared by hubs in one process.
type MemoryDirectory struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{m: make(map[string]string)}
}

func (d *MemoryDirectory) Register(_ context.Context, code, addr string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.m[code]; ok {
		return ErrCodeTaken
	}
	d.m[code] = addr
	return nil
}

func (d *MemoryDirectory) Lookup(_ context.Context, code string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr, ok := d.m[code]
	if !ok {
		return "", ErrSessionNotFound
	}
	return addr, nil
}

func (d *MemoryDirectory) Refresh(context.Context, string) error { return nil }

func (d *MemoryDirectory) Release(_ context.Context, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, code)
	return nil
}
