package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryReferenceCache keeps POS reference lists in process memory.
// Values are stored JSON-encoded so callers never share slices.
type MemoryReferenceCache struct {
	ttl       time.Duration
	now       func() time.Time
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryReferenceCache creates the cache and starts a background sweeper
func NewMemoryReferenceCache(ttl time.Duration) *MemoryReferenceCache {
	c := &MemoryReferenceCache{
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

func memoryKey(posAccountID uuid.UUID, kind pos.ReferenceKind) string {
	return posAccountID.String() + ":" + string(kind)
}

// Get implements pos.ReferenceCache
func (c *MemoryReferenceCache) Get(ctx context.Context, posAccountID uuid.UUID, kind pos.ReferenceKind, dest any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[memoryKey(posAccountID, kind)]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.payload, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", kind, err)
	}
	return true, nil
}

// Set implements pos.ReferenceCache
func (c *MemoryReferenceCache) Set(ctx context.Context, posAccountID uuid.UUID, kind pos.ReferenceKind, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memoryKey(posAccountID, kind)] = entry{
		payload:   payload,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate implements pos.ReferenceCache
func (c *MemoryReferenceCache) Invalidate(ctx context.Context, posAccountID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, memoryKey(posAccountID, pos.ReferenceAccounts))
	delete(c.entries, memoryKey(posAccountID, pos.ReferenceCategories))
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (c *MemoryReferenceCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of stored entries, expired ones included
func (c *MemoryReferenceCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryReferenceCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *MemoryReferenceCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

var _ pos.ReferenceCache = (*MemoryReferenceCache)(nil)
