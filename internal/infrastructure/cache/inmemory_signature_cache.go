package cache

import (
	"context"
	"sync"
	"time"

	"github.com/campus/docgen/internal/domain/document"
)

// sessionEntry holds the images of one session
type sessionEntry struct {
	images    map[string]document.InlinedImage
	expiresAt time.Time
}

// InMemorySignatureCache keeps inlined signatures in process memory. It suits
// single-instance deployments and tests.
type InMemorySignatureCache struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySignatureCache creates the cache. A session expires ttl after
// its last write; expired sessions are swept every cleanupInterval.
func NewInMemorySignatureCache(ttl, cleanupInterval time.Duration) *InMemorySignatureCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	c := &InMemorySignatureCache{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop(cleanupInterval)

	return c
}

// Get implements document.SignatureCache
func (c *InMemorySignatureCache) Get(_ context.Context, sessionID, assetID string) (document.InlinedImage, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sessions[sessionID]
	if !ok || time.Now().After(s.expiresAt) {
		return document.InlinedImage{}, false, nil
	}
	img, ok := s.images[assetID]
	return img, ok, nil
}

// Set implements document.SignatureCache
func (c *InMemorySignatureCache) Set(_ context.Context, sessionID, assetID string, img document.InlinedImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok || time.Now().After(s.expiresAt) {
		s = &sessionEntry{images: make(map[string]document.InlinedImage)}
		c.sessions[sessionID] = s
	}
	s.images[assetID] = img
	s.expiresAt = time.Now().Add(c.ttl)
	return nil
}

// Clear implements document.SignatureCache
func (c *InMemorySignatureCache) Clear(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemorySignatureCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemorySignatureCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
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

func (c *InMemorySignatureCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, s := range c.sessions {
		if now.After(s.expiresAt) {
			delete(c.sessions, id)
		}
	}
}

// Sessions returns the number of live sessions
func (c *InMemorySignatureCache) Sessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

var _ document.SignatureCache = (*InMemorySignatureCache)(nil)
