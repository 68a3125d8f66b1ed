// Package util provides utility functions for Oreline.
package util

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator provides thread-safe UUIDv7 generation with monotonic timestamps.
// Machine and crafting-process ids come from here so that saved games sort
// their records in creation order.
type IDGenerator struct {
	mu       sync.Mutex
	lastTime int64
	counter  uint16
	now      func() time.Time
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// NewID generates a new UUIDv7 identifier from this generator.
func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.now == nil {
		g.now = time.Now
	}
	now := g.now().UnixMilli()

	switch {
	case now > g.lastTime:
		g.lastTime = now
		g.counter = 0
	default:
		// Same millisecond (or the wall clock stepped back): keep ordering by
		// bumping the counter, and borrow the next millisecond on overflow.
		g.counter++
		if g.counter > 0x0FFF {
			g.counter = 0
			g.lastTime++
		}
	}

	return generateUUIDv7(g.lastTime, g.counter)
}

var defaultGenerator = NewIDGenerator()

// NewID generates a new UUIDv7 identifier from the package generator.
func NewID() string {
	return defaultGenerator.NewID()
}

// generateUUIDv7 creates a UUIDv7 from a timestamp and counter.
func generateUUIDv7(unixMilli int64, counter uint16) string {
	var id uuid.UUID

	// 48 bits of Unix milliseconds, big endian
	binary.BigEndian.PutUint32(id[0:4], uint32(unixMilli>>16))
	binary.BigEndian.PutUint16(id[4:6], uint16(unixMilli))

	// version 7 + 12 bits of counter
	id[6] = 0x70 | (byte(counter>>8) & 0x0F)
	id[7] = byte(counter)

	_, _ = rand.Read(id[8:])
	id[8] = (id[8] & 0x3F) | 0x80 // RFC 4122 variant

	return id.String()
}

// ShortID returns the first block of an id for compact display.
func ShortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}
