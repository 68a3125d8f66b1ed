package util

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIDGenerator_Monotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := &IDGenerator{now: func() time.Time { return fixed }}

	prev := g.NewID()
	for range 100 {
		id := g.NewID()
		if id <= prev {
			t.Fatalf("NewID() = %s, want greater than %s", id, prev)
		}
		prev = id
	}
}

func TestIDGenerator_ClockStepsBack(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	g := &IDGenerator{now: func() time.Time { return now }}

	first := g.NewID()
	now = now.Add(-time.Second)
	second := g.NewID()

	if second <= first {
		t.Errorf("id after clock step back = %s, want greater than %s", second, first)
	}
}

func TestIDGenerator_CounterOverflow(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := &IDGenerator{now: func() time.Time { return fixed }}

	prev := g.NewID()
	for range 0x1000 + 5 {
		id := g.NewID()
		if id <= prev {
			t.Fatalf("ordering lost after counter overflow: %s <= %s", id, prev)
		}
		prev = id
	}
	if g.lastTime != fixed.UnixMilli()+1 {
		t.Errorf("lastTime = %d, want borrowed millisecond %d", g.lastTime, fixed.UnixMilli()+1)
	}
}

func TestNewID_Format(t *testing.T) {
	id := NewID()

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("NewID() = %q, not a valid UUID: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("Version() = %d, want 7", parsed.Version())
	}
	if v := id[19]; !strings.ContainsRune("89ab", rune(v)) {
		t.Errorf("variant nibble = %c, want one of 89ab", v)
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0190a5b2-7c3d-7e4f-8a1b-2c3d4e5f6a7b", "0190a5b2"},
		{"node-1", "node-1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ShortID(tt.input); got != tt.want {
			t.Errorf("ShortID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
