package util

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClockRunning is returned by operations that require a paused clock.
var ErrClockRunning = errors.New("clock is running; pause first")

// GameClock manages simulated game time.
//
// One simulated second is one production tick. The clock can run faster or
// slower than real time and can be paused; while paused, time only moves via
// Advance or SetTime, which is what tests and headless runs rely on.
type GameClock struct {
	mu sync.Mutex

	// epoch is game time zero; Elapsed is measured from here.
	epoch time.Time

	// startRealTime is when the clock last (re)started in real time.
	startRealTime time.Time

	// startGameTime is the game time when the clock last (re)started.
	startGameTime time.Time

	// timeScale is the ratio of game time to real time.
	timeScale float64

	paused   bool
	pausedAt time.Time

	realNow func() time.Time
}

// NewGameClock creates a running clock whose current time is epoch.
func NewGameClock(epoch time.Time, timeScale float64) *GameClock {
	return &GameClock{
		epoch:         epoch,
		startRealTime: time.Now(),
		startGameTime: epoch,
		timeScale:     timeScale,
		realNow:       time.Now,
	}
}

// Now returns the current game time.
func (c *GameClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowLocked()
}

func (c *GameClock) nowLocked() time.Time {
	if c.paused {
		return c.pausedAt
	}
	realElapsed := c.realNow().Sub(c.startRealTime)
	return c.startGameTime.Add(time.Duration(float64(realElapsed) * c.timeScale))
}

// Epoch returns game time zero.
func (c *GameClock) Epoch() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Elapsed returns the game time elapsed since the epoch.
func (c *GameClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowLocked().Sub(c.epoch)
}

// Pause stops time progression.
func (c *GameClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		c.pausedAt = c.nowLocked()
		c.paused = true
	}
}

// Resume continues time progression from the paused instant.
func (c *GameClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.startRealTime = c.realNow()
		c.startGameTime = c.pausedAt
		c.paused = false
	}
}

// IsPaused returns true if the clock is paused.
func (c *GameClock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// SetTimeScale changes the time scaling factor without jumping game time.
func (c *GameClock) SetTimeScale(scale float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.nowLocked()
	c.startRealTime = c.realNow()
	c.startGameTime = current
	c.timeScale = scale
	if c.paused {
		c.pausedAt = current
	}
}

// TimeScale returns the current time scale.
func (c *GameClock) TimeScale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeScale
}

// Advance manually advances game time by the given duration.
// Only works when paused.
func (c *GameClock) Advance(d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return ErrClockRunning
	}
	c.pausedAt = c.pausedAt.Add(d)
	return nil
}

// SetTime sets the game time to a specific instant.
// Only works when paused.
func (c *GameClock) SetTime(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return ErrClockRunning
	}
	c.pausedAt = t
	return nil
}

// SetEpoch moves game time zero. Used when restoring a saved game.
func (c *GameClock) SetEpoch(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = t
}

// FormatElapsed renders a duration as H:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// FormatSeconds renders a duration in seconds with one decimal place.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
