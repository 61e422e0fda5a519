package engine

import (
	"testing"
	"time"

	"cpdetect/assert"
)

func TestDebouncer_FiresOnceAfterDelay(t *testing.T) {
	clock := newMockClock()
	var fired []uint64
	d := NewDebouncer(clock, time.Second, func(gen uint64) { fired = append(fired, gen) })

	gen := d.Schedule()
	clock.Advance(999 * time.Millisecond)
	assert.Len(t, 0, fired, "not yet due")

	clock.Advance(time.Millisecond)
	assert.Len(t, 1, fired, "due")
	assert.Equal(t, gen, fired[0], "fired generation")

	assert.True(t, d.Claim(gen), "first claim")
	assert.False(t, d.Claim(gen), "second claim")
	assert.False(t, d.Pending(), "pending after claim")
}

func TestDebouncer_RescheduleSupersedes(t *testing.T) {
	clock := newMockClock()
	var fired []uint64
	d := NewDebouncer(clock, time.Second, func(gen uint64) { fired = append(fired, gen) })

	first := d.Schedule()
	clock.Advance(600 * time.Millisecond)
	second := d.Schedule()
	clock.Advance(600 * time.Millisecond)
	assert.Len(t, 0, fired, "first timer cancelled, second not due")

	clock.Advance(400 * time.Millisecond)
	assert.Len(t, 1, fired, "only the latest fires")
	assert.Equal(t, second, fired[0], "latest generation")
	assert.False(t, d.Claim(first), "stale generation")
	assert.True(t, d.Claim(second), "latest generation claims")
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := newMockClock()
	fired := 0
	d := NewDebouncer(clock, time.Second, func(uint64) { fired++ })

	assert.False(t, d.Cancel(), "nothing to cancel")

	gen := d.Schedule()
	assert.True(t, d.Pending(), "armed")
	assert.True(t, d.Cancel(), "cancel armed")
	clock.Advance(2 * time.Second)

	assert.Equal(t, 0, fired, "cancelled timer never fires")
	assert.False(t, d.Claim(gen), "cancelled generation")
}

func TestDebouncer_LateFireAfterReschedule(t *testing.T) {
	clock := newMockClock()
	d := NewDebouncer(clock, time.Second, func(uint64) {})

	// A fire already queued when Schedule runs again must not claim
	stale := d.Schedule()
	latest := d.Schedule()

	assert.NotEqual(t, stale, latest, "generations differ")
	assert.False(t, d.Claim(stale), "late stale fire")
	assert.True(t, d.Pending(), "latest still armed")
	assert.Equal(t, 1, clock.armed(), "one live timer")
}
