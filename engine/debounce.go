package engine

import "time"

// Debouncer is a cancellable scheduled task. Every Schedule supersedes the
// previous one, and Claim accepts exactly one fire for the latest schedule.
//
// Schedule, Cancel and Claim must be called from a single goroutine (the event
// loop). The timer callback only forwards its generation to fire.
type Debouncer struct {
	clock Clock
	delay time.Duration
	fire  func(gen uint64)

	timer Timer
	gen   uint64
	armed bool
}

func NewDebouncer(clock Clock, delay time.Duration, fire func(gen uint64)) *Debouncer {
	return &Debouncer{
		clock: clock,
		delay: delay,
		fire:  fire,
	}
}

// Schedule cancels any outstanding task and arms a new one. It returns the
// generation the timer will fire with.
func (d *Debouncer) Schedule() uint64 {
	d.Cancel()
	d.gen++
	gen := d.gen
	fire := d.fire
	d.armed = true
	d.timer = d.clock.AfterFunc(d.delay, func() {
		fire(gen)
	})
	return gen
}

// Cancel stops the outstanding task. Returns true if one was pending.
func (d *Debouncer) Cancel() bool {
	if !d.armed {
		return false
	}
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return true
}

// Claim consumes the pending task if gen is the latest generation.
// A superseded, cancelled or already claimed fire returns false.
func (d *Debouncer) Claim(gen uint64) bool {
	if !d.armed || gen != d.gen {
		return false
	}
	d.armed = false
	d.timer = nil
	return true
}

// Pending reports whether a task is armed and not yet claimed.
func (d *Debouncer) Pending() bool {
	return d.armed
}
