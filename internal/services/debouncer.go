package services

import (
	"context"
	"sync"
	"time"
)

// Commit applies fn only if the scheduled call is still the latest for its key.
// It reports whether fn ran. fn must not call back into the Debouncer.
type Commit func(fn func()) bool

type debounceSlot struct {
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// Debouncer delays work per key until no new Schedule arrived for the delay.
// Scheduling again, or calling Cancel, supersedes the previous call for that
// key: a pending timer is stopped, an in-flight call has its context cancelled,
// and its Commit becomes a no-op. Keys are independent. A key is forgotten once
// its last call has finished or been cancelled.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	slots map[string]*debounceSlot
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay: delay,
		slots: make(map[string]*debounceSlot),
	}
}

func (d *Debouncer) supersede(key string) *debounceSlot {
	slot, ok := d.slots[key]
	if !ok {
		slot = &debounceSlot{}
		d.slots[key] = slot
	}

	slot.seq++
	if slot.timer != nil {
		slot.timer.Stop()
		slot.timer = nil
	}
	if slot.cancel != nil {
		slot.cancel()
		slot.cancel = nil
	}
	return slot
}

// Schedule runs fn after the debounce delay unless superseded first.
func (d *Debouncer) Schedule(key string, fn func(ctx context.Context, commit Commit)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot := d.supersede(key)
	seq := slot.seq

	slot.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if slot.seq != seq {
			d.mu.Unlock()
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		slot.timer = nil
		slot.cancel = cancel
		d.mu.Unlock()

		defer cancel()
		fn(ctx, func(apply func()) bool {
			d.mu.Lock()
			defer d.mu.Unlock()
			if slot.seq != seq {
				return false
			}
			slot.cancel = nil
			apply()
			return true
		})

		d.mu.Lock()
		if slot.seq == seq && d.slots[key] == slot {
			delete(d.slots, key)
		}
		d.mu.Unlock()
	})
}

// Pending reports how many keys have a scheduled or running call.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.slots)
}

// Cancel supersedes any pending or in-flight call for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.slots[key]; !ok {
		return
	}
	d.supersede(key)
	delete(d.slots, key)
}

// Stop supersedes every key.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.slots {
		d.supersede(key)
	}
	clear(d.slots)
}
