package capture

import (
	"sync"
	"sync/atomic"
	"time"
)

// Supplier fans frames out to viewers through single-slot mailboxes.
// Publish never blocks; a viewer that has not consumed its previous frame
// gets it overwritten and the drop is counted.
type Supplier struct {
	slots    sync.Map // viewerID -> *viewerSlot
	latest   atomic.Pointer[Frame]
	stopping atomic.Bool
	drops    atomic.Uint64
}

type viewerSlot struct {
	mu    sync.Mutex
	cond  *sync.Cond
	frame *Frame

	lastConsumedAt  time.Time
	lastConsumedSeq uint64
	totalDrops      uint64

	closed bool
}

// ViewerStats tracks per-viewer delivery
type ViewerStats struct {
	ViewerID        string    `json:"viewer_id"`
	LastConsumedAt  time.Time `json:"last_consumed_at"`
	LastConsumedSeq uint64    `json:"last_consumed_seq"`
	TotalDrops      uint64    `json:"total_drops"`
}

// SupplierStats is a snapshot of supplier state
type SupplierStats struct {
	Viewers    int           `json:"viewers"`
	TotalDrops uint64        `json:"total_drops"`
	PerViewer  []ViewerStats `json:"per_viewer"`
}

func NewSupplier() *Supplier {
	return &Supplier{}
}

// Publish hands frame to every subscribed viewer
func (s *Supplier) Publish(frame *Frame) {
	if s.stopping.Load() {
		return
	}
	s.latest.Store(frame)

	s.slots.Range(func(_, v any) bool {
		slot := v.(*viewerSlot)
		slot.mu.Lock()
		if !slot.closed {
			if slot.frame != nil {
				slot.totalDrops++
				s.drops.Add(1)
			}
			slot.frame = frame
			slot.cond.Signal()
		}
		slot.mu.Unlock()
		return true
	})
}

// Latest returns the most recently published frame, or nil
func (s *Supplier) Latest() *Frame {
	return s.latest.Load()
}

// Subscribe registers a viewer. read blocks until a frame is available and
// returns nil once the viewer is unsubscribed or the supplier stops.
func (s *Supplier) Subscribe(viewerID string) (read func() *Frame, unsubscribe func()) {
	if s.stopping.Load() {
		return func() *Frame { return nil }, func() {}
	}

	slot := &viewerSlot{lastConsumedAt: time.Now()}
	slot.cond = sync.NewCond(&slot.mu)
	s.slots.Store(viewerID, slot)

	// a Stop that ran between the check above and Store never saw this slot
	if s.stopping.Load() {
		closeSlot(slot)
		s.slots.CompareAndDelete(viewerID, slot)
	}

	read = func() *Frame {
		slot.mu.Lock()
		defer slot.mu.Unlock()

		for slot.frame == nil && !slot.closed {
			slot.cond.Wait()
		}
		if slot.closed {
			return nil
		}

		frame := slot.frame
		slot.frame = nil
		slot.lastConsumedAt = time.Now()
		slot.lastConsumedSeq = frame.Seq
		return frame
	}

	unsubscribe = func() {
		closeSlot(slot)
		s.slots.CompareAndDelete(viewerID, slot)
	}

	return read, unsubscribe
}

// Stop wakes every viewer; subsequent reads return nil
func (s *Supplier) Stop() {
	if s.stopping.Swap(true) {
		return
	}
	s.slots.Range(func(k, v any) bool {
		closeSlot(v.(*viewerSlot))
		s.slots.Delete(k)
		return true
	})
}

func (s *Supplier) Stats() SupplierStats {
	stats := SupplierStats{TotalDrops: s.drops.Load()}
	s.slots.Range(func(k, v any) bool {
		slot := v.(*viewerSlot)
		slot.mu.Lock()
		stats.PerViewer = append(stats.PerViewer, ViewerStats{
			ViewerID:        k.(string),
			LastConsumedAt:  slot.lastConsumedAt,
			LastConsumedSeq: slot.lastConsumedSeq,
			TotalDrops:      slot.totalDrops,
		})
		slot.mu.Unlock()
		return true
	})
	stats.Viewers = len(stats.PerViewer)
	return stats
}

func closeSlot(slot *viewerSlot) {
	slot.mu.Lock()
	slot.closed = true
	slot.cond.Broadcast()
	slot.mu.Unlock()
}
