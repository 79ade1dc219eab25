package world

import (
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strangerhq/stranger/internal/net/packet"
)

// Record is the last known state of one other participant.
type Record struct {
	ID          string
	DisplayName string
	Position    mgl64.Vec3
	HeadingY    float64
	ColorTag    string
	LastUpdate  time.Time
}

// Snapshot returns the wire form of the record (no timestamp).
func (r Record) Snapshot() packet.Snapshot {
	return packet.Snapshot{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		Position:    r.Position,
		HeadingY:    r.HeadingY,
		ColorTag:    r.ColorTag,
	}
}

// Presence holds one Record per other participant, in first-seen order.
// The local participant is never stored. Writes come from the tick loop;
// a renderer may read concurrently.
type Presence struct {
	mu         sync.RWMutex
	localID    string
	staleAfter time.Duration
	records    *orderedmap.OrderedMap[string, *Record]
	frozen     bool
}

func NewPresence(localID string, staleAfter time.Duration) *Presence {
	return &Presence{
		localID:    localID,
		staleAfter: staleAfter,
		records:    orderedmap.NewOrderedMap[string, *Record](),
	}
}

// Upsert creates or overwrites the record for snap.ID and stamps it with the
// local receipt time. Snapshots about the local participant, without an id,
// or arriving after Freeze are ignored. Reports whether a record was written.
func (p *Presence) Upsert(snap packet.Snapshot, now time.Time) bool {
	if snap.ID == "" || snap.ID == p.localID {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return false
	}
	if rec, ok := p.records.Get(snap.ID); ok {
		rec.DisplayName = snap.DisplayName
		rec.Position = snap.Position
		rec.HeadingY = snap.HeadingY
		rec.ColorTag = snap.ColorTag
		rec.LastUpdate = now
		return true
	}
	p.records.Set(snap.ID, &Record{
		ID:          snap.ID,
		DisplayName: snap.DisplayName,
		Position:    snap.Position,
		HeadingY:    snap.HeadingY,
		ColorTag:    snap.ColorTag,
		LastUpdate:  now,
	})
	return true
}

// Evict removes id. Reports whether it was present.
func (p *Presence) Evict(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return false
	}
	return p.records.Delete(id)
}

// Sweep removes every record whose age has reached the stale threshold and
// returns the removed ids in first-seen order.
func (p *Presence) Sweep(now time.Time) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return nil
	}
	var expired []string
	for el := p.records.Front(); el != nil; el = el.Next() {
		if p.stale(el.Value, now) {
			expired = append(expired, el.Key)
		}
	}
	for _, id := range expired {
		p.records.Delete(id)
	}
	return expired
}

// Get returns a copy of the record for id, stale or not.
func (p *Presence) Get(id string) (Record, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records.Get(id)
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Live returns copies of the records that are not yet stale at now, in
// first-seen order. An expired record is hidden even before the sweep runs.
func (p *Presence) Live(now time.Time) []Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Record, 0, p.records.Len())
	for el := p.records.Front(); el != nil; el = el.Next() {
		if !p.stale(el.Value, now) {
			out = append(out, *el.Value)
		}
	}
	return out
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.records.Len()
}

// Freeze rejects every later mutation. Reads keep working.
func (p *Presence) Freeze() {
	p.mu.Lock()
	p.frozen = true
	p.mu.Unlock()
}

func (p *Presence) Frozen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frozen
}

func (p *Presence) stale(rec *Record, now time.Time) bool {
	return now.Sub(rec.LastUpdate) >= p.staleAfter
}
