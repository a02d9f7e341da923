package desktop

import "deedles.dev/ximage/geom"

// A DamageRecord is one accumulated damage request. Whole-surface records
// cover the surface's full box; incremental ones cover only the area the
// client reported damaged.
type DamageRecord struct {
	Box   geom.Rect[float64]
	Whole bool
}

// A Region accumulates output-local damage for the next frame.
type Region struct {
	records []DamageRecord
}

func (r *Region) Add(b geom.Rect[float64], whole bool) {
	if b.Empty() && !whole {
		return
	}
	r.records = append(r.records, DamageRecord{Box: b, Whole: whole})
}

// Records returns the accumulated damage since the last Take.
func (r *Region) Records() []DamageRecord {
	return r.records
}

// Bounds returns the union of all accumulated damage.
func (r *Region) Bounds() geom.Rect[float64] {
	var b geom.Rect[float64]
	for _, rec := range r.records {
		b = b.Union(rec.Box)
	}
	return b
}

func (r *Region) Empty() bool {
	return len(r.records) == 0
}

// Take returns the accumulated damage and resets the region, ready for the
// next frame.
func (r *Region) Take() []DamageRecord {
	records := r.records
	r.records = nil
	return records
}
