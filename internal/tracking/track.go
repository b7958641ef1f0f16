package tracking

import (
	"fmt"
	"math"
	"sort"
)

// Track is the ordered position history of exactly one entity.
// FrameIDs are unique and strictly increasing. A Track is immutable once
// built; accessors hand out copies.
type Track struct {
	entityID string
	samples  []Sample
}

// NewTrack builds a Track for entityID from samples in any order.
// Samples are sorted by FrameID; when a FrameID repeats, the last
// occurrence in input order wins. Samples with an empty EntityID are
// attributed to entityID.
func NewTrack(entityID string, samples []Sample) (Track, error) {
	if entityID == "" {
		return Track{}, ErrEmptyEntityID
	}

	sorted := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.EntityID == "" {
			s.EntityID = entityID
		}
		if s.EntityID != entityID {
			return Track{}, fmt.Errorf("track %q got sample for %q: %w", entityID, s.EntityID, ErrMixedEntities)
		}
		sorted = append(sorted, s.clone())
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FrameID < sorted[j].FrameID
	})

	deduped := sorted[:0]
	for _, s := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].FrameID == s.FrameID {
			deduped[n-1] = s
			continue
		}
		deduped = append(deduped, s)
	}

	return Track{entityID: entityID, samples: deduped}, nil
}

// EntityID returns the id of the tracked entity.
func (t Track) EntityID() string { return t.entityID }

// Len returns the number of samples.
func (t Track) Len() int { return len(t.samples) }

// At returns the i'th sample in FrameID order.
func (t Track) At(i int) Sample { return t.samples[i].clone() }

// Samples returns a copy of the samples in FrameID order.
func (t Track) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	for i, s := range t.samples {
		out[i] = s.clone()
	}
	return out
}

// Interpolable returns ErrInsufficientSamples when the track cannot be
// interpolated.
func (t Track) Interpolable() error {
	if len(t.samples) < 2 {
		return fmt.Errorf("track %q has %d sample(s), need at least 2: %w",
			t.entityID, len(t.samples), ErrInsufficientSamples)
	}
	return nil
}

// FrameSpan returns the first and last FrameID. ok is false for an empty track.
func (t Track) FrameSpan() (first, last int64, ok bool) {
	if len(t.samples) == 0 {
		return 0, 0, false
	}
	return t.samples[0].FrameID, t.samples[len(t.samples)-1].FrameID, true
}

// TimeSpan returns the earliest and latest Timestamp. Timestamps are not
// required to follow FrameID order, so both ends are scanned.
func (t Track) TimeSpan() (first, last float64, ok bool) {
	if len(t.samples) == 0 {
		return 0, 0, false
	}
	first, last = math.Inf(1), math.Inf(-1)
	for _, s := range t.samples {
		first = math.Min(first, s.Timestamp)
		last = math.Max(last, s.Timestamp)
	}
	return first, last, true
}
