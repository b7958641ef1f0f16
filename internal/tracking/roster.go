package tracking

import (
	"fmt"
	"sort"
)

// Roster is the set of tracks for one group (team) in the active window.
// It never contains the ball.
type Roster struct {
	group  string
	tracks map[string]Track
}

// NewRoster splits samples per entity and builds one Track each.
func NewRoster(group string, samples []Sample) (Roster, error) {
	byEntity := make(map[string][]Sample)
	for _, s := range samples {
		if s.IsBall() {
			return Roster{}, fmt.Errorf("roster %q: %w", group, ErrBallInRoster)
		}
		if s.EntityID == "" {
			return Roster{}, fmt.Errorf("roster %q: %w", group, ErrEmptyEntityID)
		}
		byEntity[s.EntityID] = append(byEntity[s.EntityID], s)
	}

	tracks := make(map[string]Track, len(byEntity))
	for id, ss := range byEntity {
		tr, err := NewTrack(id, ss)
		if err != nil {
			return Roster{}, fmt.Errorf("roster %q: %w", group, err)
		}
		tracks[id] = tr
	}
	return Roster{group: group, tracks: tracks}, nil
}

// Group returns the roster's group (team) id.
func (r Roster) Group() string { return r.group }

// Len returns the number of entities.
func (r Roster) Len() int { return len(r.tracks) }

// EntityIDs returns the entity ids in sorted order.
func (r Roster) EntityIDs() []string {
	ids := make([]string, 0, len(r.tracks))
	for id := range r.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Track returns the track for id.
func (r Roster) Track(id string) (Track, bool) {
	t, ok := r.tracks[id]
	return t, ok
}

// Window is the immutable snapshot a playback session is built from: the
// ball track plus the two team rosters for one viewed time range.
type Window struct {
	MatchID string
	Ball    Track
	Home    Roster
	Away    Roster
}
