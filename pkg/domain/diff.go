package domain

import (
	"reflect"
)

// SnapshotDiff represents the changes between two navigation snapshots.
// It is designed to be serialized to JSON for partial updates on a client.
type SnapshotDiff struct {
	// RouterID is always present to identify the target.
	RouterID string `json:"router_id"`

	// Path is set when the committed path changed.
	Path *string `json:"path,omitempty"`

	// Entered lists viewports whose occupant is new or was reloaded with other params.
	Entered []ViewportState `json:"entered,omitempty"`

	// Vacated lists viewports that were occupied before and are no longer present.
	Vacated []ViewportState `json:"vacated,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, every viewport of newSnap counts as entered.
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{RouterID: newSnap.RouterID}

	if oldSnap == nil || oldSnap.Path != newSnap.Path {
		diff.Path = &newSnap.Path
	}

	previous := indexViewports(oldSnap)
	current := indexViewports(newSnap)

	for _, vp := range newSnap.Viewports {
		old, ok := previous[viewportKey(vp)]
		if !ok || old.InstanceID != vp.InstanceID || !reflect.DeepEqual(old.Params, vp.Params) {
			diff.Entered = append(diff.Entered, vp)
		}
	}
	if oldSnap != nil {
		for _, vp := range oldSnap.Viewports {
			if _, ok := current[viewportKey(vp)]; !ok {
				diff.Vacated = append(diff.Vacated, vp)
			}
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func viewportKey(vp ViewportState) string {
	return vp.Owner + "@" + vp.Name
}

func indexViewports(s *Snapshot) map[string]ViewportState {
	idx := make(map[string]ViewportState)
	if s == nil {
		return idx
	}
	for _, vp := range s.Viewports {
		idx[viewportKey(vp)] = vp
	}
	return idx
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Path == nil && len(d.Entered) == 0 && len(d.Vacated) == 0
}
