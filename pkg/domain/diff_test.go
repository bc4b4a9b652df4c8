package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	root := ViewportState{Owner: "root", Name: "default", Component: "a01", InstanceID: 2, Path: "a"}
	child := ViewportState{Owner: "a01", Name: "default", Component: "b01", InstanceID: 3, Path: "b"}

	tests := []struct {
		name        string
		old         *Snapshot
		new         *Snapshot
		wantNil     bool
		wantPath    string
		wantEntered []string
		wantVacated []string
	}{
		{
			name:        "Initial Load (Old is Nil)",
			old:         nil,
			new:         &Snapshot{RouterID: "r", Path: "a", Viewports: []ViewportState{root}},
			wantPath:    "a",
			wantEntered: []string{"a01"},
		},
		{
			name:    "No Changes",
			old:     &Snapshot{RouterID: "r", Path: "a", Viewports: []ViewportState{root}},
			new:     &Snapshot{RouterID: "r", Path: "a", Viewports: []ViewportState{root}},
			wantNil: true,
		},
		{
			name:        "Child Added",
			old:         &Snapshot{RouterID: "r", Path: "a", Viewports: []ViewportState{root}},
			new:         &Snapshot{RouterID: "r", Path: "a/b", Viewports: []ViewportState{root, child}},
			wantPath:    "a/b",
			wantEntered: []string{"b01"},
		},
		{
			name:        "Child Removed",
			old:         &Snapshot{RouterID: "r", Path: "a/b", Viewports: []ViewportState{root, child}},
			new:         &Snapshot{RouterID: "r", Path: "a", Viewports: []ViewportState{root}},
			wantPath:    "a",
			wantVacated: []string{"b01"},
		},
		{
			name: "Params Changed Reenters",
			old: &Snapshot{RouterID: "r", Path: "a", Viewports: []ViewportState{
				{Owner: "root", Name: "default", Component: "a01", InstanceID: 2, Params: map[string]string{"id": "1"}},
			}},
			new: &Snapshot{RouterID: "r", Path: "a", Viewports: []ViewportState{
				{Owner: "root", Name: "default", Component: "a01", InstanceID: 2, Params: map[string]string{"id": "2"}},
			}},
			wantEntered: []string{"a01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Expected nil diff, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Expected diff, got nil")
			}
			if tt.wantPath != "" {
				if got.Path == nil || *got.Path != tt.wantPath {
					t.Errorf("Expected path %q, got %v", tt.wantPath, got.Path)
				}
			}
			if names := componentNames(got.Entered); strings.Join(names, ",") != strings.Join(tt.wantEntered, ",") {
				t.Errorf("Expected entered %v, got %v", tt.wantEntered, names)
			}
			if names := componentNames(got.Vacated); strings.Join(names, ",") != strings.Join(tt.wantVacated, ",") {
				t.Errorf("Expected vacated %v, got %v", tt.wantVacated, names)
			}
		})
	}
}

func TestDiff_JSON(t *testing.T) {
	diff := Diff(nil, &Snapshot{RouterID: "r", Path: "a"})
	data, err := json.Marshal(diff)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"path":"a"`) {
		t.Errorf("Expected path in JSON, got %s", data)
	}
	if strings.Contains(string(data), "vacated") {
		t.Errorf("Expected vacated to be omitted, got %s", data)
	}
}

func componentNames(vps []ViewportState) []string {
	var names []string
	for _, vp := range vps {
		names = append(names, vp.Component)
	}
	return names
}
