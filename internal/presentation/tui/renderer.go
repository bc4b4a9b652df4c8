package tui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/routing"
)

// NewRenderer returns a function that renders markdown using glamour.
// Output that is not a terminal gets the markdown unchanged.
func NewRenderer(w io.Writer) func(string) (string, error) {
	if !IsTerminal(w) {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(width(w)),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func width(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	return 80
}

// RoutesMarkdown renders a route listing as a markdown table.
func RoutesMarkdown(routes []routing.RouteInfo) string {
	var sb strings.Builder
	sb.WriteString("| Path | Component | Viewport | Kind |\n|---|---|---|---|\n")
	for _, r := range routes {
		path := r.Path
		if path == "" {
			path = "*(default)*"
		}
		kind := "configured"
		if !r.Configured {
			kind = "dependency"
		}
		if r.Recursive {
			kind += ", recursive"
		}
		indent := strings.Repeat("&nbsp;&nbsp;", r.Depth)
		sb.WriteString(fmt.Sprintf("| %s`%s` | %s | %s | %s |\n", indent, path, r.Component, r.Viewport, kind))
	}
	return sb.String()
}

// SnapshotMarkdown renders a committed snapshot: its path and the viewport occupants.
func SnapshotMarkdown(snap *domain.Snapshot) string {
	if snap == nil {
		return "*no navigation committed*\n"
	}
	var sb strings.Builder
	path := snap.Path
	if path == "" {
		path = "/"
	}
	sb.WriteString(fmt.Sprintf("## %s `%s`\n\n", snap.RouterID, path))
	for _, vp := range snap.Viewports {
		sb.WriteString(fmt.Sprintf("- **%s@%s**: %s #%d", vp.Owner, vp.Name, vp.Component, vp.InstanceID))
		if len(vp.Params) > 0 {
			keys := make([]string, 0, len(vp.Params))
			for k := range vp.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, len(keys))
			for i, k := range keys {
				pairs[i] = k + "=" + vp.Params[k]
			}
			sb.WriteString(" (" + strings.Join(pairs, ", ") + ")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
