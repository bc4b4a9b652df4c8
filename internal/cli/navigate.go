package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/routing"
)

// Navigator is the part of the engine the load command drives.
type Navigator interface {
	Navigate(ctx context.Context, sessionID, path string) (*domain.Snapshot, error)
}

// SessionID picks the session a command works on: the flag, then the
// configured router ID, then "default".
func (a *App) SessionID(flag string) string {
	switch {
	case flag != "":
		return flag
	case a.Config.Router.ID != "":
		return a.Config.Router.ID
	}
	return "default"
}

// RunPaths navigates each path in order and prints the committed snapshot
// after every one. It stops at the first failure.
func RunPaths(ctx context.Context, nav Navigator, sessionID string, paths []string, out io.Writer) error {
	render := tui.NewRenderer(out)
	for _, p := range paths {
		snap, err := nav.Navigate(ctx, sessionID, p)
		if err != nil {
			return fmt.Errorf("navigate %q: %w", p, err)
		}
		if err := emit(out, render, tui.SnapshotMarkdown(snap)); err != nil {
			return err
		}
	}
	return nil
}

// RunInteractive reads one path per line from in until EOF, "exit" or
// "quit". Failed navigations are reported and the loop continues.
func RunInteractive(ctx context.Context, nav Navigator, sessionID string, in io.Reader, out io.Writer) error {
	render := tui.NewRenderer(out)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line, err := routing.SanitizePath(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, ">>> %s: %v\n", observability.Outcome(err), err)
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(out, "Bye!")
			return nil
		}

		snap, err := nav.Navigate(ctx, sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, ">>> %s: %v\n", observability.Outcome(err), err)
			continue
		}
		if err := emit(out, render, tui.SnapshotMarkdown(snap)); err != nil {
			return err
		}
	}
}

func emit(out io.Writer, render func(string) (string, error), md string) error {
	s, err := render(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, s)
	return err
}
