package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/prompt"
)

func TestPromptYesNo(t *testing.T) {
	cases := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"yes\n", false, true},
		{"n\n", true, false},
		{"no\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\nyes\n", false, true},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got, err := promptYesNo(strings.NewReader(tc.input), &out, "Proceed?", tc.defaultYes)
		if err != nil {
			t.Fatalf("promptYesNo(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("promptYesNo(%q, default=%v) = %v, want %v", tc.input, tc.defaultYes, got, tc.want)
		}
	}
}

func TestPromptYesNoEOFIsNo(t *testing.T) {
	var out bytes.Buffer
	got, err := promptYesNo(strings.NewReader(""), &out, "Proceed?", true)
	if err != nil {
		t.Fatalf("promptYesNo: %v", err)
	}
	if got {
		t.Fatal("EOF must decline")
	}
}

// selectUI answers every Select with a fixed option and every Confirm with a
// fixed bool.
type selectUI struct {
	selection string
	confirm   bool
	err       error
}

func (ui *selectUI) Select(title string, options []string, value *string) error {
	if ui.err != nil {
		return ui.err
	}
	*value = ui.selection
	return nil
}

func (ui *selectUI) Confirm(title string, value *bool) error {
	if ui.err != nil {
		return ui.err
	}
	*value = ui.confirm
	return nil
}

func TestInteractiveDeciderConflictChoices(t *testing.T) {
	prior := *checkpoint.New("4.1", "4.2", time.Now())
	cases := []struct {
		selection string
		want      apply.ConflictChoice
	}{
		{messages.ConflictOptionRollback, apply.ConflictRollback},
		{messages.ConflictOptionDiscard, apply.ConflictDiscard},
		{messages.ConflictOptionAbort, apply.ConflictAbort},
	}
	for _, tc := range cases {
		decider := &interactiveDecider{ui: &selectUI{selection: tc.selection}}
		got, err := decider.ResolveCheckpointConflict(prior, "4.2", "4.3")
		if err != nil {
			t.Fatalf("resolve conflict: %v", err)
		}
		if got != tc.want {
			t.Fatalf("choice for %q = %v, want %v", tc.selection, got, tc.want)
		}
	}
}

func TestInteractiveDeciderCancelledPromptAborts(t *testing.T) {
	prior := *checkpoint.New("4.1", "4.2", time.Now())
	decider := &interactiveDecider{ui: &selectUI{err: prompt.ErrCancelled}}
	got, err := decider.ResolveCheckpointConflict(prior, "4.2", "4.3")
	if err != nil {
		t.Fatalf("resolve conflict: %v", err)
	}
	if got != apply.ConflictAbort {
		t.Fatalf("cancelled prompt = %v, want abort", got)
	}

	failure, err := decider.ResolveFailedRun("boom")
	if err != nil {
		t.Fatalf("resolve failed run: %v", err)
	}
	if failure != apply.FailureKeep {
		t.Fatalf("cancelled prompt = %v, want keep", failure)
	}
}

func TestInteractiveDeciderFailedRun(t *testing.T) {
	decider := &interactiveDecider{ui: &selectUI{confirm: true}}
	got, err := decider.ResolveFailedRun("boom")
	if err != nil {
		t.Fatalf("resolve failed run: %v", err)
	}
	if got != apply.FailureRollback {
		t.Fatalf("choice = %v, want rollback", got)
	}
}
