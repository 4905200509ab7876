package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/prompt"
)

// promptYesNo asks a yes/no question and returns the user's choice.
// defaultYes controls the result when the user provides an empty response.
func promptYesNo(in io.Reader, out io.Writer, question string, defaultYes bool) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		format := messages.PromptNoDefaultFmt
		if defaultYes {
			format = messages.PromptYesDefaultFmt
		}
		if _, err := fmt.Fprintf(out, format, question); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		response := strings.ToLower(strings.TrimSpace(line))
		switch response {
		case "":
			if err == nil {
				return defaultYes, nil
			}
			return false, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
	}
}

// interactiveDecider resolves the engine's decision points through prompt.UI.
// A cancelled prompt maps to the conservative choice: abort the conflict,
// keep the failed run's state.
type interactiveDecider struct {
	ui prompt.UI
}

func (d *interactiveDecider) ResolveCheckpointConflict(prior checkpoint.Checkpoint, pkgFrom string, pkgTo string) (apply.ConflictChoice, error) {
	options := []string{
		messages.ConflictOptionRollback,
		messages.ConflictOptionDiscard,
		messages.ConflictOptionAbort,
	}
	choice := messages.ConflictOptionAbort
	if err := d.ui.Select(messages.ConflictPromptTitle, options, &choice); err != nil {
		if errors.Is(err, prompt.ErrCancelled) {
			return apply.ConflictAbort, nil
		}
		return apply.ConflictAbort, err
	}
	switch choice {
	case messages.ConflictOptionRollback:
		return apply.ConflictRollback, nil
	case messages.ConflictOptionDiscard:
		return apply.ConflictDiscard, nil
	default:
		return apply.ConflictAbort, nil
	}
}

func (d *interactiveDecider) ResolveFailedRun(lastError string) (apply.FailureChoice, error) {
	rollback := false
	if err := d.ui.Confirm(messages.FailedRunRollbackPrompt, &rollback); err != nil {
		if errors.Is(err, prompt.ErrCancelled) {
			return apply.FailureKeep, nil
		}
		return apply.FailureKeep, err
	}
	if rollback {
		return apply.FailureRollback, nil
	}
	return apply.FailureKeep, nil
}
