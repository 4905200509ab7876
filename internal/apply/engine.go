package apply

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/conn-castle/patchup/internal/backup"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/pkgfile"
)

// ProgressEvent describes the engine's position in a run. Index counts from
// zero over the full manifest; BytesDone/BytesTotal track the current entry.
type ProgressEvent struct {
	Path       string
	State      pkgfile.State
	Index      int
	Total      int
	BytesDone  int64
	BytesTotal int64
}

// Options configures an Engine. InstallRoot, Package, Store, and Vault are
// required; System, Appliers, and Now default to production implementations.
type Options struct {
	InstallRoot string
	Package     *pkgfile.Package
	Store       *checkpoint.Store
	Vault       *backup.Vault
	Appliers    map[string]DeltaApplier
	System      System
	Progress    func(ProgressEvent)
	WarnWriter  io.Writer
	Now         func() time.Time
}

// Engine drives a checkpointed run over the package's ordered entries. It is
// strictly sequential; the checkpoint is persisted after every entry, so a
// crash at any point resumes at the interrupted entry.
type Engine struct {
	opts      Options
	processor *Processor
}

// NewEngine validates options and builds an engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.InstallRoot == "" {
		return nil, errors.New(messages.ApplyRootRequired)
	}
	if opts.System == nil {
		opts.System = RealSystem{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WarnWriter == nil {
		opts.WarnWriter = io.Discard
	}
	processor := NewProcessor(opts.InstallRoot, opts.Package, opts.Vault, opts.Appliers, opts.System)
	return &Engine{opts: opts, processor: processor}, nil
}

// Prepare reconciles any prior checkpoint with the package and returns the
// record the run should proceed from. A completed prior run clears old state
// and starts fresh. A matching incomplete run resumes. A mismatched incomplete
// run is a conflict resolved through the decider; an abort returns
// ErrCheckpointConflict with nothing touched.
func (e *Engine) Prepare(decider Decider) (*checkpoint.Checkpoint, error) {
	manifest := e.opts.Package.Manifest()
	prior := e.opts.Store.Load()
	if prior == nil {
		return checkpoint.New(manifest.FromVersion, manifest.ToVersion, e.opts.Now()), nil
	}
	if prior.IsCompleted {
		fmt.Fprint(e.opts.WarnWriter, messages.EngineFreshAfterCompleted)
		if err := e.opts.Vault.Clear(); err != nil {
			return nil, err
		}
		if err := e.opts.Store.Clear(); err != nil {
			return nil, err
		}
		return checkpoint.New(manifest.FromVersion, manifest.ToVersion, e.opts.Now()), nil
	}
	if prior.Matches(manifest.FromVersion, manifest.ToVersion) {
		fmt.Fprintf(e.opts.WarnWriter, messages.EngineResumingFmt, prior.CurrentIndex+1, len(manifest.Entries))
		return prior, nil
	}

	fmt.Fprintf(e.opts.WarnWriter, messages.ConflictDetectedFmt,
		prior.FromVersion, prior.ToVersion, manifest.FromVersion, manifest.ToVersion)
	choice, err := decider.ResolveCheckpointConflict(*prior, manifest.FromVersion, manifest.ToVersion)
	if err != nil {
		return nil, err
	}
	switch choice {
	case ConflictRollback:
		if err := GlobalRollback(e.opts.Vault, e.opts.InstallRoot, e.opts.Store); err != nil && !errors.Is(err, ErrNothingToRollback) {
			return nil, err
		}
		if err := e.opts.Vault.Clear(); err != nil {
			return nil, err
		}
	case ConflictDiscard:
		if err := e.opts.Store.Clear(); err != nil {
			return nil, err
		}
		if err := e.opts.Vault.Clear(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: %w", messages.ConflictAborted, ErrCheckpointConflict)
	}
	return checkpoint.New(manifest.FromVersion, manifest.ToVersion, e.opts.Now()), nil
}

// Run processes entries from cp.CurrentIndex to the end. On an entry failure
// the checkpoint records the failed index and error, then Run returns; the
// installation holds only fully applied entries plus the failed entry's
// restored original. On success the checkpoint is marked completed.
func (e *Engine) Run(cp *checkpoint.Checkpoint) error {
	entries := e.opts.Package.Manifest().Entries
	total := len(entries)
	for i := cp.CurrentIndex; i < total; i++ {
		entry := entries[i]
		e.emit(ProgressEvent{Path: entry.Path, State: entry.State, Index: i, Total: total})
		onBytes := e.bytesFunc(entry, i, total)
		if err := e.processor.Apply(entry, onBytes); err != nil {
			cp.CurrentIndex = i
			cp.LastError = err.Error()
			if saveErr := e.opts.Store.Save(cp); saveErr != nil {
				return fmt.Errorf(messages.EngineSaveCheckpointFmt, i, saveErr)
			}
			return fmt.Errorf(messages.EngineRunFailedFmt, i+1, total,
				fmt.Errorf(messages.EngineEntryFailedFmt, i, entry.Path, err))
		}
		cp.CurrentIndex = i + 1
		cp.LastError = ""
		if err := e.opts.Store.Save(cp); err != nil {
			return fmt.Errorf(messages.EngineSaveCheckpointFmt, i, err)
		}
	}
	cp.MarkCompleted(e.opts.Now())
	return e.opts.Store.Save(cp)
}

func (e *Engine) emit(event ProgressEvent) {
	if e.opts.Progress != nil {
		e.opts.Progress(event)
	}
}

func (e *Engine) bytesFunc(entry pkgfile.Entry, index int, total int) func(done int64, totalBytes int64) {
	if e.opts.Progress == nil {
		return nil
	}
	return func(done int64, totalBytes int64) {
		e.emit(ProgressEvent{
			Path:       entry.Path,
			State:      entry.State,
			Index:      index,
			Total:      total,
			BytesDone:  done,
			BytesTotal: totalBytes,
		})
	}
}
