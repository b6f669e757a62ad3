package hoomd

import (
	"errors"
	"fmt"
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

// Trajectory reads and appends HOOMD snapshots on top of a chunk file.
type Trajectory struct {
	file  *fl.File
	comp  *composer
	owned bool
}

// NewTrajectory wraps an open file. The caller keeps ownership of f.
func NewTrajectory(f *fl.File, opts ...Option) *Trajectory {
	o := buildOptions(opts)
	return &Trajectory{file: f, comp: newComposer(f, o.fallback)}
}

// Open opens path as a HOOMD trajectory. The file's schema must be compatible with
// SchemaName and SchemaVersion.
func Open(path string, mode fl.Mode, opts ...Option) (*Trajectory, error) {
	o := buildOptions(opts)
	f, err := fl.Open(path, mode, schemaOptions(o.fileOpts)...)
	if err != nil {
		return nil, err
	}
	t := NewTrajectory(f, opts...)
	t.owned = true
	return t, nil
}

// Create creates (or truncates) a HOOMD file at path. A non-nil initial snapshot is
// written as frame 0.
func Create(path string, initial *Snapshot, opts ...fl.Option) error {
	f, err := fl.Create(path, schemaOptions(opts)...)
	if err != nil {
		return err
	}
	if initial != nil {
		if err := NewTrajectory(f).Append(initial); err != nil {
			return errors.Join(err, f.Close())
		}
	}
	return f.Close()
}

func schemaOptions(opts []fl.Option) []fl.Option {
	return append([]fl.Option{fl.WithSchema(SchemaName, SchemaVersion)}, opts...)
}

// File returns the underlying chunk file.
func (t *Trajectory) File() *fl.File {
	return t.file
}

// Close closes the underlying file if the trajectory opened it.
func (t *Trajectory) Close() error {
	if !t.owned {
		return nil
	}
	return t.file.Close()
}

// Len returns the number of frames.
func (t *Trajectory) Len() int {
	return int(t.file.FrameCount())
}

// Get returns the snapshot at index. Negative indices count back from the end.
func (t *Trajectory) Get(index int) (*Snapshot, error) {
	n := t.Len()
	i := index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: index %d with %d frames", ErrIndexOutOfRange, index, n)
	}
	return t.comp.compose(uint64(i))
}

// ReadFrame returns the snapshot stored as frame number frame.
func (t *Trajectory) ReadFrame(frame uint64) (*Snapshot, error) {
	return t.comp.compose(frame)
}

// Slice returns the frames in [start, stop). Negative bounds count back from the end and
// bounds are clamped to the trajectory, so the result may be empty but never fails.
func (t *Trajectory) Slice(start, stop int) *Frames {
	n := t.Len()
	start, stop = clampIndex(start, n), clampIndex(stop, n)
	if stop < start {
		stop = start
	}
	return &Frames{traj: t, start: start, stop: stop}
}

// Frames returns every frame of the trajectory.
func (t *Trajectory) Frames() *Frames {
	return t.Slice(0, t.Len())
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

// Append writes s as a new frame. On error nothing from s is committed.
func (t *Trajectory) Append(s *Snapshot) error {
	if t.file.Mode() != fl.Append {
		return fmt.Errorf("%s: %w", t.file.Path(), fl.ErrReadOnly)
	}
	if s == nil {
		return fmt.Errorf("appending frame %d: %w: nil snapshot", t.file.FrameCount(), ErrInvalidSnapshot)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("appending frame %d: %w", t.file.FrameCount(), err)
	}
	if err := t.comp.checkAppend(s); err != nil {
		return fmt.Errorf("appending frame %d: %w", t.file.FrameCount(), err)
	}
	if err := writeSnapshot(t.file, s); err != nil {
		t.file.DiscardFrame()
		return fmt.Errorf("appending frame %d: %w", t.file.FrameCount(), err)
	}
	return nil
}

// Extend appends snapshots from seq one at a time, stopping at the first error.
func (t *Trajectory) Extend(seq iter.Seq[*Snapshot]) error {
	var err error
	count := 0
	for s := range seq {
		if err = t.Append(s); err != nil {
			break
		}
		count++
	}
	logrus.Debugf("%s: extended by %d frames", t.file.Path(), count)
	return err
}

// ExtendSeq2 is Extend for producers that can fail. A producer error stops the
// extension and is returned; frames appended before it stay committed.
func (t *Trajectory) ExtendSeq2(seq iter.Seq2[*Snapshot, error]) error {
	count := 0
	for s, err := range seq {
		if err != nil {
			return fmt.Errorf("after %d frames: %w", count, err)
		}
		if err := t.Append(s); err != nil {
			return err
		}
		count++
	}
	logrus.Debugf("%s: extended by %d frames", t.file.Path(), count)
	return nil
}

// Frames is a lazy, restartable range of trajectory frames.
type Frames struct {
	traj        *Trajectory
	start, stop int
}

// Len returns the number of frames in the range.
func (fr *Frames) Len() int {
	return fr.stop - fr.start
}

// Start returns the first index of the range.
func (fr *Frames) Start() int {
	return fr.start
}

// Stop returns the index one past the end of the range.
func (fr *Frames) Stop() int {
	return fr.stop
}

// All composes the frames in order, one per iteration. Iteration stops after the first
// error.
func (fr *Frames) All() iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		for i := fr.start; i < fr.stop; i++ {
			s, err := fr.traj.comp.compose(uint64(i))
			if !yield(s, err) || err != nil {
				return
			}
		}
	}
}

// Collect composes every frame of the range.
func (fr *Frames) Collect() ([]*Snapshot, error) {
	out := make([]*Snapshot, 0, fr.Len())
	for s, err := range fr.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
