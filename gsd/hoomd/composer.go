package hoomd

import (
	"fmt"
	"slices"
	"sort"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

// countSeries holds the stored N values of one category in frame order. epochs[i] is
// the first frame of the run of equal N values that entry i belongs to.
type countSeries struct {
	frames []uint64
	values []uint32
	epochs []uint64
}

// at returns N and the epoch start in force at frame. Before the first stored N the
// count is 0 and the epoch starts at frame 0.
func (cs *countSeries) at(frame uint64) (uint32, uint64) {
	i := sort.Search(len(cs.frames), func(i int) bool { return cs.frames[i] > frame })
	if i == 0 {
		return 0, 0
	}
	return cs.values[i-1], cs.epochs[i-1]
}

func (cs *countSeries) push(frame uint64, n uint32) {
	prev, epoch := uint32(0), uint64(0)
	if k := len(cs.values); k > 0 {
		prev, epoch = cs.values[k-1], cs.epochs[k-1]
	}
	if n != prev {
		epoch = frame
	}
	cs.frames = append(cs.frames, frame)
	cs.values = append(cs.values, n)
	cs.epochs = append(cs.epochs, epoch)
}

// composer rebuilds fully populated snapshots from the sparse chunks of a file.
type composer struct {
	file   *fl.File
	policy FallbackPolicy

	synced uint64 // frame count the series were built from
	counts map[Category]*countSeries
}

func newComposer(f *fl.File, policy FallbackPolicy) *composer {
	return &composer{file: f, policy: policy}
}

// sync extends the count series with entries committed since the last call.
func (c *composer) sync() error {
	frames := c.file.FrameCount()
	if c.counts != nil && frames == c.synced {
		return nil
	}
	if c.counts == nil || frames < c.synced {
		c.counts = make(map[Category]*countSeries, len(EntityCategories))
		for _, cat := range EntityCategories {
			c.counts[cat] = &countSeries{}
		}
	}
	for _, cat := range EntityCategories {
		cs := c.counts[cat]
		entries := c.file.EntriesFor(countName(cat))
		for _, e := range entries[len(cs.frames):] {
			n, err := c.readCount(cat, e)
			if err != nil {
				return err
			}
			cs.push(e.Frame, n)
		}
	}
	c.synced = frames
	return nil
}

func (c *composer) readCount(cat Category, e fl.IndexEntry) (uint32, error) {
	var s Snapshot
	if err := c.decode(fieldByName(countName(cat)), e, &s); err != nil {
		return 0, fmt.Errorf("frame %d: %w", e.Frame, err)
	}
	return s.Count(cat).Value(), nil
}

// decode reads e and stores it into s through f after checking its type and width.
func (c *composer) decode(f *field, e fl.IndexEntry, s *Snapshot) error {
	if err := f.checkEntry(e); err != nil {
		return err
	}
	data, err := c.file.ReadChunk(e)
	if err != nil {
		return err
	}
	return f.decode(s, e, data)
}

// count resolves N of cat at frame along with the first frame of its epoch.
func (c *composer) count(cat Category, frame uint64) (uint32, uint64) {
	cs := c.counts[cat]
	if c.policy == FallbackInitialFrame {
		for _, fr := range []uint64{frame, 0} {
			if i, ok := slices.BinarySearch(cs.frames, fr); ok {
				return cs.values[i], 0
			}
		}
		return 0, 0
	}
	return cs.at(frame)
}

// source picks the chunk that supplies f at frame, if any.
func (c *composer) source(f *field, frame uint64, n, n0 uint32, epoch uint64) (fl.IndexEntry, bool) {
	if c.policy == FallbackInitialFrame {
		if e, ok := c.file.FindChunk(frame, f.name); ok {
			return e, true
		}
		if frame == 0 || (f.perEntity && n != n0) {
			return fl.IndexEntry{}, false
		}
		return c.file.FindChunk(0, f.name)
	}
	e, ok := c.file.FindLatest(frame, f.name)
	if !ok || (f.perEntity && e.Frame < epoch) {
		return fl.IndexEntry{}, false
	}
	return e, true
}

// compose returns the snapshot of frame with every field present.
func (c *composer) compose(frame uint64) (*Snapshot, error) {
	if frame >= c.file.FrameCount() {
		return nil, fmt.Errorf("%w: frame %d of %d", ErrIndexOutOfRange, frame, c.file.FrameCount())
	}
	if err := c.sync(); err != nil {
		return nil, err
	}

	type resolved struct {
		n, n0 uint32
		epoch uint64
	}
	counts := make(map[Category]resolved, len(EntityCategories))
	for _, cat := range EntityCategories {
		n, epoch := c.count(cat, frame)
		n0, _ := c.count(cat, 0)
		counts[cat] = resolved{n: n, n0: n0, epoch: epoch}
	}

	s := NewSnapshot()
	for i := range schema {
		f := &schema[i]
		r := counts[f.category]
		if f.count {
			s.Count(f.category).Set(r.n)
			continue
		}
		e, ok := c.source(f, frame, r.n, r.n0, r.epoch)
		if !ok {
			f.fill(s, r.n)
			continue
		}
		if f.perEntity && e.N != r.n {
			return nil, fmt.Errorf("%w: %s in frame %d has %d rows but N is %d",
				ErrShapeMismatch, f.name, e.Frame, e.N, r.n)
		}
		if err := c.decode(f, e, s); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	return s, nil
}

// checkAppend rejects a snapshot whose per-entity fields would not match the N this
// composer resolves for the next frame. Only categories that leave N unset are checked;
// Validate covers the others.
func (c *composer) checkAppend(s *Snapshot) error {
	if err := c.sync(); err != nil {
		return err
	}
	frame := c.file.FrameCount()
	for _, cat := range EntityCategories {
		if s.Count(cat).IsSet() {
			continue
		}
		n, _ := c.count(cat, frame)
		for i := range schema {
			f := &schema[i]
			if f.category != cat || !f.perEntity || !f.isSet(s) {
				continue
			}
			if rows := f.rows(s); uint32(rows) != n {
				return fmt.Errorf("%w: %s has %d rows but %s in force is %d",
					ErrShapeMismatch, f.name, rows, countName(cat), n)
			}
		}
	}
	return nil
}

func fieldByName(name string) *field {
	for i := range schema {
		if schema[i].name == name {
			return &schema[i]
		}
	}
	return nil
}
