package hoomd

import (
	"fmt"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

// Validate checks that the set fields of s are consistent with each other. Per-entity
// fields must have N rows when N is set, and otherwise agree among themselves.
func (s *Snapshot) Validate() error {
	if d, ok := s.Configuration.Dimensions.Get(); ok && d != 2 && d != 3 {
		return fmt.Errorf("%w: dimensions must be 2 or 3, got %d", ErrInvalidSnapshot, d)
	}
	for _, cat := range EntityCategories {
		if err := s.validateCategory(cat); err != nil {
			return err
		}
	}
	for _, name := range s.Particles.Types.Value() {
		if err := validTypeName(name); err != nil {
			return err
		}
	}
	for _, cat := range EntityCategories[1:] {
		t := s.Topology(cat)
		for _, name := range t.Types.Value() {
			if err := validTypeName(name); err != nil {
				return err
			}
		}
		for i, row := range t.Group.Value() {
			if len(row) != cat.GroupWidth() {
				return fmt.Errorf("%w: %s group row %d has %d ids, expected %d",
					ErrShapeMismatch, cat, i, len(row), cat.GroupWidth())
			}
		}
	}
	return nil
}

func (s *Snapshot) validateCategory(cat Category) error {
	n, hasN := s.Count(cat).Get()
	first := ""
	for i := range schema {
		f := &schema[i]
		if f.category != cat || !f.perEntity || !f.isSet(s) {
			continue
		}
		rows := f.rows(s)
		if !hasN {
			n, hasN, first = uint32(rows), true, f.name
			continue
		}
		if uint32(rows) != n {
			if first == "" {
				return fmt.Errorf("%w: %s has %d rows but %s is %d", ErrShapeMismatch, f.name, rows, countName(cat), n)
			}
			return fmt.Errorf("%w: %s has %d rows but %s has %d", ErrShapeMismatch, f.name, rows, first, n)
		}
	}
	return nil
}

// writeSnapshot writes every set field of a validated s into the pending frame of w, in
// schema order, and commits the frame. The caller discards the pending frame on error.
func writeSnapshot(w *fl.File, s *Snapshot) error {
	for i := range schema {
		f := &schema[i]
		if !f.isSet(s) {
			continue
		}
		n, m, data := f.encode(s)
		if err := w.WriteChunk(f.name, f.typ, n, m, data); err != nil {
			return err
		}
	}
	return w.EndFrame()
}
