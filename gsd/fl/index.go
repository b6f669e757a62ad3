package fl

import (
	"github.com/google/btree"
)

const btreeDegree = 32

// index is the in-memory view of the committed name table and chunk index.
// Entries are ordered by (NameID, Frame) so the most recent entry for a name at or
// before a frame is a single descend from the pivot.
type index struct {
	names []string
	ids   map[string]uint32
	tree  *btree.BTreeG[IndexEntry]
}

func entryLess(a, b IndexEntry) bool {
	if a.NameID != b.NameID {
		return a.NameID < b.NameID
	}
	return a.Frame < b.Frame
}

func newIndex() *index {
	return &index{
		ids:  make(map[string]uint32),
		tree: btree.NewG(btreeDegree, entryLess),
	}
}

func (ix *index) lookup(name string) (uint32, bool) {
	id, ok := ix.ids[name]
	return id, ok
}

func (ix *index) intern(name string) uint32 {
	id := uint32(len(ix.names))
	ix.names = append(ix.names, name)
	ix.ids[name] = id
	return id
}

func (ix *index) insert(e IndexEntry) {
	ix.tree.ReplaceOrInsert(e)
}

func (ix *index) find(id uint32, frame uint64) (IndexEntry, bool) {
	return ix.tree.Get(IndexEntry{NameID: id, Frame: frame})
}

func (ix *index) latest(id uint32, frame uint64) (IndexEntry, bool) {
	var (
		found IndexEntry
		ok    bool
	)
	ix.tree.DescendLessOrEqual(IndexEntry{NameID: id, Frame: frame}, func(e IndexEntry) bool {
		found, ok = e, e.NameID == id
		return false
	})
	return found, ok
}

func (ix *index) entries(id uint32) []IndexEntry {
	var out []IndexEntry
	ix.tree.AscendGreaterOrEqual(IndexEntry{NameID: id}, func(e IndexEntry) bool {
		if e.NameID != id {
			return false
		}
		out = append(out, e)
		return true
	})
	return out
}

func (ix *index) len() int {
	return ix.tree.Len()
}
