package fl

import "fmt"

// ElementType identifies the scalar type stored in a chunk.
type ElementType uint8

const (
	Uint8   ElementType = 1
	Uint16  ElementType = 2
	Uint32  ElementType = 3
	Uint64  ElementType = 4
	Int8    ElementType = 5
	Int16   ElementType = 6
	Int32   ElementType = 7
	Int64   ElementType = 8
	Float32 ElementType = 9
	Float64 ElementType = 10
)

var elementTypeNames = map[ElementType]string{
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
}

// Size returns the width in bytes of one element, or 0 for an unknown type.
func (t ElementType) Size() int {
	switch t {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	}
	return 0
}

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	return t.Size() != 0
}

func (t ElementType) String() string {
	if name, ok := elementTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ElementType(%d)", uint8(t))
}

// Mode selects how a File is opened. A File keeps its mode for its whole lifetime.
type Mode int

const (
	// ReadOnly opens an existing file for reading.
	ReadOnly Mode = iota
	// Append opens a file for appending frames, creating it when absent.
	Append
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case Append:
		return "append"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Version is a (major, minor) schema version.
type Version struct {
	Major uint32
	Minor uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IndexEntry locates one chunk: one named field within one frame.
type IndexEntry struct {
	Frame      uint64
	NameID     uint32
	Offset     uint64 // file offset of the stored bytes
	N          uint32 // rows
	M          uint32 // columns (element width)
	Type       ElementType
	Codec      Codec
	StoredSize uint32
	Checksum   uint64 // xxh3 of the stored bytes
}

// Len returns the decoded size of the chunk in bytes.
func (e IndexEntry) Len() int {
	return int(e.N) * int(e.M) * e.Type.Size()
}
