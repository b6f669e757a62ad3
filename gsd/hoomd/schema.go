package hoomd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

// SchemaName and SchemaVersion identify files written by this package.
const SchemaName = "hoomd"

var SchemaVersion = fl.Version{Major: 1, Minor: 0}

var le = binary.LittleEndian

// rowCodec converts one row of an array field to and from its little-endian form.
type rowCodec[E any] struct {
	typ   fl.ElementType
	width uint32
	put   func(dst []byte, v E) []byte
	get   func(src []byte) E
}

func (rc rowCodec[E]) stride() int {
	return int(rc.width) * rc.typ.Size()
}

var (
	uint8Row = rowCodec[uint8]{typ: fl.Uint8, width: 1,
		put: func(dst []byte, v uint8) []byte { return append(dst, v) },
		get: func(src []byte) uint8 { return src[0] },
	}
	uint32Row = rowCodec[uint32]{typ: fl.Uint32, width: 1,
		put: func(dst []byte, v uint32) []byte { return le.AppendUint32(dst, v) },
		get: func(src []byte) uint32 { return le.Uint32(src) },
	}
	uint64Row = rowCodec[uint64]{typ: fl.Uint64, width: 1,
		put: func(dst []byte, v uint64) []byte { return le.AppendUint64(dst, v) },
		get: func(src []byte) uint64 { return le.Uint64(src) },
	}
	float32Row = rowCodec[float32]{typ: fl.Float32, width: 1,
		put: func(dst []byte, v float32) []byte { return le.AppendUint32(dst, math.Float32bits(v)) },
		get: func(src []byte) float32 { return math.Float32frombits(le.Uint32(src)) },
	}
	vec3Row   = float32ArrayRow[[3]float32]()
	quatRow   = float32ArrayRow[[4]float32]()
	boxRow    = float32ArrayRow[[6]float32]()
	image3Row = rowCodec[[3]int32]{typ: fl.Int32, width: 3,
		put: func(dst []byte, v [3]int32) []byte {
			for _, x := range v {
				dst = le.AppendUint32(dst, uint32(x))
			}
			return dst
		},
		get: func(src []byte) (v [3]int32) {
			for i := range v {
				v[i] = int32(le.Uint32(src[4*i:]))
			}
			return v
		},
	}
)

func float32ArrayRow[A [3]float32 | [4]float32 | [6]float32]() rowCodec[A] {
	var zero A
	return rowCodec[A]{typ: fl.Float32, width: uint32(len(zero)),
		put: func(dst []byte, v A) []byte {
			for i := 0; i < len(v); i++ {
				dst = le.AppendUint32(dst, math.Float32bits(v[i]))
			}
			return dst
		},
		get: func(src []byte) (v A) {
			for i := 0; i < len(v); i++ {
				v[i] = math.Float32frombits(le.Uint32(src[4*i:]))
			}
			return v
		},
	}
}

func groupRow(k int) rowCodec[[]uint32] {
	return rowCodec[[]uint32]{typ: fl.Uint32, width: uint32(k),
		put: func(dst []byte, v []uint32) []byte {
			for _, id := range v {
				dst = le.AppendUint32(dst, id)
			}
			return dst
		},
		get: func(src []byte) []uint32 {
			v := make([]uint32, k)
			for i := range v {
				v[i] = le.Uint32(src[4*i:])
			}
			return v
		},
	}
}

// field describes how one snapshot field maps to a named chunk.
type field struct {
	name      string
	category  Category
	typ       fl.ElementType
	width     uint32 // 0 accepts any width
	perEntity bool   // leading dimension is the category's N
	count     bool   // this field is the category's N

	isSet  func(s *Snapshot) bool
	rows   func(s *Snapshot) int
	encode func(s *Snapshot) (n, m uint32, data []byte)
	decode func(s *Snapshot, e fl.IndexEntry, data []byte) error
	fill   func(s *Snapshot, n uint32)
}

// checkEntry verifies that a stored chunk can be interpreted as f.
func (f *field) checkEntry(e fl.IndexEntry) error {
	if e.Type != f.typ || (f.width != 0 && e.M != f.width) {
		return fmt.Errorf("%w: %s stored as %dx%d %v, expected %v with width %d",
			fl.ErrTypeMismatch, f.name, e.N, e.M, e.Type, f.typ, f.width)
	}
	return nil
}

func scalarField[T any](cat Category, key string, rc rowCodec[T], def T, sel func(*Snapshot) *Optional[T]) field {
	return field{
		name:     cat.String() + "/" + key,
		category: cat,
		typ:      rc.typ,
		width:    rc.width,
		isSet:    func(s *Snapshot) bool { return sel(s).IsSet() },
		rows:     func(s *Snapshot) int { return 1 },
		encode: func(s *Snapshot) (uint32, uint32, []byte) {
			return 1, rc.width, rc.put(nil, sel(s).Value())
		},
		decode: func(s *Snapshot, e fl.IndexEntry, data []byte) error {
			if e.N != 1 {
				return fmt.Errorf("%w: %s/%s has %d rows, expected 1", ErrShapeMismatch, cat, key, e.N)
			}
			sel(s).Set(rc.get(data))
			return nil
		},
		fill: func(s *Snapshot, _ uint32) { sel(s).Set(def) },
	}
}

func arrayField[E any](cat Category, key string, rc rowCodec[E], def func() E, sel func(*Snapshot) *Optional[[]E]) field {
	return field{
		name:      cat.String() + "/" + key,
		category:  cat,
		typ:       rc.typ,
		width:     rc.width,
		perEntity: true,
		isSet:     func(s *Snapshot) bool { return sel(s).IsSet() },
		rows:      func(s *Snapshot) int { return len(sel(s).Value()) },
		encode: func(s *Snapshot) (uint32, uint32, []byte) {
			vals := sel(s).Value()
			buf := make([]byte, 0, len(vals)*rc.stride())
			for _, v := range vals {
				buf = rc.put(buf, v)
			}
			return uint32(len(vals)), rc.width, buf
		},
		decode: func(s *Snapshot, e fl.IndexEntry, data []byte) error {
			stride := rc.stride()
			vals := make([]E, e.N)
			for i := range vals {
				vals[i] = rc.get(data[i*stride : (i+1)*stride])
			}
			sel(s).Set(vals)
			return nil
		},
		fill: func(s *Snapshot, n uint32) {
			vals := make([]E, n)
			for i := range vals {
				vals[i] = def()
			}
			sel(s).Set(vals)
		},
	}
}

// typesField stores a list of names as an N x M uint8 array of NUL-padded strings,
// M being one more than the longest name.
func typesField(cat Category, def []string, sel func(*Snapshot) *Optional[[]string]) field {
	return field{
		name:     cat.String() + "/types",
		category: cat,
		typ:      fl.Uint8,
		isSet:    func(s *Snapshot) bool { return sel(s).IsSet() },
		rows:     func(s *Snapshot) int { return len(sel(s).Value()) },
		encode: func(s *Snapshot) (uint32, uint32, []byte) {
			names := sel(s).Value()
			width := 1
			for _, name := range names {
				width = max(width, len(name)+1)
			}
			buf := make([]byte, len(names)*width)
			for i, name := range names {
				copy(buf[i*width:], name)
			}
			return uint32(len(names)), uint32(width), buf
		},
		decode: func(s *Snapshot, e fl.IndexEntry, data []byte) error {
			names := make([]string, e.N)
			for i := range names {
				row := data[i*int(e.M) : (i+1)*int(e.M)]
				if j := bytes.IndexByte(row, 0); j >= 0 {
					row = row[:j]
				}
				names[i] = string(row)
			}
			sel(s).Set(names)
			return nil
		},
		fill: func(s *Snapshot, _ uint32) { sel(s).Set(slices.Clone(def)) },
	}
}

func countField(cat Category) field {
	f := scalarField(cat, "N", uint32Row, 0, func(s *Snapshot) *Optional[uint32] { return s.Count(cat) })
	f.count = true
	return f
}

func topologyFields(cat Category) []field {
	k := cat.GroupWidth()
	sel := func(s *Snapshot) *Topology { return s.Topology(cat) }
	return []field{
		countField(cat),
		typesField(cat, []string{}, func(s *Snapshot) *Optional[[]string] { return &sel(s).Types }),
		arrayField(cat, "typeid", uint32Row, zeroValue[uint32], func(s *Snapshot) *Optional[[]uint32] { return &sel(s).TypeID }),
		arrayField(cat, "group", groupRow(k), func() []uint32 { return make([]uint32, k) },
			func(s *Snapshot) *Optional[[][]uint32] { return &sel(s).Group }),
	}
}

func zeroValue[T any]() T {
	var zero T
	return zero
}

func constant[T any](v T) func() T {
	return func() T { return v }
}

// schema is the HOOMD field table in write order.
var schema = buildSchema()

func buildSchema() []field {
	p := CategoryParticles
	fields := []field{
		scalarField(CategoryConfiguration, "step", uint64Row, 0,
			func(s *Snapshot) *Optional[uint64] { return &s.Configuration.Step }),
		scalarField(CategoryConfiguration, "dimensions", uint8Row, 3,
			func(s *Snapshot) *Optional[uint8] { return &s.Configuration.Dimensions }),
		scalarField(CategoryConfiguration, "box", boxRow, [6]float32{1, 1, 1, 0, 0, 0},
			func(s *Snapshot) *Optional[[6]float32] { return &s.Configuration.Box }),

		countField(p),
		typesField(p, []string{"A"}, func(s *Snapshot) *Optional[[]string] { return &s.Particles.Types }),
		arrayField(p, "typeid", uint32Row, zeroValue[uint32],
			func(s *Snapshot) *Optional[[]uint32] { return &s.Particles.TypeID }),
		arrayField(p, "mass", float32Row, constant[float32](1),
			func(s *Snapshot) *Optional[[]float32] { return &s.Particles.Mass }),
		arrayField(p, "charge", float32Row, zeroValue[float32],
			func(s *Snapshot) *Optional[[]float32] { return &s.Particles.Charge }),
		arrayField(p, "diameter", float32Row, constant[float32](1),
			func(s *Snapshot) *Optional[[]float32] { return &s.Particles.Diameter }),
		arrayField(p, "moment_inertia", vec3Row, zeroValue[[3]float32],
			func(s *Snapshot) *Optional[[][3]float32] { return &s.Particles.MomentInertia }),
		arrayField(p, "position", vec3Row, zeroValue[[3]float32],
			func(s *Snapshot) *Optional[[][3]float32] { return &s.Particles.Position }),
		arrayField(p, "orientation", quatRow, constant([4]float32{1, 0, 0, 0}),
			func(s *Snapshot) *Optional[[][4]float32] { return &s.Particles.Orientation }),
		arrayField(p, "velocity", vec3Row, zeroValue[[3]float32],
			func(s *Snapshot) *Optional[[][3]float32] { return &s.Particles.Velocity }),
		arrayField(p, "angmom", quatRow, zeroValue[[4]float32],
			func(s *Snapshot) *Optional[[][4]float32] { return &s.Particles.AngMom }),
		arrayField(p, "image", image3Row, zeroValue[[3]int32],
			func(s *Snapshot) *Optional[[][3]int32] { return &s.Particles.Image }),
	}
	for _, cat := range EntityCategories[1:] {
		fields = append(fields, topologyFields(cat)...)
	}
	return fields
}

// FieldNames returns the chunk names of every schema field in write order.
func FieldNames() []string {
	names := make([]string, len(schema))
	for i := range schema {
		names[i] = schema[i].name
	}
	return names
}

func countName(cat Category) string {
	return cat.String() + "/N"
}

func validTypeName(name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: type name %q contains a NUL byte", ErrInvalidSnapshot, name)
	}
	return nil
}
