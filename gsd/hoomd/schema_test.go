package hoomd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsd-sim/gsd-go/gsd/fl"
	"github.com/gsd-sim/gsd-go/internal/testutil"
)

func TestFieldNames_Unique(t *testing.T) {
	names := FieldNames()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		assert.False(t, seen[name], name)
		seen[name] = true
	}
	assert.Equal(t, "configuration/step", names[0])
	assert.Contains(t, names, "impropers/group")
	assert.Len(t, names, 3+12+4*4)
}

func TestTypesField_NulPaddedRows(t *testing.T) {
	f := fieldByName("particles/types")
	require.NotNil(t, f)

	// GIVEN type names of different lengths
	s := NewSnapshot()
	s.Particles.Types.Set([]string{"A", "long", ""})

	// WHEN they are encoded
	n, m, data := f.encode(s)

	// THEN each row is as wide as the longest name plus a terminator
	assert.Equal(t, uint32(3), n)
	assert.Equal(t, uint32(5), m)
	assert.Equal(t, []byte("A\x00\x00\x00\x00long\x00\x00\x00\x00\x00\x00"), data)

	// AND decoding strips the padding
	var out Snapshot
	require.NoError(t, f.decode(&out, fl.IndexEntry{N: n, M: m, Type: fl.Uint8}, data))
	assert.Equal(t, []string{"A", "long", ""}, out.Particles.Types.Value())
}

func TestSchema_RoundTripsEveryField(t *testing.T) {
	path := testutil.TrajectoryPath(t, "full.gsd")

	// GIVEN a snapshot with every field set to non-default values
	snap := NewSnapshot()
	snap.Configuration = Configuration{
		Step:       Some[uint64](1 << 40),
		Dimensions: Some[uint8](2),
		Box:        Some([6]float32{10, 20, 30, 0.1, 0.2, 0.3}),
	}
	snap.Particles = Particles{
		N:             Some[uint32](2),
		Types:         Some([]string{"W", "Na+"}),
		TypeID:        Some([]uint32{1, 0}),
		Mass:          Some([]float32{18, 23}),
		Diameter:      Some([]float32{0.3, 0.2}),
		Charge:        Some([]float32{0, 1}),
		MomentInertia: Some([][3]float32{{1, 2, 3}, {0, 0, 0}}),
		Position:      Some([][3]float32{{-1.5, 2.25, 3}, {4, -5, 6.125}}),
		Orientation:   Some([][4]float32{{0, 1, 0, 0}, {1, 0, 0, 0}}),
		Velocity:      Some([][3]float32{{0.5, 0, -0.5}, {1, 1, 1}}),
		AngMom:        Some([][4]float32{{0, 1, 2, 3}, {4, 5, 6, 7}}),
		Image:         Some([][3]int32{{-1, 0, 2}, {3, -4, 5}}),
	}
	snap.Bonds = Topology{N: Some[uint32](1), Types: Some([]string{"OH"}), TypeID: Some([]uint32{0}), Group: Some([][]uint32{{0, 1}})}
	snap.Angles = Topology{N: Some[uint32](1), Types: Some([]string{"HOH"}), TypeID: Some([]uint32{0}), Group: Some([][]uint32{{1, 0, 1}})}
	snap.Dihedrals = Topology{N: Some[uint32](1), Types: Some([]string{"d"}), TypeID: Some([]uint32{0}), Group: Some([][]uint32{{0, 1, 0, 1}})}
	snap.Impropers = Topology{N: Some[uint32](1), Types: Some([]string{"i"}), TypeID: Some([]uint32{0}), Group: Some([][]uint32{{1, 1, 0, 0}})}

	// WHEN it is written with compression and read back
	require.NoError(t, Create(path, snap, fl.WithCodec(fl.CodecZstd)))
	got, err := openRead(t, path).ReadFrame(0)
	require.NoError(t, err)

	// THEN it is bit-identical
	testutil.AssertNoDiff(t, "snapshot", snap, got)
	testutil.AssertFloat32sEqual(t, "mass", snap.Particles.Mass.Value(), got.Particles.Mass.Value(), 0)
}
