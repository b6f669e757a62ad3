package hoomd

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsd-sim/gsd-go/gsd/fl"
	"github.com/gsd-sim/gsd-go/internal/testutil"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		build   func(s *Snapshot)
		wantErr error
	}{
		{name: "empty", build: func(s *Snapshot) {}},
		{name: "dimensions", build: func(s *Snapshot) { s.Configuration.Dimensions.Set(4) }, wantErr: ErrInvalidSnapshot},
		{
			name: "rows match N",
			build: func(s *Snapshot) {
				s.Particles.N.Set(2)
				s.Particles.Position.Set(make([][3]float32, 2))
			},
		},
		{
			name: "rows differ from N",
			build: func(s *Snapshot) {
				s.Particles.N.Set(2)
				s.Particles.Position.Set(make([][3]float32, 3))
			},
			wantErr: ErrShapeMismatch,
		},
		{
			name: "rows disagree without N",
			build: func(s *Snapshot) {
				s.Particles.Mass.Set(make([]float32, 2))
				s.Particles.Charge.Set(make([]float32, 3))
			},
			wantErr: ErrShapeMismatch,
		},
		{
			name: "group width",
			build: func(s *Snapshot) {
				s.Angles.N.Set(1)
				s.Angles.Group.Set([][]uint32{{0, 1}})
			},
			wantErr: ErrShapeMismatch,
		},
		{
			name:    "NUL in type name",
			build:   func(s *Snapshot) { s.Bonds.Types.Set([]string{"a\x00b"}) },
			wantErr: ErrInvalidSnapshot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSnapshot()
			tt.build(s)
			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAppend_WritesOnlySetFields(t *testing.T) {
	path := testutil.TrajectoryPath(t, "sparse.gsd")

	// GIVEN a snapshot that sets a field to its default value and leaves the rest unset
	snap := NewSnapshot()
	snap.Particles.N.Set(2)
	snap.Particles.Mass.Set([]float32{1, 1})
	require.NoError(t, Create(path, snap))

	// WHEN the raw chunks of frame 0 are listed
	f, err := fl.Open(path, fl.ReadOnly)
	require.NoError(t, err)
	defer f.Close()

	// THEN exactly the set fields were stored, in schema order
	assert.Equal(t, []string{"particles/N", "particles/mass"}, f.Names())
	e, ok := f.FindChunk(0, "particles/mass")
	require.True(t, ok)
	assert.Equal(t, uint32(2), e.N)
	assert.Equal(t, fl.Float32, e.Type)
}

func TestAppend_EmptySnapshotCommitsEmptyFrame(t *testing.T) {
	path := testutil.TrajectoryPath(t, "empty.gsd")
	writeTrajectory(t, path, NewSnapshot(), NewSnapshot())

	traj := openRead(t, path)
	assert.Equal(t, 2, traj.Len())
	assert.Equal(t, 0, traj.File().ChunkCount())
}

func TestAppend_ReadOnlyFails(t *testing.T) {
	path := testutil.TrajectoryPath(t, "ro.gsd")
	require.NoError(t, Create(path, nil))

	err := openRead(t, path).Append(createFrame(0))
	assert.ErrorIs(t, err, fl.ErrReadOnly)
}

func TestAppend_RowsMustMatchCountInForce(t *testing.T) {
	path := testutil.TrajectoryPath(t, "in_force.gsd")
	writeTrajectory(t, path, withParticles(2, 1, 2))
	traj := openAppend(t, path)

	// GIVEN a frame that leaves N unset but stores 3 positions while N=2 is in force
	snap := NewSnapshot()
	snap.Particles.Position.Set(make([][3]float32, 3))

	// WHEN it is appended
	err := traj.Append(snap)

	// THEN it is rejected and nothing is committed
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, 1, traj.Len())
	assert.False(t, traj.File().Pending())

	// AND rows matching the count in force are accepted and composable
	snap.Particles.Position.Set(make([][3]float32, 2))
	require.NoError(t, traj.Append(snap))
	got, err := traj.Get(-1)
	require.NoError(t, err)
	assert.Len(t, got.Particles.Position.Value(), 2)
}

func TestExtend_NilSnapshotIsInvalid(t *testing.T) {
	path := testutil.TrajectoryPath(t, "nil.gsd")
	require.NoError(t, Create(path, nil))
	traj := openAppend(t, path)

	err := traj.Extend(slices.Values([]*Snapshot{createFrame(0), nil}))

	assert.ErrorIs(t, err, ErrInvalidSnapshot)
	assert.Equal(t, 1, traj.Len())
}
