// Package testutil provides shared test infrastructure for the gsd packages:
// golden file loading, temporary trajectory paths and comparison helpers used by
// gsd/fl, gsd/hoomd and cmd tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// GoldenPath returns the path of name inside the repository testdata/ directory.
// The path is resolved relative to this source file: internal/testutil/ -> testdata/.
func GoldenPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", name)
}

// OpenGolden opens a golden file for reading; it is closed when the test ends.
func OpenGolden(t *testing.T, name string) *os.File {
	t.Helper()

	f, err := os.Open(GoldenPath(t, name))
	if err != nil {
		t.Fatalf("Failed to open golden file %s: %v", name, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// TrajectoryPath returns a fresh file path in a per-test temporary directory.
func TrajectoryPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// AssertFloat32sEqual compares two float32 slices element-wise with relative tolerance.
func AssertFloat32sEqual(t *testing.T, name string, want, got []float32, relTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("%s: got %d values, want %d", name, len(got), len(want))
		return
	}
	for i := range want {
		w, g := float64(want[i]), float64(got[i])
		if w == 0 && g == 0 {
			continue
		}
		diff := math.Abs(w - g)
		maxVal := math.Max(math.Abs(w), math.Abs(g))
		if diff/maxVal > relTol {
			t.Errorf("%s[%d]: got %v, want %v (diff=%v, relDiff=%v)", name, i, g, w, diff, diff/maxVal)
		}
	}
}

// AssertNoDiff reports a test error with a readable diff when want and got differ.
// Unexported fields are compared, so values holding optionals compare by content, and
// nil and empty slices are equal.
func AssertNoDiff(t *testing.T, name string, want, got any, opts ...cmp.Option) {
	t.Helper()
	opts = append(opts, cmp.Exporter(func(reflect.Type) bool { return true }), cmpopts.EquateEmpty())
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
	}
}
