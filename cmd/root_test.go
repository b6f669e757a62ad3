package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsd-sim/gsd-go/gsd/fl"
	"github.com/gsd-sim/gsd-go/gsd/hoomd"
	"github.com/gsd-sim/gsd-go/internal/testutil"
)

// resetFlags restores every flag to its default so commands can run repeatedly.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func decodeAll(t *testing.T, text string) []*hoomd.Snapshot {
	t.Helper()
	var snaps []*hoomd.Snapshot
	for s, err := range hoomd.DecodeYAML(strings.NewReader(text)) {
		require.NoError(t, err)
		snaps = append(snaps, s)
	}
	return snaps
}

func TestCreateInfoAppendDump(t *testing.T) {
	path := testutil.TrajectoryPath(t, "cli.gsd")
	frames := testutil.GoldenPath(t, "fallback_frames.yaml")

	// GIVEN a file created from the first golden document
	_, err := execute(t, "", "create", path, "--from", frames)
	require.NoError(t, err)

	// WHEN the whole golden stream is appended
	out, err := execute(t, "", "append", path, "--input", frames)
	require.NoError(t, err)
	assert.Equal(t, "3 frames appended, 4 total\n", out)

	// THEN info reports the header and frame count
	out, err = execute(t, "", "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "schema:      hoomd 1.0")
	assert.Contains(t, out, "frames:      4")
	assert.Contains(t, out, "particles/position")

	// AND dump composes single frames and ranges
	out, err = execute(t, "", "dump", path, "--frame", "-1")
	require.NoError(t, err)
	snaps := decodeAll(t, out)
	require.Len(t, snaps, 1)
	assert.Equal(t, uint32(3), snaps[0].Particles.N.Value())
	assert.Equal(t, uint64(10000), snaps[0].Configuration.Step.Value())

	out, err = execute(t, "", "dump", path, "--start", "1", "--stop", "3")
	require.NoError(t, err)
	snaps = decodeAll(t, out)
	require.Len(t, snaps, 2)
	assert.Equal(t, [][3]float32{{0.1, 0.2, 0.3}, {-1, -2, -3}}, snaps[0].Particles.Position.Value())
	assert.Equal(t, [][3]float32{{-2, -1, 0}, {1, 3, 0.5}}, snaps[1].Particles.Position.Value())

	out, err = execute(t, "", "dump", path)
	require.NoError(t, err)
	assert.Len(t, decodeAll(t, out), 4)
}

func TestAppend_FromStdin(t *testing.T) {
	path := testutil.TrajectoryPath(t, "stdin.gsd")
	_, err := execute(t, "", "create", path)
	require.NoError(t, err)

	out, err := execute(t, "configuration: {step: 5}\n---\nconfiguration: {step: 6}\n", "append", path)
	require.NoError(t, err)
	assert.Equal(t, "2 frames appended, 2 total\n", out)
}

func TestAppend_BadDocumentKeepsEarlierFrames(t *testing.T) {
	path := testutil.TrajectoryPath(t, "bad.gsd")
	_, err := execute(t, "", "create", path)
	require.NoError(t, err)

	out, err := execute(t, "configuration: {step: 5}\n---\nconfiguration: {stp: 6}\n", "append", path)
	assert.Error(t, err)
	assert.Equal(t, "1 frames appended, 1 total\n", out)
}

func TestInfo_Chunks(t *testing.T) {
	path := testutil.TrajectoryPath(t, "chunks.gsd")
	_, err := execute(t, "", "create", path, "--from", testutil.GoldenPath(t, "fallback_frames.yaml"))
	require.NoError(t, err)

	out, err := execute(t, "", "info", path, "--chunks")
	require.NoError(t, err)
	assert.Contains(t, out, "frame 0")
	assert.Contains(t, out, "impropers/group")
}

func TestInfo_MissingFile(t *testing.T) {
	_, err := execute(t, "", "info", filepath.Join(t.TempDir(), "missing.gsd"))
	assert.Error(t, err)
}

func TestConfigFile_AppliesCodec(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "gsd.yaml")
	require.NoError(t, os.WriteFile(config, []byte("codec: snappy\napplication: cli-test\nfallback: initial\n"), 0o644))
	path := filepath.Join(dir, "conf.gsd")

	_, err := execute(t, "", "create", path, "--config", config)
	require.NoError(t, err)
	out, err := execute(t, "", "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "application: cli-test")
}

func TestTail_PrintsNewFrames(t *testing.T) {
	path := testutil.TrajectoryPath(t, "tail.gsd")
	require.NoError(t, hoomd.Create(path, nil))

	// GIVEN a tail waiting for two frames
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"tail", path, "--since", "0", "--count", "2", "--timeout", "10s"})
	go func() {
		err := rootCmd.Execute()
		done <- result{out: out.String(), err: err}
	}()

	// WHEN another handle appends two frames
	time.Sleep(100 * time.Millisecond)
	traj, err := hoomd.Open(path, fl.Append)
	require.NoError(t, err)
	for _, step := range []uint64{10, 20} {
		s := hoomd.NewSnapshot()
		s.Configuration.Step.Set(step)
		require.NoError(t, traj.Append(s))
	}
	require.NoError(t, traj.Close())

	// THEN both frames are reported
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "frame 0 step 10\nframe 1 step 20\n", r.out)
	case <-time.After(15 * time.Second):
		t.Fatal("tail did not finish")
	}
}

func TestTail_RejectsNegativeSince(t *testing.T) {
	path := testutil.TrajectoryPath(t, "since.gsd")
	require.NoError(t, hoomd.Create(path, nil))

	_, err := execute(t, "", "tail", path, "--since=-2", "--timeout", "1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--since")
}
