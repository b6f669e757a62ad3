package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

var (
	tailSince   int           // first frame to report, -1 for frames committed after start
	tailCount   int           // stop after this many frames, 0 for no limit
	tailTimeout time.Duration // stop after this long, 0 for no limit
)

var tailCmd = &cobra.Command{
	Use:   "tail FILE",
	Short: "Watch a trajectory and print the step of every newly committed frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tailSince < -1 {
			return fmt.Errorf("--since must be a frame index or -1, got %d", tailSince)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if tailTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, tailTimeout)
			defer cancel()
		}
		t := &tailer{path: args[0], next: tailSince, limit: tailCount, out: cmd.OutOrStdout()}
		return t.run(ctx)
	},
}

// tailer reports frames of a file that another process is appending to.
type tailer struct {
	path  string
	next  int // next frame to report
	limit int
	seen  int
	out   io.Writer
}

func (t *tailer) run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(t.path); err != nil {
		return fmt.Errorf("watching %s: %w", t.path, err)
	}

	if t.next < 0 {
		f, err := fl.Open(t.path, fl.ReadOnly, cfg.fileOptions()...)
		if err != nil {
			return err
		}
		t.next = int(f.FrameCount())
		_ = f.Close()
	}
	// Frames committed before the watch started.
	if done, err := t.poll(); done || err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil
			}
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				return fmt.Errorf("%s was removed", t.path)
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			if done, err := t.poll(); done || err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("Error watching %s: %v", t.path, err)
		}
	}
}

// poll prints the frames committed since the last call and reports whether the limit
// has been reached.
func (t *tailer) poll() (bool, error) {
	traj, err := openTrajectory(t.path, fl.ReadOnly)
	if err != nil {
		return false, err
	}
	defer traj.Close()

	for s, err := range traj.Slice(t.next, traj.Len()).All() {
		if err != nil {
			return false, err
		}
		fmt.Fprintf(t.out, "frame %d step %d\n", t.next, s.Configuration.Step.Value())
		t.next++
		t.seen++
		if t.limit > 0 && t.seen >= t.limit {
			return true, nil
		}
	}
	return false, nil
}

func init() {
	tailCmd.Flags().IntVar(&tailSince, "since", -1, "First frame to print (-1: only frames committed from now on; other negatives are rejected)")
	tailCmd.Flags().IntVar(&tailCount, "count", 0, "Exit after printing this many frames (0: no limit)")
	tailCmd.Flags().DurationVar(&tailTimeout, "timeout", 0, "Exit after this long (0: no limit)")
	rootCmd.AddCommand(tailCmd)
}
