package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gsd-sim/gsd-go/gsd/fl"
	"github.com/gsd-sim/gsd-go/gsd/hoomd"
)

var (
	dumpFrame int // single frame index, negative counts from the end
	dumpStart int // first index of a range
	dumpStop  int // index one past the end of a range
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print composed frames as YAML documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		traj, err := openTrajectory(args[0], fl.ReadOnly)
		if err != nil {
			return err
		}
		defer traj.Close()

		if cmd.Flags().Changed("frame") {
			snap, err := traj.Get(dumpFrame)
			if err != nil {
				return err
			}
			return hoomd.EncodeYAML(cmd.OutOrStdout(), func(yield func(*hoomd.Snapshot, error) bool) {
				yield(snap, nil)
			})
		}
		stop := traj.Len()
		if cmd.Flags().Changed("stop") {
			stop = dumpStop
		}
		frames := traj.Slice(dumpStart, stop)
		logrus.Debugf("Dumping frames [%d, %d) of %s", frames.Start(), frames.Stop(), args[0])
		return hoomd.EncodeYAML(cmd.OutOrStdout(), frames.All())
	},
}

func init() {
	dumpCmd.Flags().IntVar(&dumpFrame, "frame", 0, "Dump a single frame (negative counts from the end)")
	dumpCmd.Flags().IntVar(&dumpStart, "start", 0, "First frame of the range")
	dumpCmd.Flags().IntVar(&dumpStop, "stop", 0, "Frame after the last one of the range (default: end)")
	dumpCmd.MarkFlagsMutuallyExclusive("frame", "start")
	dumpCmd.MarkFlagsMutuallyExclusive("frame", "stop")
	rootCmd.AddCommand(dumpCmd)
}
