package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gsd-sim/gsd-go/gsd/fl"
	"github.com/gsd-sim/gsd-go/gsd/hoomd"
)

var appendInputPath string // multi-document YAML, "-" for stdin

var appendCmd = &cobra.Command{
	Use:   "append FILE",
	Short: "Append the snapshots of a multi-document YAML stream as frames",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var in io.Reader = cmd.InOrStdin()
		if appendInputPath != "-" {
			f, err := os.Open(appendInputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		traj, err := openTrajectory(args[0], fl.Append)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, traj.Close()) }()

		before := traj.Len()
		extendErr := traj.ExtendSeq2(hoomd.DecodeYAML(in))
		logrus.Infof("Appended %d frames to %s", traj.Len()-before, args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%d frames appended, %d total\n", traj.Len()-before, traj.Len())
		return extendErr
	},
}

func init() {
	appendCmd.Flags().StringVar(&appendInputPath, "input", "-", "YAML file with one snapshot per document (- for stdin)")
	rootCmd.AddCommand(appendCmd)
}
