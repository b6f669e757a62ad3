package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gsd-sim/gsd-go/gsd/hoomd"
)

var createFromPath string // YAML snapshot for frame 0

var createCmd = &cobra.Command{
	Use:   "create FILE",
	Short: "Create an empty HOOMD trajectory, optionally seeding frame 0",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var initial *hoomd.Snapshot
		if createFromPath != "" {
			snap, err := hoomd.ReadYAMLFile(createFromPath)
			if err != nil {
				return err
			}
			initial = snap
		}
		if err := hoomd.Create(args[0], initial, cfg.fileOptions()...); err != nil {
			return fmt.Errorf("creating %s: %w", args[0], err)
		}
		logrus.Infof("Created %s", args[0])
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createFromPath, "from", "", "YAML snapshot written as frame 0")
	rootCmd.AddCommand(createCmd)
}
