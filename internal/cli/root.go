// Package cli wires the podium command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/podium/pkg/logger"
)

// Version is stamped at build time via -ldflags.
var Version = "v0.1.0"

// Root builds the top-level podium command.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "podium",
		Short: "Plackett-Luce ratings for multi-way bot contests",
		Args:  cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			return logger.SetLevelString(level)
		},
	}

	// global flags
	root.PersistentFlags().BoolP("help", "h", false, "Show help information")
	root.PersistentFlags().BoolP("version", "v", false, "Show podium's version")
	root.PersistentFlags().String("log-level", "info", "Logging verbosity: debug, info, warn, error")

	root.SetVersionTemplate(Version + "\n")
	root.Version = Version

	// Register the various commands.
	root.AddCommand(Rate())
	root.AddCommand(Serve())
	root.AddCommand(Simulate())

	return root
}
