package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagLogLevel string

	// Resolved during PersistentPreRunE.
	current *app
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seobundles",
		Short:         "SEO meta bundle registry",
		Long:          `seobundles keeps per-site SEO meta bundles in sync with CMS content and built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), flagLogLevel)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if current != nil {
				current.close()
			}
		},
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newInstallCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newGetCmd())
	return root
}
