// Package ctl implements kidsgramctl, the operator tool for the diary
// service: schema migrations and development access tokens.
package ctl

import (
	"github.com/dmitrijs2005/kidsgram/internal/server/config"
	"github.com/spf13/cobra"
)

// loadConfig reads defaults, the optional JSON file and the environment.
// Command flags override the result.
var loadConfig = func() (*config.Config, error) {
	return config.LoadUnchecked(nil)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kidsgramctl",
		Short:         "Administer a Kidsgram diary server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}
