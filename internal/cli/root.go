// Package cli implements the opcall command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "opcall",
		Short:         "Execute schema-described remote operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "Config file path (default: opcall.yaml)")
	flags.String("base-url", "", "Service base URL")
	flags.StringP("descriptors", "d", "", "Descriptor set YAML file")
	flags.String("redis-addr", "", "Redis address enabling response cache and shared throttling")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.Bool("log-pretty", false, "Human-readable console log output")

	cmd.AddCommand(InvokeCommand(), ServeCommand())

	return cmd
}
