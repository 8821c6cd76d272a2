// Command restlens serves REST lenses to editors and inspects lens provider
// configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var cmds = []*cobra.Command{
	serveCmd,
	matchCmd,
	fetchCmd,
	checkCmd,
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute builds the command tree and executes commands.
func execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	command := &cobra.Command{
		Use:           "restlens",
		Short:         "Annotate documents with lenses fetched from REST endpoints",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}
	command.PersistentFlags().StringVarP(&configFile, "config", "c", "", "provider file (default $RESTLENS_CONFIG)")
	command.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default $RESTLENS_LOG_LEVEL or info)")

	for _, c := range cmds {
		command.AddCommand(c)
	}

	return command
}
