package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "vigil <dir> [start|stop|abort|status|statistics]",
		Short: "vigil supervises a single process in a working directory",
		Long: `vigil launches the command configured in <dir>/command, restarts it when
it exits unexpectedly, and takes operator requests through marker files
in the same directory.

With only <dir>, vigil runs as the supervisor daemon. With a second
argument it acts as a one-shot control client against that directory.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return runControl(cmd, args[0], args[1])
			}
			return runDaemon(cmd.Context(), args[0])
		},
	}
	return root
}
