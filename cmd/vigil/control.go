package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loykin/vigil/internal/operator"
)

// runControl executes one operator command. Rejections and failures
// are reported as text on stdout; the process exits 0 either way so
// scripted callers distinguish outcomes by the response, not the exit
// status.
func runControl(cmd *cobra.Command, dir, op string) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		fmt.Fprintf(cmd.OutOrStdout(), "error: %s is not a working directory\n", dir)
		return nil
	}
	out, err := operator.New(dir).Execute(op)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "error: %v\n", err)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
