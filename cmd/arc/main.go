package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/myfavshrimp/arc/internal/debug"
	"github.com/myfavshrimp/arc/internal/errutil"
)

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "arc",
	Short: "Scriptable fleet automation",
	Long: `
arc executes user-authored Lua recipes against a fleet of target machines
over SSH/SFTP, or against the local host.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func init() {
	cmdRoot.AddCommand(cmdInit, cmdRun, cmdList)
}

func createGlobalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func main() {
	ctx, cancel := createGlobalContext()
	defer cancel()

	debug.Log("main %#v", os.Args)

	err := cmdRoot.ExecuteContext(ctx)

	exitCode := 0
	switch {
	case err == nil:
		break
	case isFatal(err):
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	case err != nil:
		fmt.Fprintln(os.Stderr, errutil.Report(err))
		exitCode = 1
	}

	os.Exit(exitCode)
}

func isFatal(err error) bool {
	_, ok := err.(*errutil.Fatal)
	return ok
}
