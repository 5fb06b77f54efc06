package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myfavshrimp/arc/internal/delegator"
	"github.com/myfavshrimp/arc/internal/errutil"
	"github.com/myfavshrimp/arc/internal/executor"
	"github.com/myfavshrimp/arc/internal/script"
	"github.com/myfavshrimp/arc/internal/selection"
)

type runOptions struct {
	Tags    []string
	Groups  []string
	Systems []string
	DryRun  bool
	NoDeps  bool
}

var runOpts runOptions

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Select and run tasks against the fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(cmd.Context(), runOpts)
	},
}

func init() {
	f := cmdRun.Flags()
	f.StringArrayVar(&runOpts.Tags, "tag", nil, "select tasks matching this tag (repeatable)")
	f.StringArrayVar(&runOpts.Groups, "group", nil, "select systems/tasks in this group (repeatable)")
	f.StringArrayVar(&runOpts.Systems, "system", nil, "select this system (repeatable)")
	f.BoolVar(&runOpts.DryRun, "dry-run", false, "use a no-op delegator on every system")
	f.BoolVar(&runOpts.NoDeps, "no-deps", false, "do not expand the selection by requires tags")
}

func runRun(ctx context.Context, opts runOptions) error {
	loadDotEnv()

	sink := newSink()
	st := script.New(".", sink)
	defer st.Close()

	st.BindHost(delegator.NewLocal())

	if err := st.LoadFile("arc.lua"); err != nil {
		return errutil.NewFatal("loading arc.lua: %v", err)
	}

	filter := selection.Filter{
		Tags:    stringSetFilter(opts.Tags),
		Groups:  stringSetFilter(opts.Groups),
		Systems: stringSetFilter(opts.Systems),
		NoDeps:  opts.NoDeps,
	}

	plan := selection.Resolve(st.Systems, st.Groups, st.Tasks, filter)

	if err := selection.Validate(st.Systems, st.Groups, st.Tasks, filter, plan); err != nil {
		return err
	}

	result := executor.Execute(ctx, st, sink, plan, executor.Options{DryRun: opts.DryRun})

	if result.HasFailures() {
		return fmt.Errorf("one or more tasks failed or the run was aborted")
	}
	return nil
}

func stringSetFilter(names []string) selection.StringSet {
	if len(names) == 0 {
		return selection.AllOf()
	}
	return selection.SetOf(names...)
}
