package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/myfavshrimp/arc/internal/delegator"
	"github.com/myfavshrimp/arc/internal/errutil"
	"github.com/myfavshrimp/arc/internal/progress"
	"github.com/myfavshrimp/arc/internal/script"
)

var listJSON bool

var cmdList = &cobra.Command{
	Use:       "list {tasks|groups|systems}",
	Short:     "List registry entries after script load",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"tasks", "groups", "systems"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(args[0])
	},
}

func init() {
	cmdList.Flags().BoolVar(&listJSON, "json", false, "emit JSON instead of a table")
}

func runList(kind string) error {
	loadDotEnv()

	st := script.New(".", progress.NoopSink{})
	defer st.Close()
	st.BindHost(delegator.NewLocal())

	if err := st.LoadFile("arc.lua"); err != nil {
		return errutil.NewFatal("loading arc.lua: %v", err)
	}

	switch kind {
	case "tasks":
		return listTasks(st)
	case "groups":
		return listGroups(st)
	case "systems":
		return listSystems(st)
	}
	return fmt.Errorf("unknown list target %q", kind)
}

func listTasks(st *script.State) error {
	type row struct {
		Name     string   `json:"name"`
		Tags     []string `json:"tags"`
		Groups   []string `json:"groups"`
		Requires []string `json:"requires"`
		OnFail   string   `json:"on_fail"`
	}

	var rows []row
	for _, t := range st.Tasks.All() {
		rows = append(rows, row{
			Name:     t.Name,
			Tags:     sortedSetKeys(t.Tags),
			Groups:   sortedSetKeys(t.Groups),
			Requires: sortedSetKeys(t.Requires),
			OnFail:   string(t.OnFail),
		})
	}

	if listJSON {
		return printJSON(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tON_FAIL\tTAGS\tREQUIRES")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", r.Name, r.OnFail, r.Tags, r.Requires)
	}
	return w.Flush()
}

func listGroups(st *script.State) error {
	type row struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}

	var rows []row
	for _, g := range st.Groups.All() {
		rows = append(rows, row{Name: g.Name, Members: g.Members})
	}

	if listJSON {
		return printJSON(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMEMBERS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%v\n", r.Name, r.Members)
	}
	return w.Flush()
}

func listSystems(st *script.State) error {
	type row struct {
		Name    string `json:"name"`
		IsLocal bool   `json:"is_local"`
		Address string `json:"address,omitempty"`
		Port    uint16 `json:"port,omitempty"`
		User    string `json:"user,omitempty"`
	}

	var rows []row
	for _, s := range st.Systems.All() {
		r := row{Name: s.Name, IsLocal: s.IsLocal}
		if !s.IsLocal {
			r.Address = s.Address.String()
			r.Port = s.Port
			r.User = s.User
		}
		rows = append(rows, r)
	}

	if listJSON {
		return printJSON(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tPORT\tUSER")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Name, r.Address, r.Port, r.User)
	}
	return w.Flush()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedSetKeys(set map[string]struct{}) []string {
	var out []string
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
