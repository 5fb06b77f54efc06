package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/myfavshrimp/arc/internal/registry"
)

// ValidationError collects every validation failure found, grouped by
// kind, so the CLI can report them all together rather than one at a time
// (spec.md §4.5).
type ValidationError struct {
	MissingGroups  []string
	MissingSystems []string
	MissingTags    []string
	UndefinedRequires map[string][]string // task name -> requires tags
	UnknownGroupMembers map[string][]string // group name -> unknown member names
}

func (e *ValidationError) HasErrors() bool {
	return len(e.MissingGroups) > 0 || len(e.MissingSystems) > 0 || len(e.MissingTags) > 0 ||
		len(e.UndefinedRequires) > 0 || len(e.UnknownGroupMembers) > 0
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if len(e.MissingGroups) > 0 {
		fmt.Fprintf(&b, "missing selected groups %v\n", e.MissingGroups)
	}
	if len(e.MissingSystems) > 0 {
		fmt.Fprintf(&b, "missing selected systems %v\n", e.MissingSystems)
	}
	if len(e.MissingTags) > 0 {
		fmt.Fprintf(&b, "missing selected tags %v\n", e.MissingTags)
	}
	if len(e.UndefinedRequires) > 0 {
		names := make([]string, 0, len(e.UndefinedRequires))
		for n := range e.UndefinedRequires {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&b, "undefined requires for task %q: %v\n", n, e.UndefinedRequires[n])
		}
	}
	if len(e.UnknownGroupMembers) > 0 {
		names := make([]string, 0, len(e.UnknownGroupMembers))
		for n := range e.UnknownGroupMembers {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&b, "group %q references unknown systems %v\n", n, e.UnknownGroupMembers[n])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Validate checks, before execution, that every explicitly-selected name
// exists, every surviving task's requires tags are defined, and every
// group's members reference defined systems. It returns nil when there are
// no failures.
func Validate(systems *registry.Systems, groups *registry.Groups, tasks *registry.Tasks, f Filter, plan Plan) error {
	result := &ValidationError{UndefinedRequires: map[string][]string{}, UnknownGroupMembers: map[string][]string{}}

	if !f.Groups.All {
		for name := range f.Groups.Set {
			if !groups.Has(name) {
				result.MissingGroups = append(result.MissingGroups, name)
			}
		}
	}
	if !f.Systems.All {
		for name := range f.Systems.Set {
			if !systems.Has(name) {
				result.MissingSystems = append(result.MissingSystems, name)
			}
		}
	}
	if !f.Tags.All {
		allTags := make(map[string]bool)
		for _, t := range tasks.All() {
			for tag := range t.Tags {
				allTags[tag] = true
			}
		}
		for name := range f.Tags.Set {
			if !allTags[name] {
				result.MissingTags = append(result.MissingTags, name)
			}
		}
	}

	definedTags := make(map[string]bool)
	for _, t := range tasks.All() {
		for tag := range t.Tags {
			definedTags[tag] = true
		}
	}
	for _, t := range plan.Tasks {
		for tag := range t.Requires {
			if !definedTags[tag] {
				result.UndefinedRequires[t.Name] = append(result.UndefinedRequires[t.Name], tag)
			}
		}
		sort.Strings(result.UndefinedRequires[t.Name])
	}

	for _, g := range groups.All() {
		var unknown []string
		for _, m := range g.Members {
			if !systems.Has(m) {
				unknown = append(unknown, m)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			result.UnknownGroupMembers[g.Name] = unknown
		}
	}

	sort.Strings(result.MissingGroups)
	sort.Strings(result.MissingSystems)
	sort.Strings(result.MissingTags)

	if !result.HasErrors() {
		return nil
	}
	return result
}
