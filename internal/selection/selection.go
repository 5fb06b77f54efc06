// Package selection implements the filter-to-plan algorithm (spec.md §4.4)
// and the pre-execution validator (spec.md §4.5).
package selection

import (
	"sort"

	"github.com/myfavshrimp/arc/internal/registry"
)

// StringSet is a selection filter over names: either "every name" (All) or
// an explicit set.
type StringSet struct {
	All  bool
	Set  map[string]struct{}
}

func AllOf() StringSet { return StringSet{All: true} }

func SetOf(names ...string) StringSet {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return StringSet{Set: s}
}

func (s StringSet) contains(name string) bool {
	if s.All {
		return true
	}
	_, ok := s.Set[name]
	return ok
}

// Filter is the engine's input: the user-supplied selection plus the
// no-deps flag.
type Filter struct {
	Groups  StringSet
	Tags    StringSet
	Systems StringSet
	NoDeps  bool
}

// Plan is the ordered sequence of tasks the planner emits, in registry
// insertion order restricted to the retained set.
type Plan struct {
	Tasks       []*registry.Task
	Systems     []registry.System
	UndefinedDeps map[string][]string // task name -> requires tags never defined
}

// Resolve runs the 5-step algorithm from spec.md §4.4.
func Resolve(systems *registry.Systems, groups *registry.Groups, tasks *registry.Tasks, f Filter) Plan {
	selectedGroups := selectGroups(groups, f.Groups)
	selectedSystems := selectSystems(systems, selectedGroups, f.Systems, f.Groups)

	allTasks := tasks.All()
	retained := make(map[string]*registry.Task)
	for _, t := range allTasks {
		if !taskMatchesGroups(t, f.Groups) {
			continue
		}
		if !t.Important && !taskMatchesTags(t, f.Tags) {
			continue
		}
		retained[t.Name] = t
	}

	undefined := map[string][]string{}
	if !f.NoDeps {
		expandDependencies(allTasks, retained, f.Groups, undefined)
	}

	// Final order: registry insertion order restricted to the retained set.
	var plan []*registry.Task
	for _, t := range allTasks {
		if _, ok := retained[t.Name]; ok {
			plan = append(plan, t)
		}
	}

	return Plan{Tasks: plan, Systems: selectedSystems, UndefinedDeps: undefined}
}

func selectGroups(groups *registry.Groups, sel StringSet) []registry.Group {
	var out []registry.Group
	for _, g := range groups.All() {
		if sel.contains(g.Name) {
			out = append(out, g)
		}
	}
	return out
}

func selectSystems(systems *registry.Systems, selectedGroups []registry.Group, sysSel, groupSel StringSet) []registry.System {
	memberOf := make(map[string]bool)
	for _, g := range selectedGroups {
		for _, m := range g.Members {
			memberOf[m] = true
		}
	}

	var out []registry.System
	for _, s := range systems.All() {
		if !sysSel.contains(s.Name) {
			continue
		}
		if groupSel.All {
			out = append(out, s)
			continue
		}
		if memberOf[s.Name] {
			out = append(out, s)
		}
	}
	return out
}

func taskMatchesGroups(t *registry.Task, groupSel StringSet) bool {
	if groupSel.All {
		return true
	}
	return intersects(t.Groups, groupSel.Set)
}

func taskMatchesTags(t *registry.Task, tagSel StringSet) bool {
	if tagSel.All {
		return true
	}
	return intersects(t.Tags, tagSel.Set)
}

func intersects(a map[string]struct{}, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// expandDependencies pulls in, to a fixed point, every task whose tags
// satisfy a requires entry already present in the retained set, as long as
// the candidate matches the group filter. Any requires tag that never
// appears on any task's tags is recorded as undefined rather than silently
// skipped (spec.md §4.4 step 4, §4.5).
func expandDependencies(all []*registry.Task, retained map[string]*registry.Task, groupSel StringSet, undefined map[string][]string) {
	allTagsDefined := make(map[string]bool)
	for _, t := range all {
		for tag := range t.Tags {
			allTagsDefined[tag] = true
		}
	}

	for {
		changed := false

		var requiresNow []string
		for name := range retained {
			requiresNow = append(requiresNow, name)
		}
		sort.Strings(requiresNow)

		for _, name := range requiresNow {
			task := retained[name]
			var missing []string
			for reqTag := range task.Requires {
				if !allTagsDefined[reqTag] {
					missing = append(missing, reqTag)
					continue
				}
				for _, candidate := range all {
					if _, already := retained[candidate.Name]; already {
						continue
					}
					if !taskMatchesGroups(candidate, groupSel) {
						continue
					}
					if _, hasTag := candidate.Tags[reqTag]; hasTag {
						retained[candidate.Name] = candidate
						changed = true
					}
				}
			}
			if len(missing) > 0 {
				sort.Strings(missing)
				undefined[name] = missing
			}
		}

		if !changed {
			break
		}
	}
}
