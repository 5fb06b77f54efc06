package selection

import (
	"net"
	"testing"

	"github.com/myfavshrimp/arc/internal/registry"
)

func taskNames(plan Plan) []string {
	var out []string
	for _, t := range plan.Tasks {
		out = append(out, t.Name)
	}
	return out
}

func TestResolveInsertionOrderStability(t *testing.T) {
	tasks := registry.NewTasks()
	for _, n := range []string{"c", "a", "b"} {
		_ = tasks.Add(&registry.Task{Name: n})
	}

	plan := Resolve(registry.NewSystems(), registry.NewGroups(), tasks, Filter{Groups: AllOf(), Tags: AllOf(), Systems: AllOf()})

	got := taskNames(plan)
	want := []string{"c", "a", "b"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("position %d: want %s, got %s", i, w, got[i])
		}
	}
}

func TestResolveDependencyExpansion(t *testing.T) {
	tasks := registry.NewTasks()
	_ = tasks.Add(&registry.Task{Name: "build", Tags: map[string]struct{}{"build": {}}})
	_ = tasks.Add(&registry.Task{
		Name:     "deploy",
		Tags:     map[string]struct{}{"deploy": {}},
		Requires: map[string]struct{}{"build": {}},
	})

	filter := Filter{Groups: AllOf(), Tags: SetOf("deploy"), Systems: AllOf()}

	plan := Resolve(registry.NewSystems(), registry.NewGroups(), tasks, filter)
	got := taskNames(plan)
	if len(got) != 2 || got[0] != "build" || got[1] != "deploy" {
		t.Fatalf("expected [build deploy], got %v", got)
	}

	noDepsFilter := filter
	noDepsFilter.NoDeps = true
	plan2 := Resolve(registry.NewSystems(), registry.NewGroups(), tasks, noDepsFilter)
	got2 := taskNames(plan2)
	if len(got2) != 1 || got2[0] != "deploy" {
		t.Fatalf("with no_deps, expected [deploy], got %v", got2)
	}
}

func TestResolveUndefinedRequiresRecorded(t *testing.T) {
	tasks := registry.NewTasks()
	_ = tasks.Add(&registry.Task{
		Name:     "deploy",
		Tags:     map[string]struct{}{"deploy": {}},
		Requires: map[string]struct{}{"nonexistent": {}},
	})

	plan := Resolve(registry.NewSystems(), registry.NewGroups(), tasks, Filter{Groups: AllOf(), Tags: AllOf(), Systems: AllOf()})
	missing, ok := plan.UndefinedDeps["deploy"]
	if !ok || len(missing) != 1 || missing[0] != "nonexistent" {
		t.Fatalf("expected undefined dependency recorded for deploy, got %v", plan.UndefinedDeps)
	}
}

func TestResolveDependencyExpansionIsIdempotent(t *testing.T) {
	tasks := registry.NewTasks()
	_ = tasks.Add(&registry.Task{Name: "a", Tags: map[string]struct{}{"tag-a": {}}})
	_ = tasks.Add(&registry.Task{Name: "b", Tags: map[string]struct{}{"tag-b": {}}, Requires: map[string]struct{}{"tag-a": {}}})
	_ = tasks.Add(&registry.Task{Name: "c", Tags: map[string]struct{}{"tag-c": {}}, Requires: map[string]struct{}{"tag-b": {}}})

	filter := Filter{Groups: AllOf(), Tags: SetOf("tag-c"), Systems: AllOf()}

	first := Resolve(registry.NewSystems(), registry.NewGroups(), tasks, filter)

	// Feed the already-expanded set back through the expansion step: a fixed
	// point must come back unchanged.
	retained := make(map[string]*registry.Task, len(first.Tasks))
	for _, task := range first.Tasks {
		retained[task.Name] = task
	}
	expandDependencies(tasks.All(), retained, filter.Groups, map[string][]string{})
	var second Plan
	for _, task := range tasks.All() {
		if _, ok := retained[task.Name]; ok {
			second.Tasks = append(second.Tasks, task)
		}
	}

	if len(first.Tasks) != len(second.Tasks) {
		t.Fatalf("re-expanding changed the plan size: %d vs %d", len(first.Tasks), len(second.Tasks))
	}
	for i := range first.Tasks {
		if first.Tasks[i].Name != second.Tasks[i].Name {
			t.Fatalf("re-expanding changed task order at %d", i)
		}
	}
}

func TestResolveGroupFilterSelectsMemberSystems(t *testing.T) {
	systems := registry.NewSystems()
	for _, n := range []string{"a", "b", "c"} {
		_ = systems.Add(registry.System{Name: n, Address: net.ParseIP("127.0.0.1")})
	}
	groups := registry.NewGroups()
	_ = groups.Add(registry.Group{Name: "web", Members: []string{"a", "c"}})

	plan := Resolve(systems, groups, registry.NewTasks(), Filter{
		Groups:  SetOf("web"),
		Tags:    AllOf(),
		Systems: AllOf(),
	})

	if len(plan.Systems) != 2 {
		t.Fatalf("expected 2 systems, got %d", len(plan.Systems))
	}
	names := map[string]bool{}
	for _, s := range plan.Systems {
		names[s.Name] = true
	}
	if !names["a"] || !names["c"] || names["b"] {
		t.Fatalf("expected systems a,c only, got %v", plan.Systems)
	}
}

func TestValidateMissingSelections(t *testing.T) {
	systems := registry.NewSystems()
	groups := registry.NewGroups()
	tasks := registry.NewTasks()

	filter := Filter{Groups: AllOf(), Tags: SetOf("nonexistent"), Systems: AllOf()}
	plan := Resolve(systems, groups, tasks, filter)

	err := Validate(systems, groups, tasks, filter, plan)
	if err == nil {
		t.Fatal("expected validation error for missing tag selection")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.MissingTags) != 1 || ve.MissingTags[0] != "nonexistent" {
		t.Fatalf("unexpected MissingTags: %v", ve.MissingTags)
	}
}
