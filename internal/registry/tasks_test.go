package registry

import "testing"

func TestTasksAddDuplicateRejected(t *testing.T) {
	tasks := NewTasks()
	if err := tasks.Add(&Task{Name: "build"}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := tasks.Add(&Task{Name: "build", Important: true}); err == nil {
		t.Fatal("expected duplicate-name error on second add")
	}

	got, err := tasks.Get("build")
	if err != nil {
		t.Fatalf("get after rejected duplicate: %v", err)
	}
	if got.Important {
		t.Fatal("first registration was overwritten by the rejected duplicate")
	}
}

func TestTasksInsertionOrderPreserved(t *testing.T) {
	tasks := NewTasks()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		if err := tasks.Add(&Task{Name: n}); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}

	all := tasks.All()
	if len(all) != len(names) {
		t.Fatalf("want %d tasks, got %d", len(names), len(all))
	}
	for i, want := range names {
		if all[i].Name != want {
			t.Fatalf("position %d: want %s, got %s", i, want, all[i].Name)
		}
	}
}

func TestTasksImplicitSelfTag(t *testing.T) {
	tasks := NewTasks()
	if err := tasks.Add(&Task{Name: "deploy"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	task, err := tasks.Get("deploy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := task.Tags["deploy"]; !ok {
		t.Fatal("task's own name was not added to its tags")
	}
}

func TestTasksResetExecutionState(t *testing.T) {
	tasks := NewTasks()
	_ = tasks.Add(&Task{Name: "t"})

	if err := tasks.SetState("t", TaskStateSuccess); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := tasks.SetError("t", "boom"); err != nil {
		t.Fatalf("set error: %v", err)
	}

	tasks.ResetExecutionState()

	task, _ := tasks.Get("t")
	if task.State() != nil {
		t.Fatal("state was not reset")
	}
	if task.Error() != nil {
		t.Fatal("error was not reset")
	}
}

func TestParseOnFailRejectsUnknown(t *testing.T) {
	if _, err := ParseOnFail("retry"); err == nil {
		t.Fatal("expected parse error for unknown on_fail value")
	}
	for _, v := range []OnFail{OnFailContinue, OnFailSkipSystem, OnFailAbort} {
		got, err := ParseOnFail(string(v))
		if err != nil {
			t.Fatalf("ParseOnFail(%q): %v", v, err)
		}
		if got != v {
			t.Fatalf("ParseOnFail(%q) = %q", v, got)
		}
	}
}
