package registry

import (
	"net"
	"testing"
)

func TestSystemsAddDuplicateRejected(t *testing.T) {
	systems := NewSystems()
	first := System{Name: "a", Address: net.ParseIP("127.0.0.1"), Port: 22}
	if err := systems.Add(first); err != nil {
		t.Fatalf("first add: %v", err)
	}

	second := System{Name: "a", Address: net.ParseIP("10.0.0.1"), Port: 2200}
	if err := systems.Add(second); err == nil {
		t.Fatal("expected duplicate-name error")
	}

	got, err := systems.Get("a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Address.Equal(first.Address) {
		t.Fatal("first registration was overwritten")
	}
}

func TestGroupsMembersPreserved(t *testing.T) {
	groups := NewGroups()
	if err := groups.Add(Group{Name: "web", Members: []string{"a", "c"}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := groups.Get("web")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Members) != 2 || got.Members[0] != "a" || got.Members[1] != "c" {
		t.Fatalf("unexpected members: %v", got.Members)
	}
}

func TestGroupsNotDefined(t *testing.T) {
	groups := NewGroups()
	if _, err := groups.Get("nope"); err == nil {
		t.Fatal("expected not-defined error")
	}
}
