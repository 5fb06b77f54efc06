package registry

// Group is a named set of system names, usable as a selector. Membership
// against the Systems registry is checked by the validator, not here.
type Group struct {
	Name    string
	Members []string
}

// Groups is the process-wide registry of target groups.
type Groups struct {
	e *entries[Group]
}

func NewGroups() *Groups {
	return &Groups{e: newEntries[Group]("group")}
}

func (g *Groups) Add(group Group) error {
	return g.e.add(group.Name, group)
}

func (g *Groups) Get(name string) (Group, error) {
	return g.e.get(name)
}

func (g *Groups) Has(name string) bool {
	return g.e.has(name)
}

func (g *Groups) All() []Group {
	return g.e.all()
}

func (g *Groups) Names() []string {
	return g.e.names()
}
