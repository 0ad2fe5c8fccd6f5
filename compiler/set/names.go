package set

type (
	// Names maps names to dense ids in first-seen order.
	Names struct {
		ids   map[string]int
		names []string
	}

	// NameSet is a set of names backed by Bits.
	NameSet struct {
		Names
		Bits[int]
	}
)

func (n *Names) ID(name string) int {
	if id, ok := n.ids[name]; ok {
		return id
	}

	if n.ids == nil {
		n.ids = map[string]int{}
	}

	id := len(n.names)
	n.ids[name] = id
	n.names = append(n.names, name)

	return id
}

// Lookup returns the id of an already seen name.
func (n *Names) Lookup(name string) (int, bool) {
	id, ok := n.ids[name]
	return id, ok
}

func (n *Names) Name(id int) string {
	return n.names[id]
}

func (s *NameSet) Add(name string) {
	s.Set(s.ID(name))
}

func (s *NameSet) Has(name string) bool {
	id, ok := s.Lookup(name)

	return ok && s.IsSet(id)
}

// List returns the member names in first-seen order.
func (s *NameSet) List() (r []string) {
	s.Range(func(id int) bool {
		r = append(r, s.Name(id))
		return true
	})

	return r
}
