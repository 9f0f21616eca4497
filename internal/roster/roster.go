package roster

import "time"

// Roster is the set of tracked members keyed by canonical name. Iteration
// order follows the authoritative list the roster was last reconciled with.
type Roster struct {
	members map[string]*Member
	order   []string
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{members: make(map[string]*Member)}
}

// Reconcile builds the roster for the current authoritative list. Names are
// normalized and deduplicated; a repeated name takes the position of its last
// occurrence. Members of old whose name is still listed are
// carried over with their watermark and error count intact; everyone else
// starts fresh. old is left untouched apart from the carried-over members,
// which now belong to the result.
func Reconcile(old *Roster, names []string) *Roster {
	next := &Roster{
		members: make(map[string]*Member, len(names)),
		order:   make([]string, 0, len(names)),
	}
	normalized := make([]string, len(names))
	last := make(map[string]int, len(names))
	for i, raw := range names {
		normalized[i] = NormalizeName(raw)
		last[normalized[i]] = i
	}
	for i, name := range normalized {
		if name == "" || last[name] != i {
			continue
		}
		m := old.Get(name)
		if m == nil {
			m = &Member{name: name}
		}
		next.members[name] = m
		next.order = append(next.order, name)
	}
	return next
}

// Len returns the number of members.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Get looks a member up by canonical name. A nil roster has no members.
func (r *Roster) Get(name string) *Member {
	if r == nil {
		return nil
	}
	return r.members[name]
}

// Members returns the members in iteration order.
func (r *Roster) Members() []*Member {
	if r == nil {
		return nil
	}
	out := make([]*Member, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.members[name])
	}
	return out
}

// Untrackable counts members whose error count has reached limit.
func (r *Roster) Untrackable(limit int) int {
	n := 0
	for _, m := range r.Members() {
		if !m.Trackable(limit) {
			n++
		}
	}
	return n
}

// Record is the persisted form of a member. Error counts are not persisted.
type Record struct {
	Name      string
	LastEvent *time.Time
}

// Records snapshots the roster for persistence.
func (r *Roster) Records() []Record {
	members := r.Members()
	out := make([]Record, 0, len(members))
	for _, m := range members {
		out = append(out, Record{Name: m.name, LastEvent: m.LastEvent()})
	}
	return out
}

// FromRecords rebuilds a roster from persisted records. Later duplicates of
// a name are ignored.
func FromRecords(records []Record) *Roster {
	r := New()
	for _, rec := range records {
		name := NormalizeName(rec.Name)
		if name == "" {
			continue
		}
		if _, dup := r.members[name]; dup {
			continue
		}
		m := &Member{name: name}
		if rec.LastEvent != nil {
			t := rec.LastEvent.UTC()
			m.lastEvent = &t
		}
		r.members[name] = m
		r.order = append(r.order, name)
	}
	return r
}
