package seating

import (
	"fmt"
	"sort"
)

// DiagnosticKind classifies a soft-constraint shortfall recorded while
// building the initial assignment.
type DiagnosticKind string

const (
	// AccessibilityShortfall: a guest needing an accessible seat was placed
	// at a non-accessible table because accessible capacity ran out.
	AccessibilityShortfall DiagnosticKind = "accessibility_shortfall"
	// FamilySplit: no single table could take a whole family.
	FamilySplit DiagnosticKind = "family_split"
	// GroupSplit: no single table could take a whole preference group.
	GroupSplit DiagnosticKind = "group_split"
)

// Diagnostic reports a non-fatal placement compromise.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	GuestID uint64         `json:"guest_id,omitempty"`
	Group   string         `json:"group,omitempty"`
	Message string         `json:"message"`
}

// builder carries the mutable state of the constructive pass.
type builder struct {
	snap   *Snapshot
	a      *Assignment
	used   []int // seats taken per table
	diags  []Diagnostic
	groups groupIndex
}

// Construct builds a feasible initial assignment in five tiers:
// accessible families, accessible individuals, remaining families,
// preference groups and leftover individuals.  Guests seated by an earlier
// tier are never moved by a later one.
func Construct(snap *Snapshot) (*Assignment, []Diagnostic, error) {
	b := &builder{
		snap:   snap,
		a:      newAssignment(snap),
		used:   make([]int, len(snap.Tables)),
		groups: buildGroups(snap.Guests),
	}
	if len(snap.Guests) > snap.Capacity() {
		return nil, nil, ErrCapacityExceeded
	}

	families := make([]group, len(b.groups.families))
	copy(families, b.groups.families)
	sort.SliceStable(families, func(i, j int) bool {
		ni, nj := b.hasNeed(families[i].members), b.hasNeed(families[j].members)
		if ni != nj {
			return ni
		}
		return len(families[i].members) > len(families[j].members)
	})

	steps := []func([]group) error{
		b.accessibleFamilies,
		b.accessibleIndividuals,
		b.remainingFamilies,
		b.preferenceGroups,
		b.leftovers,
	}
	for _, step := range steps {
		if err := step(families); err != nil {
			return nil, nil, err
		}
	}
	for g := range snap.Guests {
		if b.a.seatOf[g] < 0 {
			return nil, nil, fmt.Errorf("%w: guest %d left unplaced", ErrInternal, snap.Guests[g].ID)
		}
	}
	return b.a, b.diags, nil
}

func (b *builder) accessibleFamilies(families []group) error {
	for _, fam := range families {
		members := b.unseated(fam.members)
		if len(members) == 0 || !b.hasNeed(members) {
			continue
		}
		loc := b.majorityLocation(members)
		t := -1
		if loc != "" {
			t = b.firstFit(len(members), func(t Table) bool { return t.IsAccessible && t.Location == loc })
		}
		if t < 0 {
			t = b.firstFit(len(members), func(t Table) bool { return t.IsAccessible })
		}
		if t >= 0 {
			b.seatAll(members, t)
			continue
		}

		b.note(Diagnostic{Kind: FamilySplit, Group: fam.key,
			Message: fmt.Sprintf("no accessible table fits family of %d", len(members))})
		var tables []int
		for _, g := range members {
			if !b.snap.Guests[g].NeedsAccessibleSeat {
				continue
			}
			t, err := b.seatAccessible(g)
			if err != nil {
				return err
			}
			tables = append(tables, t)
		}
		for _, g := range members {
			if b.a.seatOf[g] >= 0 {
				continue
			}
			placed := false
			for _, t := range tables {
				if b.room(t) > 0 {
					b.seat(g, t)
					placed = true
					break
				}
			}
			if placed {
				continue
			}
			if err := b.seatSingle(g); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) accessibleIndividuals([]group) error {
	for g, guest := range b.snap.Guests {
		if !guest.NeedsAccessibleSeat || b.a.seatOf[g] >= 0 {
			continue
		}
		if _, err := b.seatAccessible(g); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) remainingFamilies(families []group) error {
	for _, fam := range families {
		members := b.unseated(fam.members)
		if len(members) == 0 {
			continue
		}
		loc := b.majorityLocation(members)
		t := -1
		if loc != "" {
			t = b.firstFit(len(members), func(t Table) bool { return t.Location == loc })
		}
		if t < 0 {
			t = b.firstFit(len(members), anyTable)
		}
		if t >= 0 {
			b.seatAll(members, t)
			continue
		}

		b.note(Diagnostic{Kind: FamilySplit, Group: fam.key,
			Message: fmt.Sprintf("no table fits family of %d", len(members))})
		for _, subset := range b.byLocation(members) {
			if err := b.seatTogether(subset.key, subset.members); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) preferenceGroups([]group) error {
	var labels []string
	seen := make(map[string]bool)
	for g, guest := range b.snap.Guests {
		if b.a.seatOf[g] >= 0 {
			continue
		}
		for _, l := range guest.Preferences {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	for _, label := range labels {
		var members []int
		for g, guest := range b.snap.Guests {
			if b.a.seatOf[g] < 0 && hasLabel(guest.Preferences, label) {
				members = append(members, g)
			}
		}
		if len(members) == 0 {
			continue
		}
		loc := b.majorityLocation(members)
		t := -1
		if loc != "" {
			t = b.firstFit(len(members), func(t Table) bool { return t.Location == loc })
		}
		if t < 0 {
			t = b.firstFit(len(members), anyTable)
		}
		if t >= 0 {
			b.seatAll(members, t)
			continue
		}
		b.note(Diagnostic{Kind: GroupSplit, Group: label,
			Message: fmt.Sprintf("no table fits preference group of %d", len(members))})
		for _, g := range members {
			if err := b.seatSingle(g); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) leftovers([]group) error {
	for g := range b.snap.Guests {
		if b.a.seatOf[g] >= 0 {
			continue
		}
		if err := b.seatSingle(g); err != nil {
			return err
		}
	}
	return nil
}

// seatTogether places members at one table preferring location loc, and
// falls back to per-guest placement when nothing fits them all.
func (b *builder) seatTogether(loc string, members []int) error {
	t := -1
	if loc != "" {
		t = b.firstFit(len(members), func(t Table) bool { return t.Location == loc })
	}
	if t < 0 {
		t = b.firstFit(len(members), anyTable)
	}
	if t >= 0 {
		b.seatAll(members, t)
		return nil
	}
	for _, g := range members {
		if err := b.seatSingle(g); err != nil {
			return err
		}
	}
	return nil
}

// seatAccessible places a guest at the first accessible table with room,
// else at any table with a shortfall diagnostic.
func (b *builder) seatAccessible(g int) (int, error) {
	t := b.firstFit(1, func(t Table) bool { return t.IsAccessible })
	if t < 0 {
		t = b.firstFit(1, anyTable)
		if t < 0 {
			return -1, fmt.Errorf("%w: no seat left for guest %d", ErrInternal, b.snap.Guests[g].ID)
		}
		b.note(Diagnostic{Kind: AccessibilityShortfall, GuestID: b.snap.Guests[g].ID,
			Message: "accessible seating exhausted; seated at a non-accessible table"})
	}
	b.seat(g, t)
	return t, nil
}

// seatSingle places a guest at the first table matching its location
// preference, else at the first table with a free seat.
func (b *builder) seatSingle(g int) error {
	loc := b.snap.Guests[g].LocationPreference
	t := -1
	if loc != "" {
		t = b.firstFit(1, func(t Table) bool { return t.Location == loc })
	}
	if t < 0 {
		t = b.firstFit(1, anyTable)
	}
	if t < 0 {
		return fmt.Errorf("%w: no seat left for guest %d", ErrInternal, b.snap.Guests[g].ID)
	}
	b.seat(g, t)
	return nil
}

func anyTable(Table) bool { return true }

// firstFit returns the first table accepted by ok with at least size free
// seats, or -1.
func (b *builder) firstFit(size int, ok func(Table) bool) int {
	for t, table := range b.snap.Tables {
		if b.room(t) >= size && ok(table) {
			return t
		}
	}
	return -1
}

func (b *builder) room(t int) int { return b.snap.Tables[t].MaxSeats - b.used[t] }

func (b *builder) seat(g, t int) {
	b.used[t]++
	b.a.place(g, b.snap.seatIndex(t, b.used[t]))
}

func (b *builder) seatAll(members []int, t int) {
	for _, g := range members {
		b.seat(g, t)
	}
}

func (b *builder) note(d Diagnostic) { b.diags = append(b.diags, d) }

func (b *builder) unseated(members []int) []int {
	var out []int
	for _, g := range members {
		if b.a.seatOf[g] < 0 {
			out = append(out, g)
		}
	}
	return out
}

func (b *builder) hasNeed(members []int) bool {
	for _, g := range members {
		if b.snap.Guests[g].NeedsAccessibleSeat {
			return true
		}
	}
	return false
}

// majorityLocation returns the most common non-empty location preference
// among members; ties go to the one seen first.
func (b *builder) majorityLocation(members []int) string {
	counts := make(map[string]int)
	var order []string
	for _, g := range members {
		loc := b.snap.Guests[g].LocationPreference
		if loc == "" {
			continue
		}
		if counts[loc] == 0 {
			order = append(order, loc)
		}
		counts[loc]++
	}
	best, bestN := "", 0
	for _, loc := range order {
		if counts[loc] > bestN {
			best, bestN = loc, counts[loc]
		}
	}
	return best
}

// byLocation partitions members by location preference.  Subsets with a
// preference come first in order of appearance; guests without one form
// the last subset.
func (b *builder) byLocation(members []int) []group {
	var out []group
	pos := make(map[string]int)
	var rest []int
	for _, g := range members {
		loc := b.snap.Guests[g].LocationPreference
		if loc == "" {
			rest = append(rest, g)
			continue
		}
		p, ok := pos[loc]
		if !ok {
			p = len(out)
			pos[loc] = p
			out = append(out, group{key: loc})
		}
		out[p].members = append(out[p].members, g)
	}
	if len(rest) > 0 {
		out = append(out, group{members: rest})
	}
	return out
}
