package seating

// Weights are the objective coefficients.  Their relative order matters
// more than their magnitude: accessibility dominates family cohesion,
// which dominates location, which dominates preference groups, which
// dominate the pairwise terms.
type Weights struct {
	Accessibility     int `json:"accessibility"`
	Family            int `json:"family"`
	Location          int `json:"location"`
	Group             int `json:"group"`
	SharedPreference  int `json:"shared_preference"`
	SharedRestriction int `json:"shared_restriction"`
}

// DefaultWeights is the standard objective.
var DefaultWeights = Weights{
	Accessibility:     50000,
	Family:            5000,
	Location:          2000,
	Group:             1000,
	SharedPreference:  1,
	SharedRestriction: 2,
}

type cohesionGroup struct {
	members []int
	weight  int
}

// Scorer evaluates assignments of one snapshot.  All guest-pair affinities
// and group memberships are computed once in NewScorer, so Score and Delta
// are pure lookups.
type Scorer struct {
	snap     *Snapshot
	w        Weights
	affinity [][]int // symmetric; affinity[i][j] is the pair's total
	groups   []cohesionGroup
	groupsOf [][]int // guest index -> indexes into groups
}

// NewScorer prepares a scorer for snap.
func NewScorer(snap *Snapshot, w Weights) *Scorer {
	n := len(snap.Guests)
	sc := &Scorer{
		snap:     snap,
		w:        w,
		affinity: make([][]int, n),
		groupsOf: make([][]int, n),
	}
	for i := range sc.affinity {
		sc.affinity[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := sc.directed(i, j) + sc.directed(j, i)
			sc.affinity[i][j] = v
			sc.affinity[j][i] = v
		}
	}

	idx := buildGroups(snap.Guests)
	add := func(members []int, weight int) {
		id := len(sc.groups)
		sc.groups = append(sc.groups, cohesionGroup{members: members, weight: weight})
		for _, g := range members {
			sc.groupsOf[g] = append(sc.groupsOf[g], id)
		}
	}
	for _, f := range idx.families {
		add(f.members, w.Family)
	}
	for _, p := range idx.preferences {
		if len(p.members) > 1 {
			add(p.members, w.Group)
		}
	}
	return sc
}

// directed scores what guest a contributes towards guest b when they share
// a table: a's preferences found among b's preferences or restriction tags
// count in favour, a's restriction tags found among either of b's lists
// count against.
func (sc *Scorer) directed(a, b int) int {
	ga, gb := sc.snap.Guests[a], sc.snap.Guests[b]
	v := 0
	for _, p := range ga.Preferences {
		if hasLabel(gb.Preferences, p) {
			v += sc.w.SharedPreference
		}
		if hasLabel(gb.RestrictionTags, p) {
			v += sc.w.SharedPreference
		}
	}
	for _, r := range ga.RestrictionTags {
		if hasLabel(gb.Preferences, r) {
			v -= sc.w.SharedRestriction
		}
		if hasLabel(gb.RestrictionTags, r) {
			v -= sc.w.SharedRestriction
		}
	}
	return v
}

// unary is the score of guest g sitting at table t, ignoring neighbours.
func (sc *Scorer) unary(g, t int) int {
	guest, table := sc.snap.Guests[g], sc.snap.Tables[t]
	v := 0
	if guest.NeedsAccessibleSeat {
		if table.IsAccessible {
			v += sc.w.Accessibility
		} else {
			v -= sc.w.Accessibility
		}
	}
	if guest.LocationPreference != "" && guest.LocationPreference == table.Location {
		v += sc.w.Location
	}
	return v
}

func (sc *Scorer) cohesion(gr cohesionGroup, tableOf func(int) int) int {
	t := tableOf(gr.members[0])
	for _, g := range gr.members[1:] {
		if tableOf(g) != t {
			return -gr.weight
		}
	}
	return gr.weight
}

// Score returns the full objective value of a.  Every guest must be seated.
func (sc *Scorer) Score(a *Assignment) int {
	total := 0
	for g := range sc.snap.Guests {
		total += sc.unary(g, a.TableOf(g))
	}
	for _, gr := range sc.groups {
		total += sc.cohesion(gr, a.TableOf)
	}
	var buf []int
	for t := range sc.snap.Tables {
		buf = a.guestsAt(buf[:0], t)
		for i := 0; i < len(buf); i++ {
			for j := i + 1; j < len(buf); j++ {
				total += sc.affinity[buf[i]][buf[j]]
			}
		}
	}
	return total
}

// Delta returns Score(a after Swap(g1, g2)) - Score(a) without mutating a.
// Only terms touching g1 or g2 can change, so the cost is linear in the
// size of the two tables and the groups the two guests belong to.
func (sc *Scorer) Delta(a *Assignment, g1, g2 int) int {
	t1, t2 := a.TableOf(g1), a.TableOf(g2)
	if t1 == t2 {
		return 0
	}
	d := sc.unary(g1, t2) + sc.unary(g2, t1) - sc.unary(g1, t1) - sc.unary(g2, t2)

	for _, m := range a.guestsAt(nil, t1) {
		if m == g1 {
			continue
		}
		d += sc.affinity[g2][m] - sc.affinity[g1][m]
	}
	for _, m := range a.guestsAt(nil, t2) {
		if m == g2 {
			continue
		}
		d += sc.affinity[g1][m] - sc.affinity[g2][m]
	}

	swapped := func(g int) int {
		switch g {
		case g1:
			return t2
		case g2:
			return t1
		}
		return a.TableOf(g)
	}
	seen := make(map[int]bool, len(sc.groupsOf[g1])+len(sc.groupsOf[g2]))
	for _, ids := range [][]int{sc.groupsOf[g1], sc.groupsOf[g2]} {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			gr := sc.groups[id]
			d += sc.cohesion(gr, swapped) - sc.cohesion(gr, a.TableOf)
		}
	}
	return d
}
