package seating

// group is a derived set of guests, identified by the contact string
// (families) or the preference label (preference groups).  Members are
// guest indexes in snapshot order.
type group struct {
	key     string
	members []int
}

// groupIndex holds the families and preference groups of a snapshot.  It
// is built once per run; both the constructive pass and the scorer read it.
type groupIndex struct {
	// families with more than one member, in order of first appearance.
	families []group
	// every preference label, in order of first appearance, including
	// labels carried by a single guest.
	preferences []group
}

func buildGroups(guests []Guest) groupIndex {
	var idx groupIndex
	famPos := make(map[string]int)
	var fams []group
	prefPos := make(map[string]int)
	for i, g := range guests {
		if g.ContactInfo != "" {
			p, ok := famPos[g.ContactInfo]
			if !ok {
				p = len(fams)
				famPos[g.ContactInfo] = p
				fams = append(fams, group{key: g.ContactInfo})
			}
			fams[p].members = append(fams[p].members, i)
		}
		for _, label := range g.Preferences {
			p, ok := prefPos[label]
			if !ok {
				p = len(idx.preferences)
				prefPos[label] = p
				idx.preferences = append(idx.preferences, group{key: label})
			}
			idx.preferences[p].members = append(idx.preferences[p].members, i)
		}
	}
	for _, f := range fams {
		if len(f.members) > 1 {
			idx.families = append(idx.families, f)
		}
	}
	return idx
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
