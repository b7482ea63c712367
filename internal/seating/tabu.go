package seating

// Params bound the tabu search.
type Params struct {
	Iterations int `json:"iterations"`
	TabuLength int `json:"tabu_length"`
	StallLimit int `json:"stall_limit"`
}

// DefaultParams: 100 iterations, the 10 most recent swaps are tabu and the
// search stops after 15 iterations without improvement.
var DefaultParams = Params{Iterations: 100, TabuLength: 10, StallLimit: 15}

func (p Params) withDefaults() Params {
	if p.Iterations <= 0 {
		p.Iterations = DefaultParams.Iterations
	}
	if p.TabuLength <= 0 {
		p.TabuLength = DefaultParams.TabuLength
	}
	if p.StallLimit <= 0 {
		p.StallLimit = DefaultParams.StallLimit
	}
	return p
}

// swapKey identifies an unordered pair of guests.
type swapKey struct{ lo, hi int }

func keyOf(g1, g2 int) swapKey {
	if g1 > g2 {
		g1, g2 = g2, g1
	}
	return swapKey{g1, g2}
}

// tabuList is a bounded FIFO of recent swaps.
type tabuList struct {
	max   int
	queue []swapKey
	set   map[swapKey]int
}

func newTabuList(max int) *tabuList {
	return &tabuList{max: max, set: make(map[swapKey]int)}
}

func (tl *tabuList) contains(k swapKey) bool { return tl.set[k] > 0 }

func (tl *tabuList) push(k swapKey) {
	tl.queue = append(tl.queue, k)
	tl.set[k]++
	for len(tl.queue) > tl.max {
		old := tl.queue[0]
		tl.queue = tl.queue[1:]
		if tl.set[old]--; tl.set[old] == 0 {
			delete(tl.set, old)
		}
	}
}

// SearchResult is the outcome of Optimize.
type SearchResult struct {
	Best         *Assignment
	BestScore    int
	InitialScore int
	Iterations   int
	// Trace holds the best score after each iteration; it never decreases.
	Trace []int

	// pair attempted in each iteration that had a candidate, accepted or not
	moves []swapKey
}

// Optimize improves initial with tabu search over pairwise seat swaps.
// initial is not modified.
//
// Each iteration looks at every unordered guest pair, so one iteration is
// O(n²) candidate moves.  Candidates are scored with Scorer.Delta, which
// equals a full rescore of the swapped assignment.
func Optimize(snap *Snapshot, sc *Scorer, initial *Assignment, p Params) SearchResult {
	p = p.withDefaults()
	current := initial.Clone()
	currentScore := sc.Score(current)
	res := SearchResult{
		Best:         current.Clone(),
		BestScore:    currentScore,
		InitialScore: currentScore,
	}
	tabu := newTabuList(p.TabuLength)
	stall := 0
	n := len(snap.Guests)

	for res.Iterations < p.Iterations && stall < p.StallLimit {
		res.Iterations++
		found := false
		var move swapKey
		var moveScore int
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				k := swapKey{i, j}
				if tabu.contains(k) || !accessibleSwap(snap, current, i, j) {
					continue
				}
				s := currentScore + sc.Delta(current, i, j)
				if !found || s > moveScore {
					found, move, moveScore = true, k, s
				}
			}
		}
		if !found {
			stall++
			res.Trace = append(res.Trace, res.BestScore)
			continue
		}
		if moveScore > res.BestScore {
			current.Swap(move.lo, move.hi)
			currentScore = moveScore
			res.Best = current.Clone()
			res.BestScore = moveScore
			stall = 0
		} else {
			stall++
		}
		tabu.push(move)
		res.moves = append(res.moves, move)
		res.Trace = append(res.Trace, res.BestScore)
	}
	return res
}

// accessibleSwap reports whether swapping g1 and g2 keeps every guest who
// needs an accessible seat out of non-accessible tables they are not
// already at.
func accessibleSwap(snap *Snapshot, a *Assignment, g1, g2 int) bool {
	t1, t2 := a.TableOf(g1), a.TableOf(g2)
	if t1 == t2 {
		return true
	}
	if snap.Guests[g1].NeedsAccessibleSeat && !snap.Tables[t2].IsAccessible {
		return false
	}
	if snap.Guests[g2].NeedsAccessibleSeat && !snap.Tables[t1].IsAccessible {
		return false
	}
	return true
}
