package seating

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anz-davar/event-management/internal/model"
)

func guests(n int) []Guest {
	out := make([]Guest, n)
	for i := range out {
		out[i] = Guest{ID: uint64(i + 1), Name: "guest"}
	}
	return out
}

func solve(t *testing.T, gs []Guest, ts []Table) (*Snapshot, *Result) {
	t.Helper()
	snap, err := NewSnapshot(1, gs, ts)
	require.NoError(t, err)
	res, err := NewEngine(DefaultParams).Solve(snap)
	require.NoError(t, err)
	return snap, res
}

func tableByGuest(res *Result) map[uint64]uint64 {
	out := make(map[uint64]uint64, len(res.Seats))
	for _, p := range res.Seats {
		out[p.GuestID] = p.TableID
	}
	return out
}

func assertFeasible(t *testing.T, snap *Snapshot, res *Result) {
	t.Helper()
	require.Len(t, res.Seats, len(snap.Guests))
	capByTable := make(map[uint64]int)
	for _, tb := range snap.Tables {
		capByTable[tb.ID] = tb.MaxSeats
	}
	perTable := make(map[uint64]int)
	taken := make(map[[2]uint64]bool)
	seen := make(map[uint64]bool)
	for _, p := range res.Seats {
		assert.False(t, seen[p.GuestID], "guest %d seated twice", p.GuestID)
		seen[p.GuestID] = true
		key := [2]uint64{p.TableID, uint64(p.SeatNumber)}
		assert.False(t, taken[key], "seat %v shared", key)
		taken[key] = true
		perTable[p.TableID]++
		assert.GreaterOrEqual(t, p.SeatNumber, 1)
		assert.LessOrEqual(t, p.SeatNumber, capByTable[p.TableID])
	}
	for id, n := range perTable {
		assert.LessOrEqual(t, n, capByTable[id])
	}
}

func TestSingleTableSeatsEveryone(t *testing.T) {
	snap, res := solve(t, guests(4), []Table{{ID: 10, EventTableID: 100, MaxSeats: 4, Location: "front"}})

	assertFeasible(t, snap, res)
	for _, p := range res.Seats {
		assert.Equal(t, uint64(10), p.TableID)
		assert.Equal(t, uint64(100), p.EventTableID)
	}
	assert.Equal(t, 0, res.Score)
}

func TestFamilySharesTable(t *testing.T) {
	gs := guests(2)
	gs[0].ContactInfo = "555-1234"
	gs[1].ContactInfo = "555-1234"
	snap, res := solve(t, gs, []Table{{ID: 1, MaxSeats: 2}, {ID: 2, MaxSeats: 2}})

	assertFeasible(t, snap, res)
	tables := tableByGuest(res)
	assert.Equal(t, tables[1], tables[2])
	assert.Equal(t, DefaultWeights.Family, res.Score)
}

func TestAccessibleGuestGetsAccessibleTable(t *testing.T) {
	gs := guests(1)
	gs[0].NeedsAccessibleSeat = true
	snap, res := solve(t, gs, []Table{
		{ID: 1, MaxSeats: 5},
		{ID: 2, MaxSeats: 1, IsAccessible: true},
	})

	assertFeasible(t, snap, res)
	assert.Equal(t, uint64(2), tableByGuest(res)[1])
	assert.Empty(t, res.Diagnostics)
}

func TestCapacityExceeded(t *testing.T) {
	snap, err := NewSnapshot(1, guests(5), []Table{{ID: 1, MaxSeats: 2}, {ID: 2, MaxSeats: 2}})
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestNoGuestsOrTables(t *testing.T) {
	_, err := NewSnapshot(1, nil, []Table{{ID: 1, MaxSeats: 2}})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewSnapshot(1, guests(1), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreferenceGroupSitsTogether(t *testing.T) {
	gs := guests(2)
	gs[0].Preferences = []string{"bride"}
	gs[1].Preferences = []string{"bride"}
	snap, res := solve(t, gs, []Table{{ID: 1, MaxSeats: 2}})

	assertFeasible(t, snap, res)
	// group cohesion plus one shared label counted from each side
	assert.Equal(t, DefaultWeights.Group+2*DefaultWeights.SharedPreference, res.Score)
}

func TestParseGuest(t *testing.T) {
	g := ParseGuest(model.Guest{
		ID:           7,
		FullName:     "Dana",
		ContactInfo:  "  555-1 ",
		Preferences:  "bride, kosher,,bride",
		Restrictions: " window ",
	})
	assert.Equal(t, "555-1", g.ContactInfo)
	assert.Equal(t, []string{"bride", "kosher"}, g.Preferences)
	assert.Nil(t, g.RestrictionTags)
	assert.Equal(t, "window", g.LocationPreference)

	g = ParseGuest(model.Guest{Restrictions: "vegan, nuts"})
	assert.Equal(t, []string{"vegan", "nuts"}, g.RestrictionTags)
	assert.Empty(t, g.LocationPreference)

	g = ParseGuest(model.Guest{})
	assert.Nil(t, g.Preferences)
	assert.Nil(t, g.RestrictionTags)
}

func TestConstructRecordsShortfalls(t *testing.T) {
	gs := guests(2)
	gs[0].NeedsAccessibleSeat = true
	gs[1].NeedsAccessibleSeat = true
	snap, err := NewSnapshot(1, gs, []Table{
		{ID: 1, MaxSeats: 1, IsAccessible: true},
		{ID: 2, MaxSeats: 3},
	})
	require.NoError(t, err)

	a, diags, err := Construct(snap)
	require.NoError(t, err)
	require.NoError(t, a.Verify())
	require.Len(t, diags, 1)
	assert.Equal(t, AccessibilityShortfall, diags[0].Kind)
	assert.Equal(t, uint64(2), diags[0].GuestID)
	assert.Equal(t, 0, a.TableOf(0))
	assert.Equal(t, 1, a.TableOf(1))
}

func TestConstructSplitsOversizedFamily(t *testing.T) {
	gs := guests(3)
	for i := range gs {
		gs[i].ContactInfo = "family"
	}
	gs[2].LocationPreference = "garden"
	snap, err := NewSnapshot(1, gs, []Table{
		{ID: 1, MaxSeats: 2},
		{ID: 2, MaxSeats: 2, Location: "garden"},
	})
	require.NoError(t, err)

	a, diags, err := Construct(snap)
	require.NoError(t, err)
	require.NoError(t, a.Verify())
	require.Len(t, diags, 1)
	assert.Equal(t, FamilySplit, diags[0].Kind)
	assert.Equal(t, "family", diags[0].Group)
	assert.Equal(t, 1, a.TableOf(2), "location subset goes to its table")
}

func TestConstructHonoursLocation(t *testing.T) {
	gs := guests(3)
	gs[2].LocationPreference = "stage"
	snap, err := NewSnapshot(1, gs, []Table{
		{ID: 1, MaxSeats: 3},
		{ID: 2, MaxSeats: 1, Location: "stage"},
	})
	require.NoError(t, err)

	a, _, err := Construct(snap)
	require.NoError(t, err)
	assert.Equal(t, 1, a.TableOf(2))
	assert.Equal(t, 0, a.TableOf(0))
}

func TestConstructSeatNumbersAreContiguous(t *testing.T) {
	snap, err := NewSnapshot(1, guests(5), []Table{{ID: 1, MaxSeats: 3}, {ID: 2, MaxSeats: 3}})
	require.NoError(t, err)
	a, _, err := Construct(snap)
	require.NoError(t, err)

	numbers := map[int][]int{}
	for g := range snap.Guests {
		s, ok := a.SeatOf(g)
		require.True(t, ok)
		numbers[s.Table] = append(numbers[s.Table], s.Number)
	}
	assert.Equal(t, []int{1, 2, 3}, numbers[0])
	assert.Equal(t, []int{1, 2}, numbers[1])
}

// randomSnapshot builds a mixed event with families, labels, locations and
// accessibility needs.
func randomSnapshot(t *testing.T, seed int64, n int) *Snapshot {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	labels := []string{"bride", "groom", "kosher", "vegan", "work", "school"}
	locations := []string{"", "", "front", "garden", "stage"}
	gs := guests(n)
	for i := range gs {
		if r.Intn(3) == 0 {
			gs[i].ContactInfo = []string{"a", "b", "c", "d"}[r.Intn(4)]
		}
		for _, l := range labels {
			if r.Intn(5) == 0 {
				gs[i].Preferences = append(gs[i].Preferences, l)
			}
			if r.Intn(8) == 0 {
				gs[i].RestrictionTags = append(gs[i].RestrictionTags, l)
			}
		}
		gs[i].LocationPreference = locations[r.Intn(len(locations))]
		gs[i].NeedsAccessibleSeat = r.Intn(7) == 0
	}
	var ts []Table
	seats := 0
	for id := uint64(1); seats < n+3; id++ {
		tb := Table{
			ID:           id,
			EventTableID: id + 100,
			MaxSeats:     2 + r.Intn(5),
			Location:     locations[r.Intn(len(locations))],
			IsAccessible: r.Intn(3) == 0,
		}
		seats += tb.MaxSeats
		ts = append(ts, tb)
	}
	snap, err := NewSnapshot(1, gs, ts)
	require.NoError(t, err)
	return snap
}

func TestDeltaMatchesFullRescore(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		snap := randomSnapshot(t, seed, 18)
		a, _, err := Construct(snap)
		require.NoError(t, err)
		sc := NewScorer(snap, DefaultWeights)
		base := sc.Score(a)
		for i := range snap.Guests {
			for j := i + 1; j < len(snap.Guests); j++ {
				c := a.Clone()
				c.Swap(i, j)
				require.Equal(t, sc.Score(c)-base, sc.Delta(a, i, j), "seed %d swap %d,%d", seed, i, j)
			}
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	snap := randomSnapshot(t, 42, 20)
	a, _, err := Construct(snap)
	require.NoError(t, err)
	sc := NewScorer(snap, DefaultWeights)
	assert.Equal(t, sc.Score(a), sc.Score(a))
	assert.Equal(t, sc.Score(a), NewScorer(snap, DefaultWeights).Score(a.Clone()))
}

func TestPairwiseRestrictionPenalty(t *testing.T) {
	gs := guests(2)
	gs[0].RestrictionTags = []string{"nuts"}
	gs[1].Preferences = []string{"nuts"}
	snap, err := NewSnapshot(1, gs, []Table{{ID: 1, MaxSeats: 2}})
	require.NoError(t, err)
	a, _, err := Construct(snap)
	require.NoError(t, err)

	// guest 1 restricts what guest 2 prefers (-2); guest 2 prefers what
	// guest 1 restricts (+1)
	assert.Equal(t, -1, NewScorer(snap, DefaultWeights).Score(a))
}

func TestSharedLocationIsNotARestrictionClash(t *testing.T) {
	gs := []Guest{
		ParseGuest(model.Guest{ID: 1, FullName: "A", Restrictions: "front"}),
		ParseGuest(model.Guest{ID: 2, FullName: "B", Restrictions: " front "}),
	}
	snap, err := NewSnapshot(1, gs, []Table{{ID: 1, MaxSeats: 2, Location: "front"}})
	require.NoError(t, err)
	a, _, err := Construct(snap)
	require.NoError(t, err)

	// two location bonuses and no pairwise penalty
	assert.Equal(t, 2*DefaultWeights.Location, NewScorer(snap, DefaultWeights).Score(a))
}

func TestOptimizeIsFeasibleAndMonotonic(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		snap := randomSnapshot(t, seed, 24)
		res, err := NewEngine(DefaultParams).Solve(snap)
		require.NoError(t, err)

		assertFeasible(t, snap, res)
		assert.GreaterOrEqual(t, res.Score, res.InitialScore)
		require.NotEmpty(t, res.Trace)
		assert.LessOrEqual(t, len(res.Trace), DefaultParams.Iterations)
		for i := 1; i < len(res.Trace); i++ {
			assert.GreaterOrEqual(t, res.Trace[i], res.Trace[i-1])
		}
		assert.Equal(t, res.Score, res.Trace[len(res.Trace)-1])
	}
}

func TestOptimizeNeverMovesAccessibleGuestsAway(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		snap := randomSnapshot(t, seed, 24)
		initial, _, err := Construct(snap)
		require.NoError(t, err)
		sr := Optimize(snap, NewScorer(snap, DefaultWeights), initial, DefaultParams)

		for g, guest := range snap.Guests {
			if !guest.NeedsAccessibleSeat || !snap.Tables[initial.TableOf(g)].IsAccessible {
				continue
			}
			assert.True(t, snap.Tables[sr.Best.TableOf(g)].IsAccessible, "guest %d moved off an accessible table", guest.ID)
		}
	}
}

func TestOptimizeImprovesPoorStart(t *testing.T) {
	gs := guests(4)
	gs[0].ContactInfo, gs[2].ContactInfo = "x", "x"
	gs[1].ContactInfo, gs[3].ContactInfo = "y", "y"
	snap, err := NewSnapshot(1, gs, []Table{{ID: 1, MaxSeats: 2}, {ID: 2, MaxSeats: 2}})
	require.NoError(t, err)

	// both families split
	a := newAssignment(snap)
	a.place(0, 0)
	a.place(1, 1)
	a.place(2, 2)
	a.place(3, 3)
	sc := NewScorer(snap, DefaultWeights)
	require.Equal(t, -2*DefaultWeights.Family, sc.Score(a))

	sr := Optimize(snap, sc, a, DefaultParams)
	assert.Equal(t, 2*DefaultWeights.Family, sr.BestScore)
	assert.Equal(t, sr.Best.TableOf(0), sr.Best.TableOf(2))
	assert.Equal(t, sr.Best.TableOf(1), sr.Best.TableOf(3))
	assert.Equal(t, 0, a.TableOf(0), "input assignment is left untouched")
	assert.Equal(t, 1, a.TableOf(2))
}

func TestOptimizeStopsOnStall(t *testing.T) {
	snap, err := NewSnapshot(1, guests(3), []Table{{ID: 1, MaxSeats: 2}, {ID: 2, MaxSeats: 2}})
	require.NoError(t, err)
	a, _, err := Construct(snap)
	require.NoError(t, err)

	sr := Optimize(snap, NewScorer(snap, DefaultWeights), a, Params{Iterations: 100, TabuLength: 10, StallLimit: 4})
	assert.Equal(t, 4, sr.Iterations)
	assert.Equal(t, sr.InitialScore, sr.BestScore)
}

func TestRejectedMovesBecomeTabu(t *testing.T) {
	// every swap scores 0, so no move is ever accepted and each iteration
	// must pick the first pair that is not tabu
	snap, err := NewSnapshot(1, guests(4), []Table{{ID: 1, MaxSeats: 2}, {ID: 2, MaxSeats: 2}})
	require.NoError(t, err)
	a, _, err := Construct(snap)
	require.NoError(t, err)

	p := Params{Iterations: 100, TabuLength: 3, StallLimit: 6}
	sr := Optimize(snap, NewScorer(snap, DefaultWeights), a, p)
	assert.Equal(t, 6, sr.Iterations)
	assert.Equal(t, []swapKey{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {0, 1}, {0, 2}}, sr.moves)

	for i, m := range sr.moves {
		for _, prev := range sr.moves[max(0, i-p.TabuLength):i] {
			assert.NotEqual(t, prev, m, "iteration %d repeats a tabu pair", i+1)
		}
	}
}

func TestTabuListEvictsOldest(t *testing.T) {
	tl := newTabuList(2)
	tl.push(keyOf(1, 2))
	tl.push(keyOf(4, 3))
	assert.True(t, tl.contains(swapKey{1, 2}))
	assert.True(t, tl.contains(swapKey{3, 4}))

	tl.push(keyOf(5, 6))
	assert.False(t, tl.contains(swapKey{1, 2}))
	assert.True(t, tl.contains(swapKey{3, 4}))
	assert.True(t, tl.contains(swapKey{5, 6}))
}

func TestAccessibleSwapGuard(t *testing.T) {
	gs := guests(2)
	gs[0].NeedsAccessibleSeat = true
	snap, err := NewSnapshot(1, gs, []Table{{ID: 1, MaxSeats: 1, IsAccessible: true}, {ID: 2, MaxSeats: 1}})
	require.NoError(t, err)
	a, _, err := Construct(snap)
	require.NoError(t, err)

	assert.False(t, accessibleSwap(snap, a, 0, 1))
	assert.False(t, accessibleSwap(snap, a, 1, 0))
}

type fakeGuests struct {
	rows []model.Guest
	err  error
}

func (f fakeGuests) ListByEvent(context.Context, uint64) ([]model.Guest, error) { return f.rows, f.err }

type fakeTables struct {
	rows []model.EventTable
	err  error
}

func (f fakeTables) ListByEvent(context.Context, uint64) ([]model.EventTable, error) {
	return f.rows, f.err
}

func TestLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	gl := fakeGuests{rows: []model.Guest{
		{ID: 1, FullName: "A", Restrictions: "garden"},
		{ID: 2, FullName: "B"},
	}}
	tl := fakeTables{rows: []model.EventTable{
		{ID: 11, EventID: 3, TableID: 5, MaxSeats: 2, Location: "garden"},
		{ID: 12, EventID: 3, TableID: 6, MaxSeats: 0},
	}}

	snap, err := LoadSnapshot(ctx, gl, tl, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), snap.EventID)
	assert.Equal(t, 2, snap.Capacity())
	assert.Equal(t, "garden", snap.Guests[0].LocationPreference)
	assert.Equal(t, uint64(11), snap.Tables[0].EventTableID)

	_, err = LoadSnapshot(ctx, fakeGuests{}, tl, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	_, err = LoadSnapshot(ctx, gl, fakeTables{err: boom}, 3)
	assert.ErrorIs(t, err, boom)
}

func TestEngineRun(t *testing.T) {
	gl := fakeGuests{rows: []model.Guest{
		{ID: 1, FullName: "A", ContactInfo: "fam"},
		{ID: 2, FullName: "B", ContactInfo: "fam"},
		{ID: 3, FullName: "C", NeedsAccessibleSeat: true},
	}}
	tl := fakeTables{rows: []model.EventTable{
		{ID: 21, TableID: 1, MaxSeats: 2},
		{ID: 22, TableID: 2, MaxSeats: 2, IsAccessible: true},
	}}

	res, err := NewEngine(Params{}).Run(context.Background(), gl, tl, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), res.EventID)
	require.Len(t, res.Seats, 3)
	byGuest := map[uint64]Placement{}
	for _, p := range res.Seats {
		byGuest[p.GuestID] = p
	}
	assert.Equal(t, uint64(22), byGuest[3].EventTableID)
	assert.Equal(t, byGuest[1].EventTableID, byGuest[2].EventTableID)

	_, err = NewEngine(Params{}).Run(context.Background(), gl, fakeTables{rows: tl.rows[:1]}, 9)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}
