package service

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/anz-davar/event-management/internal/lock"
    "github.com/anz-davar/event-management/internal/model"
    q "github.com/anz-davar/event-management/internal/queue"
    "github.com/anz-davar/event-management/internal/repository"
    "github.com/anz-davar/event-management/internal/seating"
)

type fakeEvents struct {
    exists  bool
    details *repository.EventDetails
}

func (f fakeEvents) Exists(context.Context, uint64) (bool, error) { return f.exists, nil }

func (f fakeEvents) Details(context.Context, uint64) (*repository.EventDetails, error) {
    if f.details == nil {
        return nil, repository.ErrEventNotFound
    }
    return f.details, nil
}

type fakeGuests struct {
    list    []model.Guest
    count   int
    created []*model.Guest
    family  []*model.Guest
}

func (f *fakeGuests) ListByEvent(context.Context, uint64) ([]model.Guest, error) { return f.list, nil }

func (f *fakeGuests) AddWithinLimit(_ context.Context, eventID uint64, limit int, members []*model.Guest) error {
    if limit > 0 && f.count+len(members) > limit {
        return repository.ErrGuestLimit
    }
    f.count += len(members)
    if len(members) == 1 {
        members[0].ID = uint64(100 + len(f.created))
        f.created = append(f.created, members[0])
        return nil
    }
    for i, m := range members {
        m.ID = uint64(200 + i)
    }
    f.family = members
    return nil
}

type fakeTables []model.EventTable

func (f fakeTables) ListByEvent(context.Context, uint64) ([]model.EventTable, error) { return f, nil }

type fakeWriter struct {
    rows  []model.SeatingAssignment
    calls int
    err   error
}

func (f *fakeWriter) ReplaceForEvent(_ context.Context, _ uint64, rows []model.SeatingAssignment) error {
    f.calls++
    if f.err != nil {
        return f.err
    }
    f.rows = rows
    return nil
}

type fakePublisher struct {
    err     error
    guests  []q.GuestRegisteredEvent
    seating []q.SeatingOptimizedEvent
}

func (f *fakePublisher) PublishGuestRegistered(_ context.Context, ev q.GuestRegisteredEvent) error {
    if f.err != nil {
        return f.err
    }
    f.guests = append(f.guests, ev)
    return nil
}

func (f *fakePublisher) PublishSeatingOptimized(_ context.Context, ev q.SeatingOptimizedEvent) error {
    if f.err != nil {
        return f.err
    }
    f.seating = append(f.seating, ev)
    return nil
}

type fakeHub struct{ rooms, events []string }

func (f *fakeHub) Broadcast(room, event string, _ any) (int, error) {
    f.rooms = append(f.rooms, room)
    f.events = append(f.events, event)
    return 1, nil
}

func threeGuests() []model.Guest {
    return []model.Guest{
        {ID: 1, EventID: 9, FullName: "Ann", ContactInfo: "ann@x"},
        {ID: 2, EventID: 9, FullName: "Bob", ContactInfo: "ann@x"},
        {ID: 3, EventID: 9, FullName: "Cid"},
    }
}

func newSeatingService(guests []model.Guest, tables fakeTables) (*SeatingService, *fakeWriter, *fakePublisher, *fakeHub) {
    w, p, h := &fakeWriter{}, &fakePublisher{}, &fakeHub{}
    return &SeatingService{
        Events:    fakeEvents{exists: true},
        Guests:    &fakeGuests{list: guests},
        Tables:    tables,
        Seating:   w,
        Engine:    seating.NewEngine(seating.Params{}),
        Locker:    lock.NewLocal(),
        Publisher: p,
        Hub:       h,
    }, w, p, h
}

func TestOptimizeStoresAndPublishes(t *testing.T) {
    svc, w, p, h := newSeatingService(threeGuests(), fakeTables{{ID: 5, EventID: 9, TableID: 50, MaxSeats: 4}})

    res, err := svc.Optimize(context.Background(), 9)
    require.NoError(t, err)
    assert.NotEmpty(t, res.RunID)
    assert.Len(t, res.Seats, 3)

    require.Equal(t, 1, w.calls)
    require.Len(t, w.rows, 3)
    seen := map[uint32]bool{}
    for _, r := range w.rows {
        assert.Equal(t, uint64(5), r.EventTableID)
        assert.False(t, seen[r.SeatNumber])
        seen[r.SeatNumber] = true
    }

    require.Len(t, p.seating, 1)
    assert.Equal(t, res.RunID, p.seating[0].RunID)
    assert.Equal(t, 3, p.seating[0].GuestCount)
    assert.Empty(t, h.events)

    // lock released
    release, err := svc.Locker.TryLock(context.Background(), 9)
    require.NoError(t, err)
    release()
}

func TestOptimizeEventMissing(t *testing.T) {
    svc, w, _, _ := newSeatingService(threeGuests(), fakeTables{{ID: 5, MaxSeats: 4}})
    svc.Events = fakeEvents{exists: false}

    _, err := svc.Optimize(context.Background(), 9)
    assert.ErrorIs(t, err, repository.ErrEventNotFound)
    assert.Zero(t, w.calls)
}

func TestOptimizeAlreadyRunning(t *testing.T) {
    svc, w, _, _ := newSeatingService(threeGuests(), fakeTables{{ID: 5, MaxSeats: 4}})
    release, err := svc.Locker.TryLock(context.Background(), 9)
    require.NoError(t, err)
    defer release()

    _, err = svc.Optimize(context.Background(), 9)
    assert.ErrorIs(t, err, ErrOptimizationInProgress)
    assert.Zero(t, w.calls)
}

func TestOptimizeCapacityLeavesSeatingUntouched(t *testing.T) {
    svc, w, p, _ := newSeatingService(threeGuests(), fakeTables{{ID: 5, MaxSeats: 2}})

    _, err := svc.Optimize(context.Background(), 9)
    assert.ErrorIs(t, err, seating.ErrCapacityExceeded)
    assert.Zero(t, w.calls)
    assert.Empty(t, p.seating)
}

func TestOptimizeNoTables(t *testing.T) {
    svc, _, _, _ := newSeatingService(threeGuests(), nil)
    _, err := svc.Optimize(context.Background(), 9)
    assert.ErrorIs(t, err, seating.ErrNotFound)
}

func TestOptimizeStoreFailure(t *testing.T) {
    svc, w, p, _ := newSeatingService(threeGuests(), fakeTables{{ID: 5, MaxSeats: 4}})
    w.err = errors.New("deadlock")

    _, err := svc.Optimize(context.Background(), 9)
    require.Error(t, err)
    assert.Contains(t, err.Error(), "store seating")
    assert.Empty(t, p.seating)
}

func TestOptimizeBroadcastsWithoutBroker(t *testing.T) {
    svc, _, p, h := newSeatingService(threeGuests(), fakeTables{{ID: 5, MaxSeats: 4}})
    p.err = ErrBrokerDisabled

    _, err := svc.Optimize(context.Background(), 9)
    require.NoError(t, err)
    assert.Equal(t, []string{"event-9"}, h.rooms)
    assert.Equal(t, []string{"seatingOptimized"}, h.events)
}

func TestRegisterRejectsFullEvent(t *testing.T) {
    guests := &fakeGuests{count: 10}
    svc := &RegistrationService{
        Events: fakeEvents{details: &repository.EventDetails{EventID: 9, MaxGuests: 10}},
        Guests: guests,
    }
    err := svc.Register(context.Background(), &model.Guest{EventID: 9, FullName: "Late"})
    assert.ErrorIs(t, err, ErrEventFull)
    assert.Empty(t, guests.created)
}

func TestRegisterUnknownEvent(t *testing.T) {
    svc := &RegistrationService{Events: fakeEvents{}, Guests: &fakeGuests{}}
    err := svc.Register(context.Background(), &model.Guest{EventID: 1})
    assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestRegisterPublishes(t *testing.T) {
    pub := &fakePublisher{}
    svc := &RegistrationService{
        Events:    fakeEvents{details: &repository.EventDetails{EventID: 9, EventName: "Gala", OwnerUsername: "org"}},
        Guests:    &fakeGuests{},
        Publisher: pub,
    }
    g := &model.Guest{EventID: 9, FullName: "Ann", ContactInfo: "  ann@x "}
    require.NoError(t, svc.Register(context.Background(), g))

    assert.Equal(t, "ann@x", g.ContactInfo)
    require.Len(t, pub.guests, 1)
    ev := pub.guests[0]
    assert.False(t, ev.Family)
    assert.Equal(t, "Gala", ev.EventName)
    assert.Equal(t, "org", ev.Organizer)
    require.Len(t, ev.Guests, 1)
    assert.Equal(t, uint64(100), ev.Guests[0].ID)
}

func TestRegisterFamilySharesContact(t *testing.T) {
    guests := &fakeGuests{count: 1}
    hub := &fakeHub{}
    svc := &RegistrationService{
        Events:    fakeEvents{details: &repository.EventDetails{EventID: 4, MaxGuests: 3}},
        Guests:    guests,
        Publisher: &fakePublisher{err: errors.New("connection refused")},
        Hub:       hub,
    }
    members := []*model.Guest{{FullName: "Ann"}, {FullName: "Bob", ContactInfo: "other"}}
    require.NoError(t, svc.RegisterFamily(context.Background(), 4, " fam@x ", members))

    require.Len(t, guests.family, 2)
    for _, m := range guests.family {
        assert.Equal(t, uint64(4), m.EventID)
        assert.Equal(t, "fam@x", m.ContactInfo)
    }
    assert.Equal(t, []string{"familyRegistered"}, hub.events)
    assert.Equal(t, []string{"event-4"}, hub.rooms)

    assert.ErrorIs(t, svc.RegisterFamily(context.Background(), 4, "x", nil), ErrEmptyFamily)
    assert.ErrorIs(t, svc.RegisterFamily(context.Background(), 4, "x", []*model.Guest{{FullName: "C"}, {FullName: "D"}, {FullName: "E"}}), ErrEventFull)
}
