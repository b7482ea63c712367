package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/anz-davar/event-management/internal/config"
)

type sent struct {
    room, event string
    data        any
}

type fakeHub struct{ calls []sent }

func (f *fakeHub) Broadcast(room, event string, data any) (int, error) {
    f.calls = append(f.calls, sent{room, event, data})
    return 1, nil
}

func testConsumer(t *testing.T) (*Consumer, *fakeHub, string) {
    t.Helper()
    path := filepath.Join(t.TempDir(), "logs", "activity.log")
    hub := &fakeHub{}
    cfg := config.BrokerConfig{
        GuestQueue:   "guest.registered",
        SeatingQueue: "seating.optimized",
        ActivityLog:  path,
    }
    return NewConsumer(cfg, hub, nil), hub, path
}

func TestHandleFamilyRegistration(t *testing.T) {
    c, hub, path := testConsumer(t)
    body, err := json.Marshal(GuestRegisteredEvent{
        EventID:      7,
        EventName:    "Wedding",
        Family:       true,
        Guests:       []RegisteredGuest{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}},
        RegisteredAt: "2026-01-02T10:00:00Z",
    })
    require.NoError(t, err)

    require.NoError(t, c.Handle("guest.registered", body))

    raw, err := os.ReadFile(path)
    require.NoError(t, err)
    line := string(raw)
    assert.True(t, strings.HasPrefix(line, "[2026-01-02T10:00:00Z] Family registered"))
    assert.Contains(t, line, "event_id=7")
    assert.Contains(t, line, "guests=[Ann,Bob]")

    require.Len(t, hub.calls, 1)
    assert.Equal(t, "event-7", hub.calls[0].room)
    assert.Equal(t, "familyRegistered", hub.calls[0].event)
}

func TestHandleSeatingAppends(t *testing.T) {
    c, hub, path := testConsumer(t)
    for i := 0; i < 2; i++ {
        body, _ := json.Marshal(SeatingOptimizedEvent{EventID: 3, RunID: "r", GuestCount: 10, Score: 120, Iterations: 4})
        require.NoError(t, c.Handle("seating.optimized", body))
    }
    raw, err := os.ReadFile(path)
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    assert.Len(t, lines, 2)
    assert.Contains(t, lines[1], "Seating optimized | event_id=3 | run_id=r | guests=10 | score=120")
    require.Len(t, hub.calls, 2)
    assert.Equal(t, "seatingOptimized", hub.calls[1].event)
}

func TestHandleRejectsBadMessages(t *testing.T) {
    c, hub, path := testConsumer(t)

    assert.Error(t, c.Handle("guest.registered", []byte("{not json")))
    assert.Error(t, c.Handle("other.queue", []byte("{}")))
    assert.Error(t, c.Handle("seating.optimized", []byte(`{"run_id":"x"}`)))

    assert.Empty(t, hub.calls)
    _, err := os.Stat(path)
    assert.True(t, os.IsNotExist(err))
}
