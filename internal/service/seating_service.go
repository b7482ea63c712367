package service

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/anz-davar/event-management/internal/lock"
    "github.com/anz-davar/event-management/internal/metrics"
    "github.com/anz-davar/event-management/internal/model"
    "github.com/anz-davar/event-management/internal/notify"
    q "github.com/anz-davar/event-management/internal/queue"
    "github.com/anz-davar/event-management/internal/repository"
    "github.com/anz-davar/event-management/internal/seating"
)

// EventChecker reports whether an event exists.
type EventChecker interface {
    Exists(ctx context.Context, id uint64) (bool, error)
}

// SeatingWriter replaces an event's seating in one transaction.
type SeatingWriter interface {
    ReplaceForEvent(ctx context.Context, eventID uint64, rows []model.SeatingAssignment) error
}

// Broadcaster pushes a payload to a websocket room.
type Broadcaster interface {
    Broadcast(room, event string, data any) (int, error)
}

// SeatingService runs the seating engine for one event at a time and
// stores the result.
type SeatingService struct {
    Events    EventChecker
    Guests    seating.GuestLister
    Tables    seating.TableLister
    Seating   SeatingWriter
    Engine    *seating.Engine
    Locker    lock.EventLocker
    Publisher EventPublisher // optional
    Hub       Broadcaster    // optional, used when the broker is unavailable
    Log       *zap.Logger
}

// OptimizeResult is the engine result of a stored run.
type OptimizeResult struct {
    RunID string `json:"run_id"`
    *seating.Result
}

// Optimize recomputes and stores the seating of eventID.  Errors:
// repository.ErrEventNotFound, ErrOptimizationInProgress,
// seating.ErrNotFound, seating.ErrCapacityExceeded and wrapped
// seating.ErrInternal.  On error the stored seating is left untouched.
func (s *SeatingService) Optimize(ctx context.Context, eventID uint64) (res *OptimizeResult, err error) {
    log := s.logger().With(zap.Uint64("event_id", eventID))
    start := time.Now()
    defer func() {
        metrics.OptimizationsTotal.WithLabelValues(optimizeStatus(err)).Inc()
        if err == nil {
            metrics.OptimizationDuration.Observe(time.Since(start).Seconds())
        }
    }()

    ok, err := s.Events.Exists(ctx, eventID)
    if err != nil {
        return nil, fmt.Errorf("check event: %w", err)
    }
    if !ok {
        return nil, repository.ErrEventNotFound
    }

    release, err := s.Locker.TryLock(ctx, eventID)
    if errors.Is(err, lock.ErrLocked) {
        return nil, ErrOptimizationInProgress
    }
    if err != nil {
        return nil, fmt.Errorf("acquire seating lock: %w", err)
    }
    defer release()

    result, err := s.Engine.Run(ctx, s.Guests, s.Tables, eventID)
    if err != nil {
        return nil, err
    }

    rows := make([]model.SeatingAssignment, 0, len(result.Seats))
    for _, p := range result.Seats {
        rows = append(rows, model.SeatingAssignment{
            GuestID:      p.GuestID,
            EventTableID: p.EventTableID,
            SeatNumber:   uint32(p.SeatNumber),
            EventID:      eventID,
            TableID:      p.TableID,
        })
    }
    if err := s.Seating.ReplaceForEvent(ctx, eventID, rows); err != nil {
        return nil, fmt.Errorf("store seating: %w", err)
    }

    res = &OptimizeResult{RunID: uuid.NewString(), Result: result}
    metrics.OptimizationIterations.Observe(float64(result.Iterations))
    metrics.OptimizationImprovement.Observe(float64(result.Score - result.InitialScore))
    for _, d := range result.Diagnostics {
        metrics.SeatingDiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
        log.Info("seating shortfall", zap.String("kind", string(d.Kind)),
            zap.Uint64("guest_id", d.GuestID), zap.String("group", d.Group), zap.String("detail", d.Message))
    }
    log.Info("seating optimized",
        zap.String("run_id", res.RunID),
        zap.Int("guests", len(rows)),
        zap.Int("initial_score", result.InitialScore),
        zap.Int("score", result.Score),
        zap.Int("iterations", result.Iterations),
        zap.Duration("took", time.Since(start)))

    s.announce(ctx, log, q.SeatingOptimizedEvent{
        EventID:      eventID,
        RunID:        res.RunID,
        GuestCount:   len(rows),
        Score:        float64(result.Score),
        InitialScore: float64(result.InitialScore),
        Iterations:   result.Iterations,
        Diagnostics:  len(result.Diagnostics),
        FinishedAt:   time.Now().UTC().Format(time.RFC3339),
    })
    return res, nil
}

// announce publishes the run, or broadcasts it directly when there is no
// working broker.  The stored seating is already committed; failures are
// only logged.
func (s *SeatingService) announce(ctx context.Context, log *zap.Logger, ev q.SeatingOptimizedEvent) {
    if s.Publisher != nil {
        err := s.Publisher.PublishSeatingOptimized(ctx, ev)
        if err == nil {
            return
        }
        if !errors.Is(err, ErrBrokerDisabled) {
            log.Warn("publish seating.optimized failed", zap.Error(err))
        }
    }
    if s.Hub != nil {
        _, _ = s.Hub.Broadcast(notify.RoomForEvent(ev.EventID), notify.SeatingOptimized, ev)
    }
}

func (s *SeatingService) logger() *zap.Logger {
    if s.Log == nil {
        return zap.NewNop()
    }
    return s.Log
}

func optimizeStatus(err error) string {
    switch {
    case err == nil:
        return "ok"
    case errors.Is(err, repository.ErrEventNotFound):
        return "event_not_found"
    case errors.Is(err, ErrOptimizationInProgress):
        return "busy"
    case errors.Is(err, seating.ErrNotFound):
        return "no_input"
    case errors.Is(err, seating.ErrCapacityExceeded):
        return "capacity_exceeded"
    default:
        return "error"
    }
}
