package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/anz-davar/event-management/internal/metrics"
    "github.com/anz-davar/event-management/internal/model"
    "github.com/anz-davar/event-management/internal/notify"
    q "github.com/anz-davar/event-management/internal/queue"
    "github.com/anz-davar/event-management/internal/repository"
)

// EventDetailer loads the event summary used in registration notices.
type EventDetailer interface {
    Details(ctx context.Context, id uint64) (*repository.EventDetails, error)
}

// GuestStore inserts registrations atomically against the event's guest
// limit (0 means unlimited).
type GuestStore interface {
    AddWithinLimit(ctx context.Context, eventID uint64, limit int, members []*model.Guest) error
}

// RegistrationService handles public self registration of guests and
// families.  Successful registrations are announced to the event room.
type RegistrationService struct {
    Events    EventDetailer
    Guests    GuestStore
    Publisher EventPublisher // optional
    Hub       Broadcaster    // optional
    Log       *zap.Logger
}

// Register stores one guest for g.EventID.
func (s *RegistrationService) Register(ctx context.Context, g *model.Guest) error {
    g.ContactInfo = strings.TrimSpace(g.ContactInfo)
    d, err := s.admit(ctx, g.EventID, []*model.Guest{g})
    if err != nil {
        return err
    }
    metrics.GuestRegistrationsTotal.WithLabelValues("single").Inc()
    s.announce(ctx, d, false, []*model.Guest{g})
    return nil
}

// RegisterFamily stores members in one transaction.  Every member gets the
// shared contact, which is what groups them as a family when seating.
func (s *RegistrationService) RegisterFamily(ctx context.Context, eventID uint64, contact string, members []*model.Guest) error {
    if len(members) == 0 {
        return ErrEmptyFamily
    }
    contact = strings.TrimSpace(contact)
    for _, m := range members {
        m.EventID = eventID
        m.ContactInfo = contact
    }
    d, err := s.admit(ctx, eventID, members)
    if err != nil {
        return err
    }
    metrics.GuestRegistrationsTotal.WithLabelValues("family").Inc()
    s.announce(ctx, d, true, members)
    return nil
}

// admit loads the event and stores members within its guest limit.
func (s *RegistrationService) admit(ctx context.Context, eventID uint64, members []*model.Guest) (*repository.EventDetails, error) {
    d, err := s.Events.Details(ctx, eventID)
    if err != nil {
        return nil, err
    }
    err = s.Guests.AddWithinLimit(ctx, eventID, int(d.MaxGuests), members)
    if errors.Is(err, repository.ErrGuestLimit) {
        return nil, ErrEventFull
    }
    if err != nil {
        return nil, err
    }
    return d, nil
}

func (s *RegistrationService) announce(ctx context.Context, d *repository.EventDetails, family bool, members []*model.Guest) {
    ev := q.GuestRegisteredEvent{
        EventID:      d.EventID,
        EventName:    d.EventName,
        Organizer:    d.OwnerUsername,
        Family:       family,
        RegisteredAt: time.Now().UTC().Format(time.RFC3339),
    }
    for _, m := range members {
        ev.Guests = append(ev.Guests, q.RegisteredGuest{
            ID:                  m.ID,
            Name:                m.FullName,
            ContactInfo:         m.ContactInfo,
            NeedsAccessibleSeat: m.NeedsAccessibleSeat,
        })
    }
    if s.Publisher != nil {
        err := s.Publisher.PublishGuestRegistered(ctx, ev)
        if err == nil {
            return
        }
        if !errors.Is(err, ErrBrokerDisabled) && s.Log != nil {
            s.Log.Warn("publish guest.registered failed", zap.Uint64("event_id", d.EventID), zap.Error(err))
        }
    }
    if s.Hub != nil {
        name := notify.GuestRegistered
        if family {
            name = notify.FamilyRegistered
        }
        _, _ = s.Hub.Broadcast(notify.RoomForEvent(d.EventID), name, ev)
    }
}
