package audit

import (
	"context"
	"errors"
	"time"

	"companion-platform/internal/calls"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: no Update or Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, f Filter) ([]Event, error)
}

// Service records audit events. Callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrInvalidEvent = errors.New("audit: invalid event")
	ErrNoRepository = errors.New("audit: repository not configured")
)

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	if e.UserID == "" || e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Event, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.List(ctx, f)
}

// LogTransition records a call session status change.
func (s *Service) LogTransition(ctx context.Context, t calls.Transition) error {
	return s.Append(ctx, Event{
		UserID:     t.UserID,
		Type:       EventTypeCallTransition,
		SessionID:  t.SessionID,
		FromStatus: string(t.From),
		ToStatus:   string(t.To),
		Reason:     t.Reason,
		Coins:      t.Coins,
		CreatedAt:  t.At,
	})
}

// LogPayment records a gateway outcome as reported by the device or webhook.
func (s *Service) LogPayment(ctx context.Context, userID, txnID, outcome, source string) error {
	return s.Append(ctx, Event{
		UserID:        userID,
		Type:          EventTypePaymentResult,
		TransactionID: txnID,
		Reason:        outcome,
		Message:       source,
	})
}

// LogAdminAction records a manual wallet grant.
func (s *Service) LogAdminAction(ctx context.Context, userID, actorUserID, actorRole, ip, message string, coins int64, metadata string) error {
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Coins:       coins,
		Message:     message,
		Metadata:    metadata,
	})
}
