package notification

import (
	"context"
	"errors"
	"time"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// InboxLimit caps how many notifications List returns
const InboxLimit = 50

// Event is what a workflow publishes. The dispatcher resolves recipients
// and writes one notification per recipient.
type Event struct {
	Type           string `json:"type" validate:"required,oneof=assignment assignment_due grade enrollment payment system reminder announcement doc_verified doc_rejected course_approved course_rejected user_approved"`
	Title          string `json:"title" validate:"notblank,max=100"`
	Message        string `json:"message" validate:"notblank,max=500"`
	TargetID       string `json:"targetId,omitempty"`
	TargetURL      string `json:"targetUrl,omitempty" validate:"max=200"`
	ActionRequired bool   `json:"actionRequired"`
}

// Publisher is the side of the dispatcher other services depend on.
type Publisher interface {
	ToUser(ctx context.Context, userID string, ev Event) (*shared.Notification, error)
	ToAdmins(ctx context.Context, ev Event) int
}

// Broadcaster pushes freshly created notifications to live listeners.
type Broadcaster interface {
	Broadcast(ctx context.Context, n shared.Notification) error
}

// Service dispatches events and serves the per-user inbox
type Service struct {
	store       store.Store
	log         *logger.Logger
	broadcaster Broadcaster
}

var _ Publisher = (*Service)(nil)

// NewService creates a notification service. broadcaster may be nil.
func NewService(st store.Store, log *logger.Logger, broadcaster Broadcaster) *Service {
	return &Service{
		store:       st,
		log:         log.With("service", "NotificationService"),
		broadcaster: broadcaster,
	}
}

// ============================================================================
// Dispatch
// ============================================================================

// ToUser writes a notification for one recipient
func (s *Service) ToUser(ctx context.Context, userID string, ev Event) (*shared.Notification, error) {
	if userID == "" {
		return nil, shared.ValidationError("recipient is required")
	}
	if err := shared.Validate(ev); err != nil {
		return nil, err
	}

	n := &shared.Notification{
		ID:             shared.GenerateID(),
		RecipientID:    userID,
		Title:          ev.Title,
		Message:        ev.Message,
		Type:           ev.Type,
		TargetID:       ev.TargetID,
		TargetURL:      ev.TargetURL,
		ActionRequired: ev.ActionRequired,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return nil, shared.InternalError("failed to create notification", err)
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(ctx, *n); err != nil {
			s.log.Warn("broadcast failed", "notification_id", n.ID, "error", err)
		}
	}
	return n, nil
}

// ToAdmins fans an event out to every active admin. Each write is attempted
// once; failures are logged and skipped. Returns the number delivered.
func (s *Service) ToAdmins(ctx context.Context, ev Event) int {
	admins, _, err := s.store.Users().List(ctx, store.UserFilter{
		Role:     shared.RoleAdmin,
		IsActive: store.Bool(true),
	}, shared.Page{})
	if err != nil {
		s.log.Error("failed to resolve admins", "event", ev.Type, "error", err)
		return 0
	}

	delivered := 0
	for _, admin := range admins {
		if _, err := s.ToUser(ctx, admin.ID, ev); err != nil {
			s.log.Warn("admin notification failed", "admin_id", admin.ID, "event", ev.Type, "error", err)
			continue
		}
		delivered++
	}

	s.log.Debug("notified admins", "event", ev.Type, "delivered", delivered, "admins", len(admins))
	return delivered
}

// ============================================================================
// Inbox
// ============================================================================

// List returns the newest notifications of a user and the unread count
func (s *Service) List(ctx context.Context, actor shared.Actor) ([]shared.Notification, int64, error) {
	items, err := s.store.Notifications().ListForUser(ctx, actor.UserID, InboxLimit)
	if err != nil {
		return nil, 0, shared.InternalError("failed to load notifications", err)
	}
	unread, err := s.store.Notifications().CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, 0, shared.InternalError("failed to count notifications", err)
	}
	return items, unread, nil
}

// MarkRead flags one notification as read. Only its recipient may do so.
func (s *Service) MarkRead(ctx context.Context, actor shared.Actor, id string) (*shared.Notification, error) {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}

	n.IsRead = true
	if err := s.store.Notifications().Update(ctx, n); err != nil {
		return nil, shared.InternalError("failed to update notification", err)
	}
	return n, nil
}

// MarkAllRead flags every unread notification of the actor
func (s *Service) MarkAllRead(ctx context.Context, actor shared.Actor) (int64, error) {
	n, err := s.store.Notifications().MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, shared.InternalError("failed to update notifications", err)
	}
	return n, nil
}

// Delete hides a notification. Rows are never physically removed.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id string) error {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}

	n.IsDeleted = true
	if err := s.store.Notifications().Update(ctx, n); err != nil {
		return shared.InternalError("failed to delete notification", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, actor shared.Actor, id string) (*shared.Notification, error) {
	n, err := s.store.Notifications().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Notification not found")
		}
		return nil, shared.InternalError("failed to load notification", err)
	}
	if n.IsDeleted {
		return nil, shared.NotFoundError("Notification not found")
	}
	if n.RecipientID != actor.UserID {
		return nil, shared.AccessError("Access denied")
	}
	return n, nil
}
