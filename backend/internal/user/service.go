package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// UserService implements admin user management and instructor verification
type UserService struct {
	store    store.Store
	log      *logger.Logger
	notifier notification.Publisher
}

// NewUserService creates a new UserService instance
func NewUserService(st store.Store, log *logger.Logger, notifier notification.Publisher) *UserService {
	return &UserService{
		store:    st,
		log:      log.With("service", "UserService"),
		notifier: notifier,
	}
}

type VerifyDocumentInput struct {
	Verified bool   `json:"verified"`
	Comments string `json:"comments" validate:"max=500"`
}

type VerifyDocumentResult struct {
	Document     shared.Document `json:"document"`
	UserApproved bool            `json:"userApproved"`
}

// ============================================================================
// User Management
// ============================================================================

// ListUsers pages through all users, optionally filtered by role
func (s *UserService) ListUsers(ctx context.Context, actor shared.Actor, role string, page shared.Page) ([]shared.User, shared.Pagination, error) {
	if !actor.IsAdmin() {
		return nil, shared.Pagination{}, shared.AccessError("Access denied")
	}
	return s.list(ctx, store.UserFilter{Role: role}, page)
}

// PendingApproval lists active instructors that are not yet approved
func (s *UserService) PendingApproval(ctx context.Context, actor shared.Actor) ([]shared.User, error) {
	if !actor.IsAdmin() {
		return nil, shared.AccessError("Access denied")
	}
	users, _, err := s.list(ctx, store.UserFilter{
		Role:       shared.RoleInstructor,
		IsActive:   store.Bool(true),
		IsApproved: store.Bool(false),
	}, shared.Page{})
	return users, err
}

// PendingVerification lists instructors whose documents await review
func (s *UserService) PendingVerification(ctx context.Context, actor shared.Actor) ([]shared.User, error) {
	if !actor.IsAdmin() {
		return nil, shared.AccessError("Access denied")
	}
	users, _, err := s.list(ctx, store.UserFilter{
		Role:               shared.RoleInstructor,
		VerificationStatus: shared.VerificationUnderReview,
	}, shared.Page{})
	return users, err
}

// Profile returns a user. Anyone may view an instructor's profile; other
// accounts are visible only to themselves and admins.
func (s *UserService) Profile(ctx context.Context, actor shared.Actor, userID string) (*shared.User, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(u.ID) && u.Role != shared.RoleInstructor {
		return nil, shared.AccessError("Access denied")
	}
	return u, nil
}

// ApproveUser marks an account approved and tells the user
func (s *UserService) ApproveUser(ctx context.Context, actor shared.Actor, userID string) (*shared.User, error) {
	if !actor.IsAdmin() {
		return nil, shared.AccessError("Access denied")
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.IsApproved = true
	u.UpdatedAt = time.Now().UTC()
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, shared.InternalError("failed to approve user", err)
	}

	s.log.Info("user approved", "user_id", u.ID, "admin", actor.UserID)
	s.notify(ctx, u.ID, notification.Event{
		Type:    shared.NotifyUserApproved,
		Title:   "Account Approved",
		Message: "Your account has been approved. You now have full access.",
	})
	return u, nil
}

// DeactivateUser disables an account and revokes its sessions. Users are
// never hard deleted.
func (s *UserService) DeactivateUser(ctx context.Context, actor shared.Actor, userID string) (*shared.User, error) {
	if !actor.IsAdmin() {
		return nil, shared.AccessError("Access denied")
	}
	if actor.UserID == userID {
		return nil, shared.PolicyError("Admins cannot deactivate their own account")
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.IsActive = false
	u.UpdatedAt = time.Now().UTC()
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, shared.InternalError("failed to deactivate user", err)
	}
	if _, err := s.store.Sessions().DeleteByUser(ctx, u.ID); err != nil {
		s.log.Warn("failed to revoke sessions", "user_id", u.ID, "error", err)
	}

	s.log.Info("user deactivated", "user_id", u.ID, "admin", actor.UserID)
	return u, nil
}

// ============================================================================
// Instructor Verification
// ============================================================================

// VerifyDocument records an admin decision on one instructor document.
// Once every document is verified the instructor is approved; a rejection
// moves the profile to rejected until the documents are reset.
func (s *UserService) VerifyDocument(ctx context.Context, actor shared.Actor, userID, documentID string, in VerifyDocumentInput) (*VerifyDocumentResult, error) {
	if !actor.IsAdmin() {
		return nil, shared.AccessError("Access denied")
	}
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	var (
		result *VerifyDocumentResult
		u      *shared.User
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.instructor(ctx, userID)
		if err != nil {
			return err
		}
		profile := u.InstructorProfile

		idx := -1
		for i := range profile.Documents {
			if profile.Documents[i].ID == documentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return shared.NotFoundError("Document not found")
		}

		now := time.Now().UTC()
		doc := &profile.Documents[idx]
		doc.Verified = in.Verified
		doc.VerifiedBy = actor.UserID
		doc.VerifiedAt = &now
		doc.Comments = in.Comments

		approved := false
		if in.Verified {
			if allVerified(profile.Documents) {
				profile.VerificationStatus = shared.VerificationApproved
				u.IsApproved = true
				approved = true
			}
		} else {
			profile.VerificationStatus = shared.VerificationRejected
			profile.VerificationComments = in.Comments
			u.IsApproved = false
		}
		u.UpdatedAt = now

		if err := s.store.Users().Update(ctx, u); err != nil {
			return err
		}
		result = &VerifyDocumentResult{Document: *doc, UserApproved: approved}
		return nil
	})
	if err != nil {
		return nil, s.serviceError(err, "document verification failed")
	}

	s.log.Info("document reviewed", "user_id", userID, "document_id", documentID,
		"verified", in.Verified, "user_approved", result.UserApproved, "admin", actor.UserID)

	switch {
	case result.UserApproved:
		s.notify(ctx, userID, notification.Event{
			Type:      shared.NotifyDocVerified,
			Title:     "Verification Complete",
			Message:   "All your documents have been verified. You can now create courses.",
			TargetURL: "/instructor/dashboard",
		})
	case !in.Verified:
		msg := fmt.Sprintf("Your %s was rejected.", shared.DocumentTypeLabel(result.Document.Type))
		if in.Comments != "" {
			msg += " Reason: " + in.Comments
		}
		s.notify(ctx, userID, notification.Event{
			Type:           shared.NotifyDocRejected,
			Title:          "Document Rejected",
			Message:        truncate(msg, 500),
			TargetURL:      "/instructor/documents",
			ActionRequired: true,
		})
	}
	return result, nil
}

// ResetDocuments clears an instructor's documents so they can upload again
func (s *UserService) ResetDocuments(ctx context.Context, actor shared.Actor, userID string) (*shared.User, error) {
	if !actor.Owns(userID) {
		return nil, shared.AccessError("Access denied")
	}

	var u *shared.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.instructor(ctx, userID)
		if err != nil {
			return err
		}

		u.InstructorProfile.Documents = []shared.Document{}
		u.InstructorProfile.DocumentsUploaded = false
		u.InstructorProfile.VerificationStatus = shared.VerificationPending
		u.InstructorProfile.VerificationComments = ""
		u.IsApproved = false
		u.UpdatedAt = time.Now().UTC()

		return s.store.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, s.serviceError(err, "failed to reset documents")
	}
	s.log.Info("instructor documents reset", "user_id", userID, "actor", actor.UserID)
	return u, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *UserService) list(ctx context.Context, f store.UserFilter, page shared.Page) ([]shared.User, shared.Pagination, error) {
	users, total, err := s.store.Users().List(ctx, f, page)
	if err != nil {
		return nil, shared.Pagination{}, shared.InternalError("failed to list users", err)
	}
	return users, page.Paginate(total), nil
}

func (s *UserService) user(ctx context.Context, id string) (*shared.User, error) {
	u, err := s.store.Users().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("User not found")
		}
		return nil, shared.InternalError("failed to load user", err)
	}
	return u, nil
}

func (s *UserService) instructor(ctx context.Context, id string) (*shared.User, error) {
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != shared.RoleInstructor || u.InstructorProfile == nil {
		return nil, shared.NotFoundError("Instructor not found")
	}
	return u, nil
}

func (s *UserService) notify(ctx context.Context, userID string, ev notification.Event) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.ToUser(ctx, userID, ev); err != nil {
		s.log.Warn("user notification failed", "user", userID, "type", ev.Type, "error", err)
	}
}

func (s *UserService) serviceError(err error, msg string) error {
	var se *shared.Error
	if errors.As(err, &se) {
		return se
	}
	s.log.Error(msg, "error", err)
	return shared.InternalError(msg, err)
}

func allVerified(docs []shared.Document) bool {
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if !d.Verified {
			return false
		}
	}
	return true
}

// truncate keeps at most n runes of s
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
