package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// AuthService handles accounts, sessions and instructor document uploads
type AuthService struct {
	store    store.Store
	log      *logger.Logger
	security shared.SecurityConfig
	notifier notification.Publisher
}

// NewAuthService creates a new AuthService instance
func NewAuthService(st store.Store, log *logger.Logger, security shared.SecurityConfig, notifier notification.Publisher) *AuthService {
	return &AuthService{
		store:    st,
		log:      log.With("service", "AuthService"),
		security: security,
		notifier: notifier,
	}
}

// ============================================================================
// Inputs / Results
// ============================================================================

type RegisterInput struct {
	FirstName string `json:"firstName" validate:"notblank,max=50"`
	LastName  string `json:"lastName" validate:"notblank,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"omitempty,oneof=student instructor"`
	Phone     string `json:"phone" validate:"max=20"`

	// instructor only
	Qualification  string   `json:"qualification" validate:"max=200"`
	Experience     int      `json:"experience" validate:"min=0,max=60"`
	Specialization []string `json:"specialization" validate:"omitempty,dive,max=100"`
	Bio            string   `json:"bio" validate:"max=1000"`
	LinkedIn       string   `json:"linkedIn" validate:"omitempty,url"`
	Portfolio      string   `json:"portfolio" validate:"omitempty,url"`
}

type RegisterResult struct {
	User             *shared.User `json:"user"`
	Token            string       `json:"token"`
	ExpiresAt        time.Time    `json:"expiresAt"`
	RequiresApproval bool         `json:"requiresApproval"`
	NeedsDocuments   bool         `json:"needsDocuments"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	User      *shared.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// ProfileInput lists the only profile fields a user may change themselves
type ProfileInput struct {
	FirstName   *string    `json:"firstName" validate:"omitempty,notblank,max=50"`
	LastName    *string    `json:"lastName" validate:"omitempty,notblank,max=50"`
	Phone       *string    `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Address     *string    `json:"address" validate:"omitempty,max=300"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72,nefield=CurrentPassword"`
}

type DocumentInput struct {
	Type         string `json:"type" validate:"oneof=degree_certificate teaching_certificate id_proof experience_letter other"`
	OriginalName string `json:"originalName" validate:"notblank,max=255"`
	Filename     string `json:"filename" validate:"notblank,max=255"`
	Path         string `json:"path" validate:"notblank,max=1024"`
	Mimetype     string `json:"mimetype" validate:"oneof=application/pdf image/jpeg image/png"`
	Size         int64  `json:"size" validate:"min=1,max=10485760"`
}

type UploadDocumentsInput struct {
	Documents []DocumentInput `json:"documents" validate:"required,min=1,max=10,dive"`
}

// ============================================================================
// Registration & Login
// ============================================================================

// Register creates an account. Students are approved immediately;
// instructors start with a pending verification profile and admins are
// notified.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = shared.RoleStudent
	}

	if _, err := s.store.Users().GetByEmail(ctx, in.Email); err == nil {
		return nil, shared.ConflictError("User already exists with this email")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, shared.InternalError("failed to check email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.security.BCryptCost)
	if err != nil {
		return nil, shared.InternalError("failed to process password", err)
	}

	now := time.Now().UTC()
	user := &shared.User{
		ID:           shared.GenerateID(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Phone:        in.Phone,
		IsActive:     true,
		IsApproved:   in.Role == shared.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Role == shared.RoleInstructor {
		user.InstructorProfile = &shared.InstructorProfile{
			Qualification:      in.Qualification,
			Experience:         in.Experience,
			Specialization:     in.Specialization,
			Bio:                in.Bio,
			LinkedIn:           in.LinkedIn,
			Portfolio:          in.Portfolio,
			Documents:          []shared.Document{},
			VerificationStatus: shared.VerificationPending,
		}
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, shared.ConflictError("User already exists with this email")
		}
		return nil, shared.InternalError("failed to create user", err)
	}

	token, expiresAt, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)

	if user.Role == shared.RoleInstructor && s.notifier != nil {
		s.notifier.ToAdmins(ctx, notification.Event{
			Type:           shared.NotifySystem,
			Title:          "New Instructor Registration",
			Message:        fmt.Sprintf("%s has registered as an instructor and is awaiting verification.", user.FullName()),
			TargetID:       user.ID,
			TargetURL:      "/admin/instructor-verification",
			ActionRequired: true,
		})
	}

	return &RegisterResult{
		User:             user,
		Token:            token,
		ExpiresAt:        expiresAt,
		RequiresApproval: !user.IsApproved,
		NeedsDocuments:   user.Role == shared.RoleInstructor,
	}, nil
}

// Login authenticates a user and returns a JWT
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.UnauthenticatedError("Invalid credentials")
		}
		return nil, shared.InternalError("database error", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, shared.UnauthenticatedError("Invalid credentials")
	}

	if !user.IsActive {
		return nil, shared.PolicyError("Account is deactivated")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.store.Users().Update(ctx, user); err != nil {
		s.log.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	token, expiresAt, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout invalidates the session of a token. Logging out an unknown or
// expired token still succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, shared.ValidationError("token is required")
	}
	n, err := s.store.Sessions().DeleteByToken(ctx, token)
	if err != nil {
		return false, shared.InternalError("failed to logout", err)
	}
	return n > 0, nil
}

// ValidateToken checks signature, session and account state and returns
// the authenticated user
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*shared.User, error) {
	if token == "" {
		return nil, shared.UnauthenticatedError("Authorization token required")
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return nil, shared.UnauthenticatedError("Invalid or expired token")
	}

	session, err := s.store.Sessions().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.UnauthenticatedError("Session expired or revoked")
		}
		return nil, shared.InternalError("failed to load session", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, shared.UnauthenticatedError("Session expired or revoked")
	}

	user, err := s.store.Users().Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.UnauthenticatedError("User not found")
		}
		return nil, shared.InternalError("failed to load user", err)
	}
	if !user.IsActive {
		return nil, shared.UnauthenticatedError("Account is deactivated")
	}
	return user, nil
}

// ============================================================================
// Profile
// ============================================================================

// Me returns the actor's own account
func (s *AuthService) Me(ctx context.Context, actor shared.Actor) (*shared.User, error) {
	return s.user(ctx, actor.UserID)
}

// UpdateProfile changes whitelisted profile fields
func (s *AuthService) UpdateProfile(ctx context.Context, actor shared.Actor, in ProfileInput) (*shared.User, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	user, err := s.user(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.DateOfBirth != nil {
		user.DateOfBirth = in.DateOfBirth
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, shared.InternalError("failed to update profile", err)
	}
	return user, nil
}

// ChangePassword replaces the password and revokes every session
func (s *AuthService) ChangePassword(ctx context.Context, actor shared.Actor, in ChangePasswordInput) error {
	if err := shared.Validate(in); err != nil {
		return err
	}
	user, err := s.user(ctx, actor.UserID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return shared.ValidationError("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.security.BCryptCost)
	if err != nil {
		return shared.InternalError("failed to process password", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return shared.InternalError("failed to update password", err)
	}

	if _, err := s.store.Sessions().DeleteByUser(ctx, user.ID); err != nil {
		s.log.Warn("failed to revoke sessions", "user_id", user.ID, "error", err)
	}
	return nil
}

// ============================================================================
// Instructor Documents
// ============================================================================

// UploadDocuments records verification documents for an instructor and moves
// the profile to under_review. Only metadata is stored.
func (s *AuthService) UploadDocuments(ctx context.Context, actor shared.Actor, in UploadDocumentsInput) (*shared.User, error) {
	if actor.Role != shared.RoleInstructor {
		return nil, shared.AccessError("Only instructors can upload verification documents")
	}
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	var user *shared.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.user(ctx, actor.UserID)
		if err != nil {
			return err
		}
		profile := user.InstructorProfile
		if profile == nil {
			profile = &shared.InstructorProfile{VerificationStatus: shared.VerificationPending}
			user.InstructorProfile = profile
		}

		switch profile.VerificationStatus {
		case shared.VerificationRejected:
			return shared.PolicyError("Documents were rejected; reset your documents before uploading again")
		case shared.VerificationApproved:
			return shared.ConflictError("Instructor is already verified")
		}

		now := time.Now().UTC()
		for _, d := range in.Documents {
			profile.Documents = append(profile.Documents, shared.Document{
				ID:           shared.GenerateID(),
				Type:         d.Type,
				OriginalName: d.OriginalName,
				Filename:     d.Filename,
				Path:         d.Path,
				Mimetype:     d.Mimetype,
				Size:         d.Size,
				UploadedAt:   now,
			})
		}
		profile.DocumentsUploaded = true
		profile.VerificationStatus = shared.VerificationUnderReview
		user.UpdatedAt = now

		return s.store.Users().Update(ctx, user)
	})
	if err != nil {
		var se *shared.Error
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, shared.InternalError("failed to save documents", err)
	}

	s.log.Info("instructor documents uploaded", "user_id", user.ID, "count", len(in.Documents))

	if s.notifier != nil {
		s.notifier.ToAdmins(ctx, notification.Event{
			Type:           shared.NotifySystem,
			Title:          "Instructor Documents Uploaded",
			Message:        fmt.Sprintf("%s uploaded %d document(s) for verification.", user.FullName(), len(in.Documents)),
			TargetID:       user.ID,
			TargetURL:      "/admin/instructor-verification",
			ActionRequired: true,
		})
	}
	return user, nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (s *AuthService) openSession(ctx context.Context, user *shared.User) (string, time.Time, error) {
	token, expiresAt, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, shared.InternalError("failed to generate token", err)
	}

	session := &shared.Session{
		ID:        shared.GenerateID(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return "", time.Time{}, shared.InternalError("failed to create session", err)
	}
	return token, expiresAt, nil
}

func (s *AuthService) user(ctx context.Context, id string) (*shared.User, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("User not found")
		}
		return nil, shared.InternalError("failed to load user", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
