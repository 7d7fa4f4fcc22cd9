package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store/memstore"
)

var testSecurity = shared.SecurityConfig{
	JWTSecret:          "test-secret",
	JWTIssuer:          "coursehub-test",
	JWTExpirationHours: 1,
	BCryptCost:         bcrypt.MinCost,
}

func setup(t *testing.T) (*AuthService, *memstore.DB, *notification.Service) {
	t.Helper()
	db := memstore.New()
	notifier := notification.NewService(db, logger.Nop(), nil)
	require.NoError(t, db.Users().Create(context.Background(), &shared.User{
		ID: "admin1", Email: "admin@coursehub.io", Role: shared.RoleAdmin, IsActive: true, IsApproved: true,
	}))
	return NewAuthService(db, logger.Nop(), testSecurity, notifier), db, notifier
}

func register(t *testing.T, svc *AuthService, email, role string) *RegisterResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Grace", LastName: "Hopper", Email: email, Password: "secret123", Role: role,
	})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	svc, _, notifier := setup(t)
	ctx := context.Background()

	t.Run("student is approved immediately", func(t *testing.T) {
		res := register(t, svc, "  Student@Example.com ", "")
		assert.Equal(t, "student@example.com", res.User.Email)
		assert.Equal(t, shared.RoleStudent, res.User.Role)
		assert.True(t, res.User.IsApproved)
		assert.False(t, res.RequiresApproval)
		assert.False(t, res.NeedsDocuments)
		assert.NotEmpty(t, res.Token)
		assert.NotEqual(t, "secret123", res.User.PasswordHash)
	})

	t.Run("duplicate email conflicts regardless of case", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "STUDENT@example.com", Password: "secret123"})
		assert.True(t, shared.IsKind(err, shared.KindConflict), "got %v", err)
	})

	t.Run("instructor awaits verification and admins are told", func(t *testing.T) {
		res := register(t, svc, "inst@example.com", shared.RoleInstructor)
		assert.False(t, res.User.IsApproved)
		assert.True(t, res.RequiresApproval)
		assert.True(t, res.NeedsDocuments)
		require.NotNil(t, res.User.InstructorProfile)
		assert.Equal(t, shared.VerificationPending, res.User.InstructorProfile.VerificationStatus)

		inbox, unread, err := notifier.List(ctx, shared.Actor{UserID: "admin1", Role: shared.RoleAdmin})
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		assert.EqualValues(t, 1, unread)
		assert.True(t, inbox[0].ActionRequired)
		assert.Equal(t, res.User.ID, inbox[0].TargetID)
	})

	t.Run("admin role cannot self register", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "x@example.com", Password: "secret123", Role: shared.RoleAdmin})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("short password reports the field", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "y@example.com", Password: "123"})
		require.True(t, shared.IsKind(err, shared.KindValidation))
		var se *shared.Error
		require.ErrorAs(t, err, &se)
		require.NotEmpty(t, se.Fields)
		assert.Equal(t, "password", se.Fields[0].Field)
	})
}

func TestLoginAndValidate(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()
	reg := register(t, svc, "ada@example.com", shared.RoleStudent)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "nope"})
		assert.True(t, shared.IsKind(err, shared.KindUnauthenticated))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret123"})
		assert.True(t, shared.IsKind(err, shared.KindUnauthenticated))
	})

	res, err := svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotNil(t, res.User.LastLogin)
	assert.NotEqual(t, reg.Token, res.Token)

	user, err := svc.ValidateToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)

	t.Run("logout revokes the session", func(t *testing.T) {
		revoked, err := svc.Logout(ctx, res.Token)
		require.NoError(t, err)
		assert.True(t, revoked)

		_, err = svc.ValidateToken(ctx, res.Token)
		assert.True(t, shared.IsKind(err, shared.KindUnauthenticated))

		revoked, err = svc.Logout(ctx, res.Token)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("deactivated account", func(t *testing.T) {
		u, err := db.Users().Get(ctx, reg.User.ID)
		require.NoError(t, err)
		u.IsActive = false
		require.NoError(t, db.Users().Update(ctx, u))

		_, err = svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123"})
		assert.True(t, shared.IsKind(err, shared.KindPolicy))

		_, err = svc.ValidateToken(ctx, reg.Token)
		assert.True(t, shared.IsKind(err, shared.KindUnauthenticated))
	})
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "not-a-jwt")
	assert.True(t, shared.IsKind(err, shared.KindUnauthenticated))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		UserID: "admin1",
		Role:   shared.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testSecurity.JWTIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, signed)
	assert.True(t, shared.IsKind(err, shared.KindUnauthenticated))

	// correctly signed but never issued through login
	valid, _, err := svc.generateToken("admin1", shared.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, valid)
	assert.True(t, shared.IsKind(err, shared.KindUnauthenticated))
}

func TestProfileAndPassword(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	reg := register(t, svc, "lin@example.com", shared.RoleStudent)
	actor := shared.Actor{UserID: reg.User.ID, Role: reg.User.Role}

	phone := "555-0100"
	first := "Linus"
	u, err := svc.UpdateProfile(ctx, actor, ProfileInput{FirstName: &first, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Linus", u.FirstName)
	assert.Equal(t, "Hopper", u.LastName)
	assert.Equal(t, phone, u.Phone)

	err = svc.ChangePassword(ctx, actor, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "brandnew1"})
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	require.NoError(t, svc.ChangePassword(ctx, actor, ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "brandnew1"}))

	_, err = svc.ValidateToken(ctx, reg.Token)
	assert.True(t, shared.IsKind(err, shared.KindUnauthenticated), "sessions should be revoked")

	_, err = svc.Login(ctx, LoginInput{Email: "lin@example.com", Password: "brandnew1"})
	assert.NoError(t, err)
}

func TestUploadDocuments(t *testing.T) {
	svc, db, notifier := setup(t)
	ctx := context.Background()
	reg := register(t, svc, "teach@example.com", shared.RoleInstructor)
	actor := shared.Actor{UserID: reg.User.ID, Role: shared.RoleInstructor}

	doc := DocumentInput{
		Type: shared.DocDegreeCertificate, OriginalName: "degree.pdf", Filename: "abc.pdf",
		Path: "uploads/abc.pdf", Mimetype: "application/pdf", Size: 2048,
	}

	t.Run("students cannot upload", func(t *testing.T) {
		_, err := svc.UploadDocuments(ctx, shared.Actor{UserID: "s1", Role: shared.RoleStudent}, UploadDocumentsInput{Documents: []DocumentInput{doc}})
		assert.True(t, shared.IsKind(err, shared.KindAccess))
	})

	t.Run("bad mimetype", func(t *testing.T) {
		bad := doc
		bad.Mimetype = "application/zip"
		_, err := svc.UploadDocuments(ctx, actor, UploadDocumentsInput{Documents: []DocumentInput{bad}})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	u, err := svc.UploadDocuments(ctx, actor, UploadDocumentsInput{Documents: []DocumentInput{doc}})
	require.NoError(t, err)
	require.Len(t, u.InstructorProfile.Documents, 1)
	assert.NotEmpty(t, u.InstructorProfile.Documents[0].ID)
	assert.True(t, u.InstructorProfile.DocumentsUploaded)
	assert.Equal(t, shared.VerificationUnderReview, u.InstructorProfile.VerificationStatus)

	inbox, _, err := notifier.List(ctx, shared.Actor{UserID: "admin1", Role: shared.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, inbox, 2)

	t.Run("rejected profile must be reset first", func(t *testing.T) {
		stored, err := db.Users().Get(ctx, reg.User.ID)
		require.NoError(t, err)
		stored.InstructorProfile.VerificationStatus = shared.VerificationRejected
		require.NoError(t, db.Users().Update(ctx, stored))

		_, err = svc.UploadDocuments(ctx, actor, UploadDocumentsInput{Documents: []DocumentInput{doc}})
		assert.True(t, shared.IsKind(err, shared.KindPolicy))
	})
}
