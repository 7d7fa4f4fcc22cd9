package course

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store/memstore"
)

var (
	admin      = shared.Actor{UserID: "admin1", Role: shared.RoleAdmin}
	instructor = shared.Actor{UserID: "inst1", Role: shared.RoleInstructor}
)

func setup(t *testing.T) (*CourseService, *memstore.DB, *notification.Service) {
	t.Helper()
	db := memstore.New()
	ctx := context.Background()
	require.NoError(t, db.Users().Create(ctx, &shared.User{ID: "admin1", Email: "a@x.io", Role: shared.RoleAdmin, IsActive: true}))
	require.NoError(t, db.Users().Create(ctx, &shared.User{ID: "inst1", Email: "i1@x.io", FirstName: "Ian", Role: shared.RoleInstructor, IsActive: true, IsApproved: true}))
	require.NoError(t, db.Users().Create(ctx, &shared.User{ID: "inst2", Email: "i2@x.io", Role: shared.RoleInstructor, IsActive: true}))
	notifier := notification.NewService(db, logger.Nop(), nil)
	return NewCourseService(db, logger.Nop(), notifier), db, notifier
}

func validCourse(code string) CreateCourseInput {
	return CreateCourseInput{
		Title: "Distributed Systems", Description: "Consensus and replication", CourseCode: code,
		Credits: 3, MaxStudents: 30, Fees: 0, Category: "Computer Science", Level: shared.LevelIntermediate,
	}
}

func TestCreateCourse(t *testing.T) {
	svc, _, notifier := setup(t)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, instructor, validCourse(" cs401 "))
	require.NoError(t, err)
	assert.Equal(t, "CS401", c.CourseCode)
	assert.False(t, c.IsApproved)
	assert.True(t, c.IsActive)
	assert.Equal(t, "inst1", c.InstructorID)

	notes, _, err := notifier.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, c.ID, notes[0].TargetID)

	tests := []struct {
		name  string
		actor shared.Actor
		in    CreateCourseInput
		kind  shared.Kind
	}{
		{"duplicate code in other case", instructor, validCourse("cs401"), shared.KindConflict},
		{"unapproved instructor", shared.Actor{UserID: "inst2", Role: shared.RoleInstructor}, validCourse("CS402"), shared.KindPolicy},
		{"student", shared.Actor{UserID: "s1", Role: shared.RoleStudent}, validCourse("CS403"), shared.KindAccess},
		{"too many credits", instructor, func() CreateCourseInput { in := validCourse("CS404"); in.Credits = 11; return in }(), shared.KindValidation},
		{"no seats", instructor, func() CreateCourseInput { in := validCourse("CS405"); in.MaxStudents = 0; return in }(), shared.KindValidation},
		{"negative fees", instructor, func() CreateCourseInput { in := validCourse("CS406"); in.Fees = -1; return in }(), shared.KindValidation},
		{"unknown level", instructor, func() CreateCourseInput { in := validCourse("CS407"); in.Level = "Expert"; return in }(), shared.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCourse(ctx, tt.actor, tt.in)
			assert.True(t, shared.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestCatalogueAndApproval(t *testing.T) {
	svc, db, notifier := setup(t)
	ctx := context.Background()

	var ids []string
	for _, code := range []string{"CS101", "CS102", "MA101"} {
		c, err := svc.CreateCourse(ctx, instructor, validCourse(code))
		require.NoError(t, err)
		ids = append(ids, c.ID)
		time.Sleep(time.Millisecond)
	}
	_, err := svc.AddMaterial(ctx, instructor, ids[0], MaterialInput{Title: "Syllabus", Type: shared.MaterialPDF, URL: "https://x.io/s.pdf"})
	require.NoError(t, err)

	inactive, err := db.Courses().Get(ctx, ids[2])
	require.NoError(t, err)
	inactive.IsActive = false
	require.NoError(t, db.Courses().Update(ctx, inactive))

	t.Run("list hides inactive courses and materials", func(t *testing.T) {
		list, pg, err := svc.ListCourses(ctx, ListQuery{}, shared.NewPage(1, 10))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.EqualValues(t, 2, pg.Total)
		for _, c := range list {
			assert.Nil(t, c.Materials)
		}
	})

	t.Run("search matches code", func(t *testing.T) {
		list, _, err := svc.ListCourses(ctx, ListQuery{Search: "cs102"}, shared.NewPage(1, 10))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "CS102", list[0].CourseCode)
	})

	t.Run("pending then approved", func(t *testing.T) {
		pending, err := svc.PendingCourses(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		_, err = svc.ApproveCourse(ctx, instructor, ids[0])
		assert.True(t, shared.IsKind(err, shared.KindAccess))

		c, err := svc.ApproveCourse(ctx, admin, ids[0])
		require.NoError(t, err)
		assert.True(t, c.IsApproved)
		assert.Equal(t, "admin1", c.ApprovedBy)

		pending, err = svc.PendingCourses(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, pending, 1)

		notes, _, err := notifier.List(ctx, instructor)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, shared.NotifyCourseApproved, notes[0].Type)
	})

	t.Run("instructor courses", func(t *testing.T) {
		list, err := svc.InstructorCourses(ctx, "inst1")
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestMaterials(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	c, err := svc.CreateCourse(ctx, instructor, validCourse("CS201"))
	require.NoError(t, err)

	m, err := svc.AddMaterial(ctx, instructor, c.ID, MaterialInput{Title: "Week 1", Type: shared.MaterialVideo, URL: "https://x.io/w1"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)

	_, err = svc.AddMaterial(ctx, instructor, c.ID, MaterialInput{Title: "Bad", Type: "mp3", URL: "https://x.io"})
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.AddMaterial(ctx, shared.Actor{UserID: "inst2", Role: shared.RoleInstructor}, c.ID, MaterialInput{Title: "x", Type: shared.MaterialNote, URL: "u"})
	assert.True(t, shared.IsKind(err, shared.KindAccess))

	free := true
	updated, err := svc.UpdateMaterial(ctx, admin, c.ID, m.ID, MaterialUpdate{IsFree: &free})
	require.NoError(t, err)
	assert.True(t, updated.IsFree)
	assert.Equal(t, "Week 1", updated.Title)

	_, err = svc.UpdateMaterial(ctx, instructor, c.ID, "nope", MaterialUpdate{IsFree: &free})
	assert.True(t, shared.IsKind(err, shared.KindNotFound))

	require.NoError(t, svc.DeleteMaterial(ctx, instructor, c.ID, m.ID))
	got, err := svc.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Materials)

	err = svc.DeleteMaterial(ctx, instructor, c.ID, m.ID)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}
