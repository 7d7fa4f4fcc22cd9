package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
	"coursehub/backend/internal/store/memstore"
)

var (
	instructor = shared.Actor{UserID: "inst1", Role: shared.RoleInstructor}
	stranger   = shared.Actor{UserID: "inst2", Role: shared.RoleInstructor}
	admin      = shared.Actor{UserID: "admin1", Role: shared.RoleAdmin}
	enrolled   = shared.Actor{UserID: "stud1", Role: shared.RoleStudent}
	visitor    = shared.Actor{UserID: "stud2", Role: shared.RoleStudent}
)

func setup(t *testing.T) (*Service, *memstore.DB) {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()
	require.NoError(t, db.Courses().Create(ctx, &shared.Course{
		ID: "course1", CourseCode: "GO101", InstructorID: instructor.UserID,
		MaxStudents: 10, IsActive: true, IsApproved: true, CreatedAt: time.Now(),
	}))
	require.NoError(t, db.Enrollments().Create(ctx, &shared.Enrollment{
		ID: "enr1", StudentID: enrolled.UserID, CourseID: "course1", Status: shared.EnrollmentEnrolled,
	}))
	return NewService(db, logger.Nop()), db
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func video(url string) ContentInput {
	return ContentInput{Resources: []ResourceInput{{Type: shared.ContentVideo, URL: url, Duration: 10}}}
}

func TestCreateModule(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		m, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Basics"})
		require.NoError(t, err)
		assert.Equal(t, 1, m.Order)
		assert.False(t, m.IsPublished)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "nope", Title: "Basics"})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("empty title", func(t *testing.T) {
		_, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "  "})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := svc.CreateModule(ctx, stranger, CreateModuleInput{CourseID: "course1", Title: "Basics"})
		assert.True(t, shared.IsKind(err, shared.KindAccess))
	})

	t.Run("admin may add", func(t *testing.T) {
		_, err := svc.CreateModule(ctx, admin, CreateModuleInput{CourseID: "course1", Title: "Extra", Order: intPtr(4)})
		assert.NoError(t, err)
	})
}

func TestCreateLecture(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	m, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Basics"})
	require.NoError(t, err)

	t.Run("resource list", func(t *testing.T) {
		l, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{
			ModuleID: m.ID, Title: "Intro", Order: 1, ContentInput: video("https://v/1"),
		})
		require.NoError(t, err)
		require.Len(t, l.Resources, 1)
		assert.Equal(t, "https://v/1", l.Resources[0].URL)
	})

	t.Run("legacy single content is normalized", func(t *testing.T) {
		l, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{
			ModuleID: m.ID, Title: "Slides", Order: 2,
			ContentInput: ContentInput{ContentType: shared.ContentDocument, ContentURL: "https://d/1", Duration: 5},
		})
		require.NoError(t, err)
		require.Len(t, l.Resources, 1)
		assert.Equal(t, shared.ContentDocument, l.Resources[0].Type)
		assert.Empty(t, l.ContentURL)
	})

	t.Run("no content", func(t *testing.T) {
		_, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: m.ID, Title: "Empty", Order: 1})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("missing module id", func(t *testing.T) {
		_, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{Title: "x", Order: 1, ContentInput: video("https://v")})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("unknown module", func(t *testing.T) {
		_, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: "nope", Title: "x", Order: 1, ContentInput: video("https://v")})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("bad content type", func(t *testing.T) {
		_, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{
			ModuleID: m.ID, Title: "x", Order: 1,
			ContentInput: ContentInput{Resources: []ResourceInput{{Type: "podcast", URL: "https://p"}}},
		})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})
}

func TestUpdateMergesFields(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	m, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Basics", Description: "keep me"})
	require.NoError(t, err)

	updated, err := svc.UpdateModule(ctx, instructor, m.ID, UpdateModuleInput{Title: strPtr("Fundamentals"), Order: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, "Fundamentals", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, 3, updated.Order)

	_, err = svc.UpdateModule(ctx, stranger, m.ID, UpdateModuleInput{Title: strPtr("Hijack")})
	assert.True(t, shared.IsKind(err, shared.KindAccess))

	_, err = svc.UpdateModule(ctx, instructor, "missing", UpdateModuleInput{Title: strPtr("x")})
	assert.True(t, shared.IsKind(err, shared.KindNotFound))

	l, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: m.ID, Title: "Intro", Order: 1, ContentInput: video("https://v/1")})
	require.NoError(t, err)
	l2, err := svc.UpdateLecture(ctx, instructor, l.ID, UpdateLectureInput{Order: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, l2.Order)
	assert.Equal(t, "Intro", l2.Title)
	require.Len(t, l2.Resources, 1)

	l3, err := svc.UpdateLecture(ctx, instructor, l.ID, UpdateLectureInput{ContentInput: video("https://v/2")})
	require.NoError(t, err)
	require.Len(t, l3.Resources, 1)
	assert.Equal(t, "https://v/2", l3.Resources[0].URL)
}

func TestDeleteModuleCascades(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Basics"})
	require.NoError(t, err)
	keep, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Advanced"})
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: m.ID, Title: "L", Order: i, ContentInput: video("https://v")})
		require.NoError(t, err)
	}
	_, err = svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: keep.ID, Title: "K", Order: 1, ContentInput: video("https://v")})
	require.NoError(t, err)

	_, err = svc.DeleteModule(ctx, stranger, m.ID)
	assert.True(t, shared.IsKind(err, shared.KindAccess))

	removed, err := svc.DeleteModule(ctx, instructor, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	orphans, total, err := db.Lectures().List(ctx, store.LectureFilter{ModuleID: m.ID}, shared.Page{})
	require.NoError(t, err)
	assert.Empty(t, orphans)
	assert.Zero(t, total)

	_, total, _ = db.Lectures().List(ctx, store.LectureFilter{ModuleID: keep.ID}, shared.Page{})
	assert.EqualValues(t, 1, total)

	_, err = svc.GetModule(ctx, instructor, m.ID)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestPublishToggle(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	m, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Basics"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := svc.SetModulePublished(ctx, instructor, m.ID, boolPtr(true))
		require.NoError(t, err)
		assert.True(t, got.IsPublished)
	}

	got, err := svc.SetModulePublished(ctx, instructor, m.ID, nil)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)

	_, err = svc.SetModulePublished(ctx, enrolled, m.ID, boolPtr(true))
	assert.True(t, shared.IsKind(err, shared.KindAccess))

	_, err = svc.SetLecturePublished(ctx, instructor, "missing", boolPtr(true))
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestListModulesRespectsVisibility(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	for i, published := range []bool{true, false, true} {
		_, err := svc.CreateModule(ctx, instructor, CreateModuleInput{
			CourseID: "course1", Title: "M", Order: intPtr(3 - i), IsPublished: published,
		})
		require.NoError(t, err)
	}

	all, total, err := svc.ListModules(ctx, instructor, store.ModuleFilter{CourseID: "course1"}, shared.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, 1, all[0].Order)

	pub, total, err := svc.ListModules(ctx, visitor, store.ModuleFilter{CourseID: "course1"}, shared.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, m := range pub {
		assert.True(t, m.IsPublished)
	}

	drafts, _, err := svc.ListModules(ctx, visitor, store.ModuleFilter{CourseID: "course1", IsPublished: boolPtr(false)}, shared.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, drafts)

	paged, total, err := svc.ListModules(ctx, instructor, store.ModuleFilter{CourseID: "course1"}, shared.NewPage(2, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, paged, 1)
	assert.Equal(t, 3, paged[0].Order)
}

func TestLectureGate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	published, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Open", IsPublished: true})
	require.NoError(t, err)
	draft, err := svc.CreateModule(ctx, instructor, CreateModuleInput{CourseID: "course1", Title: "Draft"})
	require.NoError(t, err)

	open, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: published.ID, Title: "Open", Order: 1, IsPublished: true, ContentInput: video("https://v/open")})
	require.NoError(t, err)
	locked, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: published.ID, Title: "Soon", Order: 2, ContentInput: video("https://v/soon")})
	require.NoError(t, err)
	hidden, err := svc.CreateLecture(ctx, instructor, CreateLectureInput{ModuleID: draft.ID, Title: "Hidden", Order: 1, IsPublished: true, ContentInput: video("https://v/hidden")})
	require.NoError(t, err)

	t.Run("enrolled student", func(t *testing.T) {
		v, err := svc.GetLecture(ctx, enrolled, open.ID)
		require.NoError(t, err)
		assert.False(t, v.Locked)
		assert.Len(t, v.Resources, 1)

		v, err = svc.GetLecture(ctx, enrolled, locked.ID)
		require.NoError(t, err)
		assert.True(t, v.Locked)
		assert.Equal(t, "Soon", v.Title)
		assert.Empty(t, v.Resources)

		_, err = svc.GetLecture(ctx, enrolled, hidden.ID)
		assert.True(t, shared.IsKind(err, shared.KindNotFound))
	})

	t.Run("student not enrolled sees titles only", func(t *testing.T) {
		v, err := svc.GetLecture(ctx, visitor, open.ID)
		require.NoError(t, err)
		assert.True(t, v.Locked)
	})

	t.Run("owner sees everything", func(t *testing.T) {
		for _, id := range []string{open.ID, locked.ID, hidden.ID} {
			v, err := svc.GetLecture(ctx, instructor, id)
			require.NoError(t, err)
			assert.False(t, v.Locked)
		}
	})

	t.Run("list applies the gate per lecture", func(t *testing.T) {
		views, total, err := svc.ListLectures(ctx, enrolled, store.LectureFilter{ModuleID: published.ID}, shared.NewPage(1, 10))
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, views, 2)
		assert.False(t, views[0].Locked)
		assert.True(t, views[1].Locked)

		_, _, err = svc.ListLectures(ctx, enrolled, store.LectureFilter{ModuleID: draft.ID}, shared.NewPage(1, 10))
		assert.True(t, shared.IsKind(err, shared.KindNotFound))

		_, _, err = svc.ListLectures(ctx, enrolled, store.LectureFilter{}, shared.NewPage(1, 10))
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("outline", func(t *testing.T) {
		out, err := svc.CourseOutline(ctx, enrolled, "course1")
		require.NoError(t, err)
		assert.True(t, out.IsEnrolled)
		require.Len(t, out.Modules, 1)
		require.Len(t, out.Modules[0].Lectures, 2)
		assert.True(t, out.Modules[0].Lectures[1].Locked)

		out, err = svc.CourseOutline(ctx, admin, "course1")
		require.NoError(t, err)
		assert.Len(t, out.Modules, 2)

		_, err = svc.CourseOutline(ctx, enrolled, "missing")
		assert.True(t, shared.IsKind(err, shared.KindNotFound))
	})
}
