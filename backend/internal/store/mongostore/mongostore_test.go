package mongostore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// newTestStore connects to MONGO_URI and uses a throwaway database
func newTestStore(t *testing.T) *Store {
	t.Helper()
	_ = godotenv.Load("../../../../.env")

	uri := shared.GetEnv("MONGO_URI", "")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping MongoDB integration tests")
	}

	cfg := shared.DefaultMongoConfig(uri, fmt.Sprintf("coursehub_test_%d", time.Now().UnixNano()))
	client, db, err := shared.ConnectMongoDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = shared.DisconnectMongoDB(client)
	})

	st := New(client, db)
	require.NoError(t, st.EnsureIndexes(context.Background()))
	return st
}

func TestUsers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := &shared.User{ID: "u1", Email: "a@example.com", Role: shared.RoleStudent, IsActive: true, IsApproved: true}
	require.NoError(t, st.Users().Create(ctx, u))

	err := st.Users().Create(ctx, &shared.User{ID: "u2", Email: "a@example.com", Role: shared.RoleStudent})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := st.Users().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = st.Users().Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	users, total, err := st.Users().List(ctx, store.UserFilter{Role: shared.RoleStudent}, shared.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, users, 1)
}

func TestEnrollmentCounter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Courses().Create(ctx, &shared.Course{ID: "c1", CourseCode: "GO101", MaxStudents: 2, IsActive: true}))

	require.NoError(t, st.Courses().IncrementEnrollment(ctx, "c1"))
	require.NoError(t, st.Courses().IncrementEnrollment(ctx, "c1"))
	assert.ErrorIs(t, st.Courses().IncrementEnrollment(ctx, "c1"), store.ErrCapacityReached)
	assert.ErrorIs(t, st.Courses().IncrementEnrollment(ctx, "missing"), store.ErrNotFound)

	require.NoError(t, st.Courses().DecrementEnrollment(ctx, "c1"))
	require.NoError(t, st.Courses().DecrementEnrollment(ctx, "c1"))
	require.NoError(t, st.Courses().DecrementEnrollment(ctx, "c1"))

	c, err := st.Courses().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.CurrentEnrollment)
}

func TestOneActiveEnrollmentPerStudent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := &shared.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: shared.EnrollmentEnrolled, EnrollmentDate: time.Now()}
	require.NoError(t, st.Enrollments().Create(ctx, first))

	err := st.Enrollments().Create(ctx, &shared.Enrollment{ID: "e2", StudentID: "s1", CourseID: "c1", Status: shared.EnrollmentEnrolled})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	first.Status = shared.EnrollmentDropped
	require.NoError(t, st.Enrollments().Update(ctx, first))
	require.NoError(t, st.Enrollments().Create(ctx, &shared.Enrollment{ID: "e3", StudentID: "s1", CourseID: "c1", Status: shared.EnrollmentEnrolled}))

	active, err := st.Enrollments().FindActive(ctx, "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "e3", active.ID)
}

func TestLecturesByModule(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"l2", "l1", "l3"} {
		moduleID := "m1"
		if id == "l3" {
			moduleID = "m2"
		}
		require.NoError(t, st.Lectures().Create(ctx, &shared.Lecture{ID: id, ModuleID: moduleID, Order: 2 - i, Resources: []shared.Resource{}}))
	}

	lectures, total, err := st.Lectures().List(ctx, store.LectureFilter{ModuleID: "m1"}, shared.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, lectures, 2)
	assert.Equal(t, "l1", lectures[0].ID)

	removed, err := st.Lectures().DeleteByModule(ctx, "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, err = st.Lectures().Get(ctx, "l2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNotificationsAndGrades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, st.Notifications().Create(ctx, &shared.Notification{
			ID: fmt.Sprintf("n%d", i), RecipientID: "u1", Title: "t", Message: "m",
			Type: shared.NotifySystem, CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}
	unread, err := st.Notifications().CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	updated, err := st.Notifications().MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	g := &shared.Grade{ID: "g1", CourseID: "c1", StudentID: "s1", Percentage: 72, LetterGrade: "C"}
	require.NoError(t, st.Grades().Upsert(ctx, g))
	again := &shared.Grade{ID: "g2", CourseID: "c1", StudentID: "s1", Percentage: 91, LetterGrade: "A"}
	require.NoError(t, st.Grades().Upsert(ctx, again))
	assert.Equal(t, "g1", again.ID)

	grades, err := st.Grades().List(ctx, store.GradeFilter{CourseID: "c1"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "A", grades[0].LetterGrade)
}
