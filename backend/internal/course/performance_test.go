package course

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/backend/internal/shared"
)

func TestSatisfactionFromGrade(t *testing.T) {
	tests := []struct {
		avg  float64
		want float64
	}{
		{0, 1},
		{20, 1},
		{35, 1.5},
		{70, 3},
		{85, 4},
		{100, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, satisfactionFromGrade(tt.avg), 1e-9, "avg %v", tt.avg)
	}
}

func TestGradeDistribution(t *testing.T) {
	dist := gradeDistribution([]shared.Grade{
		{LetterGrade: "A"}, {LetterGrade: "A-"}, {LetterGrade: "B+"}, {LetterGrade: "C"},
		{LetterGrade: "D"}, {LetterGrade: "F"}, {LetterGrade: ""}, {LetterGrade: "X"},
	})
	assert.Equal(t, map[string]int{"A": 2, "B": 1, "C": 1, "D": 1, "F": 1}, dist)
}

func TestComputePerformanceEmpty(t *testing.T) {
	perf := computePerformance(&shared.Course{ID: "c1", Title: "Empty"}, nil, nil, nil, nil, time.Now())
	assert.Zero(t, perf.CompletionRate)
	assert.Zero(t, perf.SubmissionRate)
	assert.Zero(t, perf.AverageGrade)
	assert.Zero(t, perf.AverageSatisfaction)
	assert.Empty(t, perf.AssignmentStats)
	assert.Len(t, perf.GradeDistribution, 5)
}

func TestComputePerformanceIgnoresDroppedStudents(t *testing.T) {
	now := time.Now()
	enrollments := []shared.Enrollment{{ID: "e1", StudentID: "s1", CourseID: "c1", Status: shared.EnrollmentEnrolled, EnrollmentDate: now}}
	assignments := []shared.Assignment{{ID: "a1", CourseID: "c1", Title: "HW1", TotalPoints: 100, IsPublished: true}}
	submissions := []shared.Submission{
		{ID: "sub1", AssignmentID: "a1", StudentID: "s1", SubmittedAt: now, Grade: &shared.SubmissionGrade{Percentage: 80}},
		{ID: "sub2", AssignmentID: "a1", StudentID: "s2", SubmittedAt: now, Grade: &shared.SubmissionGrade{Percentage: 40}},
	}

	perf := computePerformance(&shared.Course{ID: "c1", Title: "Course"}, enrollments, assignments, submissions, nil, now)

	assert.Equal(t, 1, perf.TotalSubmissions)
	assert.Equal(t, 100.0, perf.CompletionRate)
	assert.Equal(t, 100.0, perf.SubmissionRate)
	require.Len(t, perf.AssignmentStats, 1)
	assert.Equal(t, AssignmentStat{AssignmentID: "a1", Title: "HW1", TotalSubmissions: 1, SubmissionRate: 100, AverageGrade: 80}, perf.AssignmentStats[0])
	assert.Equal(t, 1, perf.RecentActivity.RecentSubmissions)
}

func TestCoursePerformance(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-30 * 24 * time.Hour)

	require.NoError(t, db.Courses().Create(ctx, &shared.Course{ID: "c1", Title: "Go", CourseCode: "GO1", InstructorID: "inst1", MaxStudents: 10, IsActive: true, IsApproved: true}))

	for _, e := range []shared.Enrollment{
		{ID: "e1", StudentID: "s1", CourseID: "c1", Status: shared.EnrollmentEnrolled, EnrollmentDate: now},
		{ID: "e2", StudentID: "s2", CourseID: "c1", Status: shared.EnrollmentEnrolled, EnrollmentDate: old},
		{ID: "e3", StudentID: "s3", CourseID: "c1", Status: shared.EnrollmentDropped, EnrollmentDate: now},
	} {
		e := e
		require.NoError(t, db.Enrollments().Create(ctx, &e))
	}
	for _, a := range []shared.Assignment{
		{ID: "a1", CourseID: "c1", Title: "HW1", TotalPoints: 100, IsPublished: true, CreatedAt: old},
		{ID: "a2", CourseID: "c1", Title: "HW2", TotalPoints: 100, IsPublished: true, CreatedAt: now},
		{ID: "a3", CourseID: "c1", Title: "Draft", TotalPoints: 100, IsPublished: false, CreatedAt: now},
	} {
		a := a
		require.NoError(t, db.Assignments().Create(ctx, &a))
	}
	for _, s := range []shared.Submission{
		{ID: "sub1", AssignmentID: "a1", StudentID: "s1", SubmittedAt: old, Grade: &shared.SubmissionGrade{Percentage: 90}},
		{ID: "sub2", AssignmentID: "a2", StudentID: "s1", SubmittedAt: now},
		{ID: "sub3", AssignmentID: "a1", StudentID: "s2", SubmittedAt: now, Grade: &shared.SubmissionGrade{Percentage: 70}},
		{ID: "sub4", AssignmentID: "a3", StudentID: "s2", SubmittedAt: now},
	} {
		s := s
		require.NoError(t, db.Submissions().Create(ctx, &s))
	}
	for _, g := range []shared.Grade{
		{ID: "g1", CourseID: "c1", StudentID: "s1", Percentage: 95, LetterGrade: "A"},
		{ID: "g2", CourseID: "c1", StudentID: "s2", Percentage: 65, LetterGrade: "D"},
	} {
		g := g
		require.NoError(t, db.Grades().Upsert(ctx, &g))
	}

	_, err := svc.CoursePerformance(ctx, shared.Actor{UserID: "inst2", Role: shared.RoleInstructor}, "c1")
	assert.True(t, shared.IsKind(err, shared.KindAccess))

	_, err = svc.CoursePerformance(ctx, admin, "missing")
	assert.True(t, shared.IsKind(err, shared.KindNotFound))

	perf, err := svc.CoursePerformance(ctx, instructor, "c1")
	require.NoError(t, err)

	assert.Equal(t, 2, perf.TotalStudents)
	assert.Equal(t, 2, perf.TotalAssignments)
	assert.Equal(t, 3, perf.TotalSubmissions)
	assert.Equal(t, 75.0, perf.SubmissionRate)
	assert.Equal(t, 50.0, perf.CompletionRate)
	assert.Equal(t, 80.0, perf.AverageGrade)
	assert.Equal(t, 3.67, perf.AverageSatisfaction)

	require.Len(t, perf.AssignmentStats, 2)
	assert.Equal(t, AssignmentStat{AssignmentID: "a1", Title: "HW1", TotalSubmissions: 2, SubmissionRate: 100, AverageGrade: 80}, perf.AssignmentStats[0])
	assert.Equal(t, AssignmentStat{AssignmentID: "a2", Title: "HW2", TotalSubmissions: 1, SubmissionRate: 50, AverageGrade: 0}, perf.AssignmentStats[1])

	assert.Equal(t, RecentActivity{RecentSubmissions: 2, NewEnrollments: 1}, perf.RecentActivity)
	assert.Equal(t, map[string]int{"A": 1, "B": 0, "C": 0, "D": 1, "F": 0}, perf.GradeDistribution)
}
