package course

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

const (
	// a student has completed the course once they submitted this share of assignments
	completionThreshold = 0.8
	recentWindow        = 7 * 24 * time.Hour
)

type AssignmentStat struct {
	AssignmentID     string  `json:"assignmentId"`
	Title            string  `json:"title"`
	TotalSubmissions int     `json:"totalSubmissions"`
	SubmissionRate   float64 `json:"submissionRate"`
	AverageGrade     float64 `json:"averageGrade"`
}

type RecentActivity struct {
	RecentSubmissions int `json:"recentSubmissions"`
	NewEnrollments    int `json:"newEnrollments"`
}

// Performance is a read-only summary of how a course is going
type Performance struct {
	CourseID            string           `json:"courseId"`
	CourseTitle         string           `json:"courseTitle"`
	TotalStudents       int              `json:"totalStudents"`
	TotalAssignments    int              `json:"totalAssignments"`
	TotalSubmissions    int              `json:"totalSubmissions"`
	CompletionRate      float64          `json:"completionRate"`
	SubmissionRate      float64          `json:"submissionRate"`
	AverageGrade        float64          `json:"averageGrade"`
	AverageSatisfaction float64          `json:"averageSatisfaction"`
	AssignmentStats     []AssignmentStat `json:"assignmentStats"`
	RecentActivity      RecentActivity   `json:"recentActivity"`
	GradeDistribution   map[string]int   `json:"gradeDistribution"`
}

// CoursePerformance gathers enrollments, published assignments, submissions
// and posted grades of a course and folds them into a Performance.
// Only the course instructor or an admin may read it.
func (s *CourseService) CoursePerformance(ctx context.Context, actor shared.Actor, courseID string) (*Performance, error) {
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(course.InstructorID) {
		return nil, shared.AccessError("Access denied")
	}

	var (
		enrollments []shared.Enrollment
		assignments []shared.Assignment
		grades      []shared.Grade
		submissions []shared.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		enrollments, err = s.store.Enrollments().List(gctx, store.EnrollmentFilter{CourseID: courseID, Status: shared.EnrollmentEnrolled})
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.store.Assignments().List(gctx, store.AssignmentFilter{CourseID: courseID, IsPublished: store.Bool(true)})
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(assignments))
		for _, a := range assignments {
			ids = append(ids, a.ID)
		}
		submissions, err = s.store.Submissions().List(gctx, store.SubmissionFilter{AssignmentIDs: ids})
		return err
	})
	g.Go(func() error {
		var err error
		grades, err = s.store.Grades().List(gctx, store.GradeFilter{CourseID: courseID})
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("performance query failed", "course_id", courseID, "error", err)
		return nil, shared.InternalError("failed to compute course performance", err)
	}

	perf := computePerformance(course, enrollments, assignments, submissions, grades, time.Now())
	return &perf, nil
}

// computePerformance is a pure fold over the gathered records
func computePerformance(course *shared.Course, enrollments []shared.Enrollment, assignments []shared.Assignment,
	submissions []shared.Submission, grades []shared.Grade, now time.Time) Performance {

	totalStudents := len(enrollments)
	totalAssignments := len(assignments)
	submissions = activeSubmissions(enrollments, submissions)

	var completionRate, submissionRate float64
	if totalStudents > 0 && totalAssignments > 0 {
		perStudent := map[string]int{}
		for _, sub := range submissions {
			perStudent[sub.StudentID]++
		}
		completed := 0
		for _, n := range perStudent {
			if float64(n) >= float64(totalAssignments)*completionThreshold {
				completed++
			}
		}
		completionRate = float64(completed) / float64(totalStudents) * 100
		submissionRate = float64(len(submissions)) / float64(totalStudents*totalAssignments) * 100
	}

	var averageGrade, satisfaction float64
	if len(grades) > 0 {
		sum := 0.0
		for _, gr := range grades {
			sum += gr.Percentage
		}
		averageGrade = sum / float64(len(grades))
		satisfaction = satisfactionFromGrade(averageGrade)
	}

	stats := make([]AssignmentStat, 0, len(assignments))
	for _, a := range assignments {
		count := 0
		points := 0.0
		for _, sub := range submissions {
			if sub.AssignmentID != a.ID {
				continue
			}
			count++
			// ungraded submissions count as zero
			if sub.Grade != nil {
				points += sub.Grade.Percentage
			}
		}
		stat := AssignmentStat{AssignmentID: a.ID, Title: a.Title, TotalSubmissions: count}
		if totalStudents > 0 {
			stat.SubmissionRate = round2(float64(count) / float64(totalStudents) * 100)
		}
		if count > 0 {
			stat.AverageGrade = round2(points / float64(count))
		}
		stats = append(stats, stat)
	}

	since := now.Add(-recentWindow)
	activity := RecentActivity{}
	for _, sub := range submissions {
		if !sub.SubmittedAt.Before(since) {
			activity.RecentSubmissions++
		}
	}
	for _, e := range enrollments {
		if !e.EnrollmentDate.Before(since) {
			activity.NewEnrollments++
		}
	}

	return Performance{
		CourseID:            course.ID,
		CourseTitle:         course.Title,
		TotalStudents:       totalStudents,
		TotalAssignments:    totalAssignments,
		TotalSubmissions:    len(submissions),
		CompletionRate:      round2(completionRate),
		SubmissionRate:      round2(submissionRate),
		AverageGrade:        round2(averageGrade),
		AverageSatisfaction: round2(satisfaction),
		AssignmentStats:     stats,
		RecentActivity:      activity,
		GradeDistribution:   gradeDistribution(grades),
	}
}

// activeSubmissions drops submissions from students who are no longer
// enrolled, so every rate stays within 0-100.
func activeSubmissions(enrollments []shared.Enrollment, submissions []shared.Submission) []shared.Submission {
	active := make(map[string]struct{}, len(enrollments))
	for _, e := range enrollments {
		active[e.StudentID] = struct{}{}
	}
	out := make([]shared.Submission, 0, len(submissions))
	for _, sub := range submissions {
		if _, ok := active[sub.StudentID]; ok {
			out = append(out, sub)
		}
	}
	return out
}

// satisfactionFromGrade maps an average percentage onto 1-5: linear to 3 up
// to 70%, then linear from 3 to 5 up to 100%.
func satisfactionFromGrade(avg float64) float64 {
	var v float64
	if avg >= 70 {
		v = 3.0 + (avg-70)/30*2.0
	} else {
		v = avg / 70 * 3.0
	}
	return math.Min(5.0, math.Max(1.0, v))
}

func gradeDistribution(grades []shared.Grade) map[string]int {
	dist := map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0}
	for _, gr := range grades {
		if gr.LetterGrade == "F" {
			dist["F"]++
			continue
		}
		if gr.LetterGrade == "" {
			continue
		}
		// A+, A- and the like count toward A
		switch first := gr.LetterGrade[:1]; first {
		case "A", "B", "C", "D":
			dist[first]++
		}
	}
	return dist
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
