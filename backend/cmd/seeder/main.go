package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
	"coursehub/backend/internal/store/mongostore"
)

// Fixed IDs so the demo accounts are easy to find
const (
	AdminID       = "admin-001"
	InstructorID1 = "instructor-001"
	InstructorID2 = "instructor-002" // awaiting document review
	StudentID1    = "student-001"
	StudentID2    = "student-002"
	StudentID3    = "student-003"

	CommonPassword = "password"

	GoCourseID    = "course-go-101"
	DBCourseID    = "course-db-201"
	MLCourseID    = "course-ml-301" // pending approval
	GoModuleID1   = "module-go-1"
	GoModuleID2   = "module-go-2"
	DBModuleID1   = "module-db-1"
	AssignmentID1 = "assignment-go-1"
	AssignmentID2 = "assignment-go-2"
)

// CourseSeed is the compact form of a seeded course
type CourseSeed struct {
	ID           string
	Code         string
	Title        string
	Category     string
	Level        string
	Credits      int
	MaxStudents  int
	InstructorID string
	Approved     bool
}

// LectureSeed is the compact form of a seeded lecture
type LectureSeed struct {
	ID        string
	ModuleID  string
	Title     string
	Order     int
	Published bool
	Type      string
	URL       string
	Duration  int
}

func main() {
	_ = shared.LoadEnv(".env")

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		appLog.Fatal("failed to connect to mongodb", "error", err)
	}
	defer shared.DisconnectMongoDB(client)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Start from an empty database
	if err := db.Drop(ctx); err != nil {
		appLog.Fatal("failed to drop database", "error", err)
	}
	appLog.Info("database cleared", "database", cfg.MongoDB.Database)

	st := mongostore.New(client, db)
	if err := st.EnsureIndexes(ctx); err != nil {
		appLog.Fatal("failed to create indexes", "error", err)
	}

	s := &seeder{store: st, log: appLog, now: time.Now().UTC()}

	// --- 1. Users ---
	s.seedUsers(ctx)

	// --- 2. Courses ---
	s.seedCourses(ctx, []CourseSeed{
		{GoCourseID, "GO-101", "Practical Go", "Programming", shared.LevelBeginner, 3, 30, InstructorID1, true},
		{DBCourseID, "DB-201", "Database Internals", "Computer Science", shared.LevelIntermediate, 4, 2, InstructorID1, true},
		{MLCourseID, "ML-301", "Applied Machine Learning", "Data Science", shared.LevelAdvanced, 4, 25, InstructorID1, false},
	})

	// --- 3. Content ---
	s.seedModules(ctx, []shared.Module{
		{ID: GoModuleID1, CourseID: GoCourseID, Title: "Getting Started", Order: 1, IsPublished: true},
		{ID: GoModuleID2, CourseID: GoCourseID, Title: "Concurrency", Order: 2, IsPublished: false},
		{ID: DBModuleID1, CourseID: DBCourseID, Title: "Storage Engines", Order: 1, IsPublished: true},
	})
	s.seedLectures(ctx, []LectureSeed{
		{"lecture-go-1", GoModuleID1, "Installing Go", 1, true, shared.ContentVideo, "https://videos.example.com/go/install.mp4", 12},
		{"lecture-go-2", GoModuleID1, "Tour of the Language", 2, true, shared.ContentLink, "https://go.dev/tour", 0},
		{"lecture-go-3", GoModuleID1, "Modules and Packages", 3, false, shared.ContentDocument, "https://docs.example.com/go/modules.pdf", 0},
		{"lecture-go-4", GoModuleID2, "Goroutines", 1, true, shared.ContentVideo, "https://videos.example.com/go/goroutines.mp4", 25},
		{"lecture-db-1", DBModuleID1, "B-Trees", 1, true, shared.ContentVideo, "https://videos.example.com/db/btrees.mp4", 40},
	})

	// --- 4. Enrollments ---
	s.seedEnrollments(ctx, map[string][]string{
		GoCourseID: {StudentID1, StudentID2, StudentID3},
		DBCourseID: {StudentID1, StudentID2}, // full
	})

	// --- 5. Assignments, submissions and grades ---
	s.seedGrading(ctx)

	appLog.Info("all data seeding completed")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

type seeder struct {
	store store.Store
	log   *logger.Logger
	now   time.Time
}

func (s *seeder) must(err error, what string, kv ...interface{}) {
	if err != nil {
		s.log.Fatal("seeding failed", append([]interface{}{"step", what, "error", err}, kv...)...)
	}
}

func (s *seeder) seedUsers(ctx context.Context) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(CommonPassword), bcrypt.DefaultCost)
	s.must(err, "hash password")

	users := []shared.User{
		{ID: AdminID, FirstName: "Super", LastName: "Admin", Email: "admin@example.com", Role: shared.RoleAdmin, IsActive: true, IsApproved: true},
		{ID: InstructorID1, FirstName: "Jane", LastName: "Professor", Email: "instructor@example.com", Role: shared.RoleInstructor, IsActive: true, IsApproved: true,
			InstructorProfile: &shared.InstructorProfile{
				Qualification: "PhD Computer Science", Experience: 8, Specialization: []string{"Go", "Databases"},
				Documents: []shared.Document{
					s.document("doc-001", shared.DocDegreeCertificate, true),
					s.document("doc-002", shared.DocIDProof, true),
				},
				DocumentsUploaded: true, VerificationStatus: shared.VerificationApproved,
			}},
		{ID: InstructorID2, FirstName: "Alan", LastName: "Turing", Email: "instructor2@example.com", Role: shared.RoleInstructor, IsActive: true,
			InstructorProfile: &shared.InstructorProfile{
				Qualification: "MSc Mathematics", Experience: 3,
				Documents: []shared.Document{
					s.document("doc-003", shared.DocTeachingCertificate, false),
					s.document("doc-004", shared.DocIDProof, false),
				},
				DocumentsUploaded: true, VerificationStatus: shared.VerificationUnderReview,
			}},
		{ID: StudentID1, FirstName: "John", LastName: "Student", Email: "student@example.com", Role: shared.RoleStudent, IsActive: true, IsApproved: true},
		{ID: StudentID2, FirstName: "Alice", LastName: "Wonderland", Email: "student2@example.com", Role: shared.RoleStudent, IsActive: true, IsApproved: true},
		{ID: StudentID3, FirstName: "Bob", LastName: "Builder", Email: "student3@example.com", Role: shared.RoleStudent, IsActive: true, IsApproved: true},
	}

	for i := range users {
		u := &users[i]
		u.PasswordHash = string(hashed)
		u.CreatedAt, u.UpdatedAt = s.now, s.now
		s.must(s.store.Users().Create(ctx, u), "user", "email", u.Email)
		s.log.Info("seeded user", "role", u.Role, "email", u.Email)
	}
}

func (s *seeder) document(id, docType string, verified bool) shared.Document {
	d := shared.Document{
		ID: id, Type: docType, OriginalName: docType + ".pdf", Filename: id + ".pdf",
		Path: "uploads/documents/" + id + ".pdf", Mimetype: "application/pdf", Size: 204800,
		Verified: verified, UploadedAt: s.now.AddDate(0, 0, -10),
	}
	if verified {
		at := s.now.AddDate(0, 0, -9)
		d.VerifiedBy, d.VerifiedAt = AdminID, &at
	}
	return d
}

func (s *seeder) seedCourses(ctx context.Context, seeds []CourseSeed) {
	for _, cs := range seeds {
		c := &shared.Course{
			ID: cs.ID, CourseCode: cs.Code, Title: cs.Title,
			Description:  cs.Title + ": lectures, exercises and graded assignments.",
			InstructorID: cs.InstructorID, Credits: cs.Credits, MaxStudents: cs.MaxStudents,
			Category: cs.Category, Level: cs.Level, Prerequisites: []string{}, Materials: []shared.Material{},
			IsApproved: cs.Approved, IsActive: true, CreatedAt: s.now, UpdatedAt: s.now,
		}
		if cs.Approved {
			at := s.now
			c.ApprovedBy, c.ApprovedAt = AdminID, &at
		}
		s.must(s.store.Courses().Create(ctx, c), "course", "code", cs.Code)
		s.log.Info("seeded course", "code", cs.Code, "approved", cs.Approved)
	}
}

func (s *seeder) seedModules(ctx context.Context, modules []shared.Module) {
	for i := range modules {
		m := &modules[i]
		m.CreatedAt, m.UpdatedAt = s.now, s.now
		s.must(s.store.Modules().Create(ctx, m), "module", "module_id", m.ID)
	}
	s.log.Info("seeded modules", "count", len(modules))
}

func (s *seeder) seedLectures(ctx context.Context, seeds []LectureSeed) {
	for _, ls := range seeds {
		l := &shared.Lecture{
			ID: ls.ID, ModuleID: ls.ModuleID, Title: ls.Title, Order: ls.Order, IsPublished: ls.Published,
			Resources: []shared.Resource{{Type: ls.Type, URL: ls.URL, Title: ls.Title, Duration: ls.Duration}},
			CreatedAt: s.now, UpdatedAt: s.now,
		}
		s.must(s.store.Lectures().Create(ctx, l), "lecture", "lecture_id", l.ID)
	}
	s.log.Info("seeded lectures", "count", len(seeds))
}

// seedEnrollments takes a seat for every enrollment so the course counters
// match the enrollment rows.
func (s *seeder) seedEnrollments(ctx context.Context, byCourse map[string][]string) {
	for courseID, students := range byCourse {
		for i, studentID := range students {
			s.must(s.store.Courses().IncrementEnrollment(ctx, courseID), "seat", "course_id", courseID)
			e := &shared.Enrollment{
				ID: shared.GenerateID(), StudentID: studentID, CourseID: courseID,
				Status: shared.EnrollmentEnrolled, EnrollmentDate: s.now.AddDate(0, 0, -(i + 1)*3),
			}
			s.must(s.store.Enrollments().Create(ctx, e), "enrollment", "course_id", courseID, "student", studentID)
		}
		s.log.Info("seeded enrollments", "course_id", courseID, "count", len(students))
	}
}

func (s *seeder) seedGrading(ctx context.Context) {
	due := s.now.AddDate(0, 0, 7)
	assignments := []shared.Assignment{
		{ID: AssignmentID1, CourseID: GoCourseID, Title: "Hello, Modules", TotalPoints: 20, IsPublished: true, CreatedAt: s.now},
		{ID: AssignmentID2, CourseID: GoCourseID, Title: "Worker Pools", TotalPoints: 50, DueDate: &due, IsPublished: true, CreatedAt: s.now},
	}
	for i := range assignments {
		s.must(s.store.Assignments().Create(ctx, &assignments[i]), "assignment", "assignment_id", assignments[i].ID)
	}

	submissions := []struct {
		assignment shared.Assignment
		student    string
		points     float64
	}{
		{assignments[0], StudentID1, 19},
		{assignments[0], StudentID2, 15},
		{assignments[1], StudentID1, 44},
	}
	for _, sub := range submissions {
		pct := sub.points / sub.assignment.TotalPoints * 100
		s.must(s.store.Submissions().Create(ctx, &shared.Submission{
			ID: shared.GenerateID(), AssignmentID: sub.assignment.ID, StudentID: sub.student,
			Content: "Submitted solution", SubmittedAt: s.now.AddDate(0, 0, -1),
			Grade: &shared.SubmissionGrade{Points: sub.points, Percentage: pct, GradedBy: InstructorID1, GradedAt: s.now},
		}), "submission", "student", sub.student)
	}

	for student, pct := range map[string]float64{StudentID1: 93, StudentID2: 76, StudentID3: 58} {
		s.must(s.store.Grades().Upsert(ctx, &shared.Grade{
			ID: shared.GenerateID(), CourseID: GoCourseID, StudentID: student,
			Percentage: pct, LetterGrade: shared.LetterGrade(pct), PostedBy: InstructorID1, PostedAt: s.now,
		}), "grade", "student", student)
	}
	s.log.Info("seeded grading data", "assignments", len(assignments), "submissions", len(submissions))
}
