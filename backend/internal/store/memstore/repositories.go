package memstore

import (
	"context"
	"strings"

	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// ============================================================================
// Users
// ============================================================================

type userRepository struct{ db *DB }

func (r userRepository) Create(_ context.Context, u *shared.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if _, ok := r.db.users[u.ID]; ok {
		return store.ErrDuplicate
	}
	r.db.users[u.ID] = cloneUser(*u)
	return nil
}

func (r userRepository) Get(_ context.Context, id string) (*shared.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (r userRepository) GetByEmail(_ context.Context, email string) (*shared.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r userRepository) Update(_ context.Context, u *shared.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.users[u.ID] = cloneUser(*u)
	return nil
}

func (r userRepository) List(_ context.Context, f store.UserFilter, p shared.Page) ([]shared.User, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := collect(r.db.users, func(u shared.User) bool {
		if f.Role != "" && u.Role != f.Role {
			return false
		}
		if f.ExcludeRole != "" && u.Role == f.ExcludeRole {
			return false
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			return false
		}
		if f.IsApproved != nil && u.IsApproved != *f.IsApproved {
			return false
		}
		if f.VerificationStatus != "" {
			if u.InstructorProfile == nil || u.InstructorProfile.VerificationStatus != f.VerificationStatus {
				return false
			}
		}
		return true
	}, cloneUser, func(a, b shared.User) bool { return a.CreatedAt.After(b.CreatedAt) })

	items, total := page(users, p)
	return items, total, nil
}

// ============================================================================
// Sessions
// ============================================================================

type sessionRepository struct{ db *DB }

func (r sessionRepository) Create(_ context.Context, s *shared.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.sessions[s.ID] = *s
	return nil
}

func (r sessionRepository) GetByToken(_ context.Context, token string) (*shared.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.sessions {
		if s.Token == token {
			return &s, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r sessionRepository) DeleteByToken(_ context.Context, token string) (int64, error) {
	return r.deleteWhere(func(s shared.Session) bool { return s.Token == token }), nil
}

func (r sessionRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return r.deleteWhere(func(s shared.Session) bool { return s.UserID == userID }), nil
}

func (r sessionRepository) deleteWhere(match func(shared.Session) bool) int64 {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, s := range r.db.sessions {
		if match(s) {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n
}

// ============================================================================
// Courses
// ============================================================================

type courseRepository struct{ db *DB }

func (r courseRepository) Create(_ context.Context, c *shared.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.courses {
		if existing.CourseCode == c.CourseCode {
			return store.ErrDuplicate
		}
	}
	r.db.courses[c.ID] = cloneCourse(*c)
	return nil
}

func (r courseRepository) Get(_ context.Context, id string) (*shared.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.courses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = cloneCourse(c)
	return &c, nil
}

func (r courseRepository) Update(_ context.Context, c *shared.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.courses[c.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range r.db.courses {
		if id != c.ID && existing.CourseCode == c.CourseCode {
			return store.ErrDuplicate
		}
	}
	r.db.courses[c.ID] = cloneCourse(*c)
	return nil
}

func (r courseRepository) List(_ context.Context, f store.CourseFilter, p shared.Page) ([]shared.Course, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search := strings.ToLower(f.Search)
	courses := collect(r.db.courses, func(c shared.Course) bool {
		if f.InstructorID != "" && c.InstructorID != f.InstructorID {
			return false
		}
		if f.Category != "" && c.Category != f.Category {
			return false
		}
		if f.Level != "" && c.Level != f.Level {
			return false
		}
		if f.IsActive != nil && c.IsActive != *f.IsActive {
			return false
		}
		if f.IsApproved != nil && c.IsApproved != *f.IsApproved {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) &&
			!strings.Contains(strings.ToLower(c.CourseCode), search) {
			return false
		}
		return true
	}, cloneCourse, func(a, b shared.Course) bool { return a.CreatedAt.After(b.CreatedAt) })

	items, total := page(courses, p)
	return items, total, nil
}

func (r courseRepository) IncrementEnrollment(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.courses[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.CurrentEnrollment >= c.MaxStudents {
		return store.ErrCapacityReached
	}
	c.CurrentEnrollment++
	r.db.courses[id] = c
	return nil
}

func (r courseRepository) DecrementEnrollment(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.courses[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.CurrentEnrollment > 0 {
		c.CurrentEnrollment--
	}
	r.db.courses[id] = c
	return nil
}

// ============================================================================
// Modules
// ============================================================================

type moduleRepository struct{ db *DB }

func (r moduleRepository) Create(_ context.Context, m *shared.Module) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.modules[m.ID]; ok {
		return store.ErrDuplicate
	}
	r.db.modules[m.ID] = *m
	return nil
}

func (r moduleRepository) Get(_ context.Context, id string) (*shared.Module, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.modules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (r moduleRepository) Update(_ context.Context, m *shared.Module) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.modules[m.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.modules[m.ID] = *m
	return nil
}

func (r moduleRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.modules[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.modules, id)
	return nil
}

func (r moduleRepository) List(_ context.Context, f store.ModuleFilter, p shared.Page) ([]shared.Module, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	modules := collect(r.db.modules, func(m shared.Module) bool {
		if f.CourseID != "" && m.CourseID != f.CourseID {
			return false
		}
		return f.IsPublished == nil || m.IsPublished == *f.IsPublished
	}, identity[shared.Module], func(a, b shared.Module) bool {
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})

	items, total := page(modules, p)
	return items, total, nil
}

// ============================================================================
// Lectures
// ============================================================================

type lectureRepository struct{ db *DB }

func (r lectureRepository) Create(_ context.Context, l *shared.Lecture) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.lectures[l.ID]; ok {
		return store.ErrDuplicate
	}
	r.db.lectures[l.ID] = cloneLecture(*l)
	return nil
}

func (r lectureRepository) Get(_ context.Context, id string) (*shared.Lecture, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	l, ok := r.db.lectures[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	l = cloneLecture(l)
	return &l, nil
}

func (r lectureRepository) Update(_ context.Context, l *shared.Lecture) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lectures[l.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.lectures[l.ID] = cloneLecture(*l)
	return nil
}

func (r lectureRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lectures[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.lectures, id)
	return nil
}

func (r lectureRepository) DeleteByModule(_ context.Context, moduleID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, l := range r.db.lectures {
		if l.ModuleID == moduleID {
			delete(r.db.lectures, id)
			n++
		}
	}
	return n, nil
}

func (r lectureRepository) List(_ context.Context, f store.LectureFilter, p shared.Page) ([]shared.Lecture, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	lectures := collect(r.db.lectures, func(l shared.Lecture) bool {
		if f.ModuleID != "" && l.ModuleID != f.ModuleID {
			return false
		}
		if f.ModuleIDs != nil && !contains(f.ModuleIDs, l.ModuleID) {
			return false
		}
		return f.IsPublished == nil || l.IsPublished == *f.IsPublished
	}, cloneLecture, func(a, b shared.Lecture) bool {
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})

	items, total := page(lectures, p)
	return items, total, nil
}

// ============================================================================
// Enrollments
// ============================================================================

type enrollmentRepository struct{ db *DB }

func (r enrollmentRepository) Create(_ context.Context, e *shared.Enrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if e.Status == shared.EnrollmentEnrolled {
		for _, existing := range r.db.enrollments {
			if existing.StudentID == e.StudentID && existing.CourseID == e.CourseID &&
				existing.Status == shared.EnrollmentEnrolled {
				return store.ErrDuplicate
			}
		}
	}
	r.db.enrollments[e.ID] = cloneEnrollment(*e)
	return nil
}

func (r enrollmentRepository) Get(_ context.Context, id string) (*shared.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	e, ok := r.db.enrollments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	e = cloneEnrollment(e)
	return &e, nil
}

func (r enrollmentRepository) Update(_ context.Context, e *shared.Enrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.enrollments[e.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.enrollments[e.ID] = cloneEnrollment(*e)
	return nil
}

func (r enrollmentRepository) FindActive(_ context.Context, studentID, courseID string) (*shared.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, e := range r.db.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.Status == shared.EnrollmentEnrolled {
			e = cloneEnrollment(e)
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r enrollmentRepository) List(_ context.Context, f store.EnrollmentFilter) ([]shared.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return collect(r.db.enrollments, func(e shared.Enrollment) bool {
		if f.StudentID != "" && e.StudentID != f.StudentID {
			return false
		}
		if f.CourseID != "" && e.CourseID != f.CourseID {
			return false
		}
		if f.Status != "" && e.Status != f.Status {
			return false
		}
		return f.Since == nil || !e.EnrollmentDate.Before(*f.Since)
	}, cloneEnrollment, func(a, b shared.Enrollment) bool {
		return a.EnrollmentDate.After(b.EnrollmentDate)
	}), nil
}

// ============================================================================
// Notifications
// ============================================================================

type notificationRepository struct{ db *DB }

func (r notificationRepository) Create(_ context.Context, n *shared.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.notifications[n.ID] = *n
	return nil
}

func (r notificationRepository) Get(_ context.Context, id string) (*shared.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n, ok := r.db.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (r notificationRepository) Update(_ context.Context, n *shared.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.notifications[n.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.notifications[n.ID] = *n
	return nil
}

func (r notificationRepository) ListForUser(_ context.Context, userID string, limit int) ([]shared.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	list := collect(r.db.notifications, func(n shared.Notification) bool {
		return n.RecipientID == userID && !n.IsDeleted
	}, identity[shared.Notification], func(a, b shared.Notification) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r notificationRepository) CountUnread(_ context.Context, userID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, notif := range r.db.notifications {
		if notif.RecipientID == userID && !notif.IsRead && !notif.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r notificationRepository) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, notif := range r.db.notifications {
		if notif.RecipientID == userID && !notif.IsRead && !notif.IsDeleted {
			notif.IsRead = true
			r.db.notifications[id] = notif
			n++
		}
	}
	return n, nil
}

// ============================================================================
// Assignments
// ============================================================================

type assignmentRepository struct{ db *DB }

func (r assignmentRepository) Create(_ context.Context, a *shared.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.assignments[a.ID] = cloneAssignment(*a)
	return nil
}

func (r assignmentRepository) Get(_ context.Context, id string) (*shared.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.assignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a = cloneAssignment(a)
	return &a, nil
}

func (r assignmentRepository) Update(_ context.Context, a *shared.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assignments[a.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.assignments[a.ID] = cloneAssignment(*a)
	return nil
}

func (r assignmentRepository) List(_ context.Context, f store.AssignmentFilter) ([]shared.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return collect(r.db.assignments, func(a shared.Assignment) bool {
		if f.CourseID != "" && a.CourseID != f.CourseID {
			return false
		}
		return f.IsPublished == nil || a.IsPublished == *f.IsPublished
	}, cloneAssignment, func(a, b shared.Assignment) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}), nil
}

// ============================================================================
// Submissions
// ============================================================================

type submissionRepository struct{ db *DB }

func (r submissionRepository) Create(_ context.Context, s *shared.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.StudentID == s.StudentID {
			return store.ErrDuplicate
		}
	}
	r.db.submissions[s.ID] = cloneSubmission(*s)
	return nil
}

func (r submissionRepository) Get(_ context.Context, id string) (*shared.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.submissions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	s = cloneSubmission(s)
	return &s, nil
}

func (r submissionRepository) Update(_ context.Context, s *shared.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.submissions[s.ID]; !ok {
		return store.ErrNotFound
	}
	r.db.submissions[s.ID] = cloneSubmission(*s)
	return nil
}

func (r submissionRepository) List(_ context.Context, f store.SubmissionFilter) ([]shared.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return collect(r.db.submissions, func(s shared.Submission) bool {
		if f.AssignmentIDs != nil && !contains(f.AssignmentIDs, s.AssignmentID) {
			return false
		}
		if f.StudentID != "" && s.StudentID != f.StudentID {
			return false
		}
		return f.Since == nil || !s.SubmittedAt.Before(*f.Since)
	}, cloneSubmission, func(a, b shared.Submission) bool {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}), nil
}

// ============================================================================
// Grades
// ============================================================================

type gradeRepository struct{ db *DB }

func (r gradeRepository) Upsert(_ context.Context, g *shared.Grade) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, existing := range r.db.grades {
		if existing.CourseID == g.CourseID && existing.StudentID == g.StudentID {
			g.ID = id
			break
		}
	}
	r.db.grades[g.ID] = *g
	return nil
}

func (r gradeRepository) List(_ context.Context, f store.GradeFilter) ([]shared.Grade, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return collect(r.db.grades, func(g shared.Grade) bool {
		if f.CourseID != "" && g.CourseID != f.CourseID {
			return false
		}
		return f.StudentID == "" || g.StudentID == f.StudentID
	}, identity[shared.Grade], func(a, b shared.Grade) bool {
		return a.PostedAt.Before(b.PostedAt)
	}), nil
}
