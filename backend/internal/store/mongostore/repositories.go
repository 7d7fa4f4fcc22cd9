package mongostore

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// ============================================================================
// Users
// ============================================================================

type userRepository struct{ col *mongo.Collection }

func (r userRepository) Create(ctx context.Context, u *shared.User) error {
	return insert(ctx, r.col, u)
}

func (r userRepository) Get(ctx context.Context, id string) (*shared.User, error) {
	return findOne[shared.User](ctx, r.col, bson.M{"_id": id})
}

func (r userRepository) GetByEmail(ctx context.Context, email string) (*shared.User, error) {
	return findOne[shared.User](ctx, r.col, bson.M{"email": email})
}

func (r userRepository) Update(ctx context.Context, u *shared.User) error {
	return replace(ctx, r.col, u.ID, u)
}

func (r userRepository) List(ctx context.Context, f store.UserFilter, p shared.Page) ([]shared.User, int64, error) {
	filter := bson.M{}
	switch {
	case f.Role != "":
		filter["role"] = f.Role
	case f.ExcludeRole != "":
		filter["role"] = bson.M{"$ne": f.ExcludeRole}
	}
	if f.IsActive != nil {
		filter["is_active"] = *f.IsActive
	}
	if f.IsApproved != nil {
		filter["is_approved"] = *f.IsApproved
	}
	if f.VerificationStatus != "" {
		filter["instructor_profile.verification_status"] = f.VerificationStatus
	}
	return findPage[shared.User](ctx, r.col, filter, p, "created_at", -1)
}

// ============================================================================
// Sessions
// ============================================================================

type sessionRepository struct{ col *mongo.Collection }

func (r sessionRepository) Create(ctx context.Context, s *shared.Session) error {
	return insert(ctx, r.col, s)
}

func (r sessionRepository) GetByToken(ctx context.Context, token string) (*shared.Session, error) {
	return findOne[shared.Session](ctx, r.col, bson.M{"token": token})
}

func (r sessionRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return deleteMany(ctx, r.col, bson.M{"token": token})
}

func (r sessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return deleteMany(ctx, r.col, bson.M{"user_id": userID})
}

// ============================================================================
// Courses
// ============================================================================

type courseRepository struct{ col *mongo.Collection }

func (r courseRepository) Create(ctx context.Context, c *shared.Course) error {
	return insert(ctx, r.col, c)
}

func (r courseRepository) Get(ctx context.Context, id string) (*shared.Course, error) {
	return findOne[shared.Course](ctx, r.col, bson.M{"_id": id})
}

func (r courseRepository) Update(ctx context.Context, c *shared.Course) error {
	return replace(ctx, r.col, c.ID, c)
}

func (r courseRepository) List(ctx context.Context, f store.CourseFilter, p shared.Page) ([]shared.Course, int64, error) {
	filter := bson.M{}
	if f.InstructorID != "" {
		filter["instructor_id"] = f.InstructorID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Level != "" {
		filter["level"] = f.Level
	}
	if f.IsActive != nil {
		filter["is_active"] = *f.IsActive
	}
	if f.IsApproved != nil {
		filter["is_approved"] = *f.IsApproved
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"title": rx},
			{"description": rx},
			{"course_code": rx},
		}
	}
	return findPage[shared.Course](ctx, r.col, filter, p, "created_at", -1)
}

// IncrementEnrollment matches only while a seat is free, so concurrent
// callers can never push the counter past max_students.
func (r courseRepository) IncrementEnrollment(ctx context.Context, id string) error {
	filter := bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": bson.A{"$current_enrollment", "$max_students"}},
	}
	return r.adjust(ctx, id, filter, 1, store.ErrCapacityReached)
}

func (r courseRepository) DecrementEnrollment(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "current_enrollment": bson.M{"$gt": 0}}
	return r.adjust(ctx, id, filter, -1, nil)
}

func (r courseRepository) adjust(ctx context.Context, id string, filter bson.M, delta int, noMatch error) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(queryCtx, filter, bson.M{"$inc": bson.M{"current_enrollment": delta}})
	if err != nil {
		return errors.Wrap(err, "update course enrollment counter")
	}
	if res.MatchedCount > 0 {
		return nil
	}

	found, err := exists(ctx, r.col, id)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrNotFound
	}
	return noMatch
}

// ============================================================================
// Modules
// ============================================================================

type moduleRepository struct{ col *mongo.Collection }

func (r moduleRepository) Create(ctx context.Context, m *shared.Module) error {
	return insert(ctx, r.col, m)
}

func (r moduleRepository) Get(ctx context.Context, id string) (*shared.Module, error) {
	return findOne[shared.Module](ctx, r.col, bson.M{"_id": id})
}

func (r moduleRepository) Update(ctx context.Context, m *shared.Module) error {
	return replace(ctx, r.col, m.ID, m)
}

func (r moduleRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r moduleRepository) List(ctx context.Context, f store.ModuleFilter, p shared.Page) ([]shared.Module, int64, error) {
	filter := bson.M{}
	if f.CourseID != "" {
		filter["course_id"] = f.CourseID
	}
	if f.IsPublished != nil {
		filter["is_published"] = *f.IsPublished
	}
	return findPage[shared.Module](ctx, r.col, filter, p, "order", 1)
}

// ============================================================================
// Lectures
// ============================================================================

type lectureRepository struct{ col *mongo.Collection }

func (r lectureRepository) Create(ctx context.Context, l *shared.Lecture) error {
	return insert(ctx, r.col, l)
}

func (r lectureRepository) Get(ctx context.Context, id string) (*shared.Lecture, error) {
	return findOne[shared.Lecture](ctx, r.col, bson.M{"_id": id})
}

func (r lectureRepository) Update(ctx context.Context, l *shared.Lecture) error {
	return replace(ctx, r.col, l.ID, l)
}

func (r lectureRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r lectureRepository) DeleteByModule(ctx context.Context, moduleID string) (int64, error) {
	return deleteMany(ctx, r.col, bson.M{"module_id": moduleID})
}

func (r lectureRepository) List(ctx context.Context, f store.LectureFilter, p shared.Page) ([]shared.Lecture, int64, error) {
	filter := bson.M{}
	if f.ModuleID != "" {
		filter["module_id"] = f.ModuleID
	}
	if f.ModuleIDs != nil {
		filter["module_id"] = bson.M{"$in": f.ModuleIDs}
	}
	if f.IsPublished != nil {
		filter["is_published"] = *f.IsPublished
	}
	return findPage[shared.Lecture](ctx, r.col, filter, p, "order", 1)
}

// ============================================================================
// Enrollments
// ============================================================================

type enrollmentRepository struct{ col *mongo.Collection }

// Create relies on the partial unique index over active enrollments.
func (r enrollmentRepository) Create(ctx context.Context, e *shared.Enrollment) error {
	return insert(ctx, r.col, e)
}

func (r enrollmentRepository) Get(ctx context.Context, id string) (*shared.Enrollment, error) {
	return findOne[shared.Enrollment](ctx, r.col, bson.M{"_id": id})
}

func (r enrollmentRepository) Update(ctx context.Context, e *shared.Enrollment) error {
	return replace(ctx, r.col, e.ID, e)
}

func (r enrollmentRepository) FindActive(ctx context.Context, studentID, courseID string) (*shared.Enrollment, error) {
	return findOne[shared.Enrollment](ctx, r.col, bson.M{
		"student_id": studentID,
		"course_id":  courseID,
		"status":     shared.EnrollmentEnrolled,
	})
}

func (r enrollmentRepository) List(ctx context.Context, f store.EnrollmentFilter) ([]shared.Enrollment, error) {
	filter := bson.M{}
	if f.StudentID != "" {
		filter["student_id"] = f.StudentID
	}
	if f.CourseID != "" {
		filter["course_id"] = f.CourseID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Since != nil {
		filter["enrollment_date"] = bson.M{"$gte": *f.Since}
	}
	return findAll[shared.Enrollment](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "enrollment_date", Value: -1}}))
}

// ============================================================================
// Notifications
// ============================================================================

type notificationRepository struct{ col *mongo.Collection }

func (r notificationRepository) Create(ctx context.Context, n *shared.Notification) error {
	return insert(ctx, r.col, n)
}

func (r notificationRepository) Get(ctx context.Context, id string) (*shared.Notification, error) {
	return findOne[shared.Notification](ctx, r.col, bson.M{"_id": id})
}

func (r notificationRepository) Update(ctx context.Context, n *shared.Notification) error {
	return replace(ctx, r.col, n.ID, n)
}

func (r notificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]shared.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[shared.Notification](ctx, r.col, bson.M{"recipient_id": userID, "is_deleted": false}, opts)
}

func (r notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	n, err := shared.CountDocumentsWithTimeout(ctx, r.col, bson.M{
		"recipient_id": userID,
		"is_read":      false,
		"is_deleted":   false,
	}, queryTimeout)
	return n, errors.Wrap(err, "count unread notifications")
}

func (r notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(queryCtx,
		bson.M{"recipient_id": userID, "is_read": false, "is_deleted": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "mark notifications read")
	}
	return res.ModifiedCount, nil
}

// ============================================================================
// Assignments
// ============================================================================

type assignmentRepository struct{ col *mongo.Collection }

func (r assignmentRepository) Create(ctx context.Context, a *shared.Assignment) error {
	return insert(ctx, r.col, a)
}

func (r assignmentRepository) Get(ctx context.Context, id string) (*shared.Assignment, error) {
	return findOne[shared.Assignment](ctx, r.col, bson.M{"_id": id})
}

func (r assignmentRepository) Update(ctx context.Context, a *shared.Assignment) error {
	return replace(ctx, r.col, a.ID, a)
}

func (r assignmentRepository) List(ctx context.Context, f store.AssignmentFilter) ([]shared.Assignment, error) {
	filter := bson.M{}
	if f.CourseID != "" {
		filter["course_id"] = f.CourseID
	}
	if f.IsPublished != nil {
		filter["is_published"] = *f.IsPublished
	}
	return findAll[shared.Assignment](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
}

// ============================================================================
// Submissions
// ============================================================================

type submissionRepository struct{ col *mongo.Collection }

func (r submissionRepository) Create(ctx context.Context, s *shared.Submission) error {
	return insert(ctx, r.col, s)
}

func (r submissionRepository) Get(ctx context.Context, id string) (*shared.Submission, error) {
	return findOne[shared.Submission](ctx, r.col, bson.M{"_id": id})
}

func (r submissionRepository) Update(ctx context.Context, s *shared.Submission) error {
	return replace(ctx, r.col, s.ID, s)
}

func (r submissionRepository) List(ctx context.Context, f store.SubmissionFilter) ([]shared.Submission, error) {
	filter := bson.M{}
	if f.AssignmentIDs != nil {
		filter["assignment_id"] = bson.M{"$in": f.AssignmentIDs}
	}
	if f.StudentID != "" {
		filter["student_id"] = f.StudentID
	}
	if f.Since != nil {
		filter["submitted_at"] = bson.M{"$gte": *f.Since}
	}
	return findAll[shared.Submission](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}}))
}

// ============================================================================
// Grades
// ============================================================================

type gradeRepository struct{ col *mongo.Collection }

func (r gradeRepository) Upsert(ctx context.Context, g *shared.Grade) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"course_id": g.CourseID, "student_id": g.StudentID}
	update := bson.M{
		"$set": bson.M{
			"percentage":   g.Percentage,
			"letter_grade": g.LetterGrade,
			"posted_by":    g.PostedBy,
			"posted_at":    g.PostedAt,
		},
		"$setOnInsert": bson.M{"_id": g.ID},
	}

	var saved shared.Grade
	err := r.col.FindOneAndUpdate(queryCtx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return errors.Wrap(err, "upsert grade")
	}
	g.ID = saved.ID
	return nil
}

func (r gradeRepository) List(ctx context.Context, f store.GradeFilter) ([]shared.Grade, error) {
	filter := bson.M{}
	if f.CourseID != "" {
		filter["course_id"] = f.CourseID
	}
	if f.StudentID != "" {
		filter["student_id"] = f.StudentID
	}
	return findAll[shared.Grade](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "posted_at", Value: 1}}))
}
