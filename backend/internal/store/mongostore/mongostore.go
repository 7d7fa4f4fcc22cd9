// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

const queryTimeout = 5 * time.Second

// Collection names
const (
	colUsers         = "users"
	colSessions      = "sessions"
	colCourses       = "courses"
	colModules       = "modules"
	colLectures      = "lectures"
	colEnrollments   = "enrollments"
	colNotifications = "notifications"
	colAssignments   = "assignments"
	colSubmissions   = "submissions"
	colGrades        = "grades"
)

// Store is a MongoDB backed store.Store
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// New wraps an already connected client
func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db}
}

func (s *Store) Users() store.UserRepository { return userRepository{s.db.Collection(colUsers)} }
func (s *Store) Sessions() store.SessionRepository {
	return sessionRepository{s.db.Collection(colSessions)}
}
func (s *Store) Courses() store.CourseRepository { return courseRepository{s.db.Collection(colCourses)} }
func (s *Store) Modules() store.ModuleRepository { return moduleRepository{s.db.Collection(colModules)} }
func (s *Store) Lectures() store.LectureRepository {
	return lectureRepository{s.db.Collection(colLectures)}
}
func (s *Store) Enrollments() store.EnrollmentRepository {
	return enrollmentRepository{s.db.Collection(colEnrollments)}
}
func (s *Store) Notifications() store.NotificationRepository {
	return notificationRepository{s.db.Collection(colNotifications)}
}
func (s *Store) Assignments() store.AssignmentRepository {
	return assignmentRepository{s.db.Collection(colAssignments)}
}
func (s *Store) Submissions() store.SubmissionRepository {
	return submissionRepository{s.db.Collection(colSubmissions)}
}
func (s *Store) Grades() store.GradeRepository { return gradeRepository{s.db.Collection(colGrades)} }

// WithTransaction runs fn inside a MongoDB session transaction. Transactions
// require a replica set or sharded cluster.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}

// EnsureIndexes creates the indexes the repositories rely on for
// uniqueness and ordering.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		colSessions: {
			{Keys: bson.D{{Key: "token", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		colCourses: {
			{Keys: bson.D{{Key: "course_code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "instructor_id", Value: 1}}},
		},
		colModules: {
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "order", Value: 1}}},
		},
		colLectures: {
			{Keys: bson.D{{Key: "module_id", Value: 1}, {Key: "order", Value: 1}}},
		},
		colEnrollments: {
			{
				Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "course_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": shared.EnrollmentEnrolled}),
			},
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colAssignments: {
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
		},
		colSubmissions: {
			{
				Keys:    bson.D{{Key: "assignment_id", Value: 1}, {Key: "student_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colGrades: {
			{
				Keys:    bson.D{{Key: "course_id", Value: 1}, {Key: "student_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create indexes on %s", name)
		}
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := col.Find(queryCtx, filter, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "find in %s", col.Name())
	}
	defer cursor.Close(queryCtx)

	out := make([]T, 0)
	if err := cursor.All(queryCtx, &out); err != nil {
		return nil, errors.Wrapf(err, "decode from %s", col.Name())
	}
	return out, nil
}

func findPage[T any](ctx context.Context, col *mongo.Collection, filter bson.M, p shared.Page, sortField string, sortOrder int) ([]T, int64, error) {
	total, err := shared.CountDocumentsWithTimeout(ctx, col, filter, queryTimeout)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "count in %s", col.Name())
	}
	items, err := findAll[T](ctx, col, filter, shared.BuildFindOptions(p, sortField, sortOrder))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := shared.FindOneWithTimeout(ctx, col, filter, &out, queryTimeout); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find one in %s", col.Name())
	}
	return &out, nil
}

func insert(ctx context.Context, col *mongo.Collection, doc interface{}) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := col.InsertOne(queryCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return errors.Wrapf(err, "insert into %s", col.Name())
	}
	return nil
}

func replace(ctx context.Context, col *mongo.Collection, id string, doc interface{}) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := col.ReplaceOne(queryCtx, bson.M{"_id": id}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return errors.Wrapf(err, "replace in %s", col.Name())
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := col.DeleteOne(queryCtx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete from %s", col.Name())
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteMany(ctx context.Context, col *mongo.Collection, filter bson.M) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := col.DeleteMany(queryCtx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "delete many from %s", col.Name())
	}
	return res.DeletedCount, nil
}

func exists(ctx context.Context, col *mongo.Collection, id string) (bool, error) {
	n, err := shared.CountDocumentsWithTimeout(ctx, col, bson.M{"_id": id}, queryTimeout)
	if err != nil {
		return false, errors.Wrapf(err, "count in %s", col.Name())
	}
	return n > 0, nil
}
