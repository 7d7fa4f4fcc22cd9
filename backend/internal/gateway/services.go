package gateway

import (
	"coursehub/backend/internal/auth"
	"coursehub/backend/internal/content"
	"coursehub/backend/internal/course"
	"coursehub/backend/internal/enrollment"
	"coursehub/backend/internal/grading"
	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
	"coursehub/backend/internal/user"
)

// Services holds every domain service the handlers call into.
// It is built once in main.go and shared by all requests.
type Services struct {
	Auth          *auth.AuthService
	Users         *user.UserService
	Courses       *course.CourseService
	Content       *content.Service
	Enrollments   *enrollment.EnrollmentService
	Notifications *notification.Service
	Grading       *grading.GradingService
}

// NewServices wires the services over one store. broadcaster may be nil.
func NewServices(st store.Store, log *logger.Logger, security shared.SecurityConfig, broadcaster notification.Broadcaster) *Services {
	notifications := notification.NewService(st, log, broadcaster)

	return &Services{
		Auth:          auth.NewAuthService(st, log, security, notifications),
		Users:         user.NewUserService(st, log, notifications),
		Courses:       course.NewCourseService(st, log, notifications),
		Content:       content.NewService(st, log),
		Enrollments:   enrollment.NewEnrollmentService(st, log, notifications),
		Notifications: notifications,
		Grading:       grading.NewGradingService(st, log, notifications),
	}
}
