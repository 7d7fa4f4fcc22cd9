package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"coursehub/backend/internal/gateway/handlers"
	"coursehub/backend/internal/gateway/util"
	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/shared"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(svcs *Services, cfg *shared.ServiceConfig, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log.With("component", "http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout(cfg)))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Auth: svcs.Auth}
	userHandler := &handlers.UserHandler{Users: svcs.Users}
	courseHandler := &handlers.CourseHandler{Courses: svcs.Courses, Content: svcs.Content}
	contentHandler := &handlers.ContentHandler{Content: svcs.Content}
	enrollmentHandler := &handlers.EnrollmentHandler{Enrollments: svcs.Enrollments}
	notificationHandler := &handlers.NotificationHandler{Notifications: svcs.Notifications}
	gradeHandler := &handlers.GradeHandler{Grading: svcs.Grading}

	authenticate := Authenticate(svcs.Auth)
	adminOnly := RequireRole(shared.RoleAdmin)
	staffOnly := RequireRole(shared.RoleInstructor, shared.RoleAdmin)

	r.Get("/health", health)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSONError(w, http.StatusNotFound, "Route not found")
	})

	// 3. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)

		// --- Public Routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Get("/courses", courseHandler.ListCourses)
		r.Get("/courses/{id}", courseHandler.GetCourse)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			// Auth
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Put("/auth/profile", authHandler.UpdateProfile)
			r.Put("/auth/change-password", authHandler.ChangePassword)
			r.With(RequireRole(shared.RoleInstructor)).Post("/auth/upload-documents", authHandler.UploadDocuments)

			// Users
			r.Route("/users", func(r chi.Router) {
				r.With(staffOnly).Put("/reset-documents", userHandler.ResetDocuments)
				r.Get("/{id}/profile", userHandler.Profile)

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/", userHandler.ListUsers)
					r.Get("/pending-approval", userHandler.PendingApproval)
					r.Get("/pending-verification", userHandler.PendingVerification)
					r.Put("/{id}/approve", userHandler.ApproveUser)
					r.Put("/{id}/deactivate", userHandler.DeactivateUser)
					r.Put("/{id}/verify-document/{documentId}", userHandler.VerifyDocument)
				})
			})

			// Courses (flat, next to the public catalogue routes)
			r.Get("/courses/instructor/{instructorId}", courseHandler.InstructorCourses)
			r.Get("/courses/{id}/outline", courseHandler.Outline)
			r.With(adminOnly).Get("/courses/pending", courseHandler.PendingCourses)
			r.With(adminOnly).Put("/courses/{id}/approve", courseHandler.ApproveCourse)
			r.With(staffOnly).Post("/courses", courseHandler.CreateCourse)
			r.With(staffOnly).Post("/courses/{id}/material", courseHandler.AddMaterial)
			r.With(staffOnly).Put("/courses/{id}/material/{materialId}", courseHandler.UpdateMaterial)
			r.With(staffOnly).Delete("/courses/{id}/material/{materialId}", courseHandler.DeleteMaterial)
			r.With(staffOnly).Get("/courses/{id}/performance", courseHandler.Performance)

			// Modules
			r.Route("/modules", func(r chi.Router) {
				r.Get("/", contentHandler.ListModules)
				r.Get("/{id}", contentHandler.GetModule)

				r.Group(func(r chi.Router) {
					r.Use(staffOnly)
					r.Post("/", contentHandler.CreateModule)
					r.Put("/{id}", contentHandler.UpdateModule)
					r.Delete("/{id}", contentHandler.DeleteModule)
					r.Patch("/{id}/publish", contentHandler.PublishModule)
				})
			})

			// Lectures
			r.Route("/lectures", func(r chi.Router) {
				r.Get("/", contentHandler.ListLectures)
				r.Get("/{id}", contentHandler.GetLecture)

				r.Group(func(r chi.Router) {
					r.Use(staffOnly)
					r.Post("/", contentHandler.CreateLecture)
					r.Post("/{id}", contentHandler.UpdateLecture)
					r.Post("/{id}/delete", contentHandler.DeleteLecture)
					r.Post("/{id}/publish", contentHandler.PublishLecture)
				})
			})

			// Enrollments
			r.Route("/enrollments", func(r chi.Router) {
				r.With(RequireRole(shared.RoleStudent)).Post("/", enrollmentHandler.Enroll)
				r.Get("/student/{studentId}", enrollmentHandler.StudentEnrollments)
				r.With(staffOnly).Get("/course/{courseId}", enrollmentHandler.CourseEnrollments)
				r.Delete("/{id}", enrollmentHandler.Drop)
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Put("/mark-all-read", notificationHandler.MarkAllRead)
				r.Put("/{id}/read", notificationHandler.MarkRead)
				r.Delete("/{id}", notificationHandler.Delete)
			})

			// Assignments, submissions and grades
			r.With(staffOnly).Post("/assignments", gradeHandler.CreateAssignment)
			r.With(staffOnly).Patch("/assignments/{id}/publish", gradeHandler.PublishAssignment)
			r.With(RequireRole(shared.RoleStudent)).Post("/assignments/{id}/submissions", gradeHandler.Submit)
			r.With(staffOnly).Put("/submissions/{id}/grade", gradeHandler.GradeSubmission)

			r.Route("/grades", func(r chi.Router) {
				r.With(staffOnly).Post("/", gradeHandler.PostGrade)
				r.Get("/student/{studentId}", gradeHandler.StudentGrades)
				r.With(staffOnly).Get("/course/{courseId}", gradeHandler.CourseGrades)
			})
		})
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	util.OK(w, http.StatusOK, util.M{
		"message":   "Server is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func requestTimeout(cfg *shared.ServiceConfig) time.Duration {
	if cfg.HTTP.RequestTimeout > 0 {
		return cfg.HTTP.RequestTimeout
	}
	return 60 * time.Second
}
