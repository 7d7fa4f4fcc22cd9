package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/backend/internal/enrollment"
	"coursehub/backend/internal/gateway/util"
)

// EnrollmentHandler exposes enrolling, dropping and rosters
type EnrollmentHandler struct {
	Enrollments *enrollment.EnrollmentService
}

// enrollRequest mirrors the JSON input for POST /enrollments
type enrollRequest struct {
	CourseID string `json:"courseId"`
}

// Enroll handles POST /enrollments
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	e, err := h.Enrollments.Enroll(r.Context(), util.ActorFrom(r), req.CourseID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusCreated, util.M{"message": "Successfully enrolled in course", "enrollment": e})
}

// Drop handles DELETE /enrollments/{id}
func (h *EnrollmentHandler) Drop(w http.ResponseWriter, r *http.Request) {
	e, err := h.Enrollments.Drop(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Successfully dropped course", "enrollment": e})
}

// StudentEnrollments handles GET /enrollments/student/{studentId}?status=
func (h *EnrollmentHandler) StudentEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Enrollments.StudentEnrollments(r.Context(), util.ActorFrom(r),
		chi.URLParam(r, "studentId"), r.URL.Query().Get("status"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"enrollments": list})
}

// CourseEnrollments handles GET /enrollments/course/{courseId}
func (h *EnrollmentHandler) CourseEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Enrollments.CourseEnrollments(r.Context(), util.ActorFrom(r), chi.URLParam(r, "courseId"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"enrollments": list})
}
