package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/backend/internal/gateway/util"
	"coursehub/backend/internal/grading"
)

// GradeHandler exposes assignments, submissions and course grades
type GradeHandler struct {
	Grading *grading.GradingService
}

// CreateAssignment handles POST /assignments
func (h *GradeHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var in grading.CreateAssignmentInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a, err := h.Grading.CreateAssignment(r.Context(), util.ActorFrom(r), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusCreated, util.M{"assignment": a})
}

// PublishAssignment handles PATCH /assignments/{id}/publish
func (h *GradeHandler) PublishAssignment(w http.ResponseWriter, r *http.Request) {
	var in publishRequest
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a, err := h.Grading.PublishAssignment(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in.IsPublished)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"assignment": a})
}

// Submit handles POST /assignments/{id}/submissions
func (h *GradeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in grading.SubmitInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.Grading.Submit(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusCreated, util.M{"message": "Assignment submitted", "submission": sub})
}

// GradeSubmission handles PUT /submissions/{id}/grade
func (h *GradeHandler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	var in grading.GradeSubmissionInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.Grading.GradeSubmission(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"submission": sub})
}

// PostGrade handles POST /grades
func (h *GradeHandler) PostGrade(w http.ResponseWriter, r *http.Request) {
	var in grading.PostGradeInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.Grading.PostGrade(r.Context(), util.ActorFrom(r), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"grade": g})
}

// StudentGrades handles GET /grades/student/{studentId}
func (h *GradeHandler) StudentGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.Grading.StudentGrades(r.Context(), util.ActorFrom(r), chi.URLParam(r, "studentId"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"grades": grades})
}

// CourseGrades handles GET /grades/course/{courseId}
func (h *GradeHandler) CourseGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.Grading.CourseGrades(r.Context(), util.ActorFrom(r), chi.URLParam(r, "courseId"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"grades": grades})
}
