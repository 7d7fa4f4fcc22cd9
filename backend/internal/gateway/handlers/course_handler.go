package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/backend/internal/content"
	"coursehub/backend/internal/course"
	"coursehub/backend/internal/gateway/util"
)

// CourseHandler exposes the course catalogue, materials and analytics
type CourseHandler struct {
	Courses *course.CourseService
	Content *content.Service
}

// ListCourses handles GET /courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courses, pagination, err := h.Courses.ListCourses(r.Context(), course.ListQuery{
		Category: q.Get("category"),
		Level:    q.Get("level"),
		Search:   q.Get("search"),
	}, util.QueryPage(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"courses": courses, "pagination": pagination})
}

// GetCourse handles GET /courses/{id}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.Courses.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"course": c})
}

// CreateCourse handles POST /courses
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var in course.CreateCourseInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Courses.CreateCourse(r.Context(), util.ActorFrom(r), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusCreated, util.M{"message": "Course created successfully. Pending admin approval.", "course": c})
}

// PendingCourses handles GET /courses/pending
func (h *CourseHandler) PendingCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.PendingCourses(r.Context(), util.ActorFrom(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"courses": courses})
}

// InstructorCourses handles GET /courses/instructor/{instructorId}
func (h *CourseHandler) InstructorCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.InstructorCourses(r.Context(), chi.URLParam(r, "instructorId"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"courses": courses})
}

// ApproveCourse handles PUT /courses/{id}/approve
func (h *CourseHandler) ApproveCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.Courses.ApproveCourse(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Course approved successfully", "course": c})
}

// AddMaterial handles POST /courses/{id}/material
func (h *CourseHandler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	var in course.MaterialInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.Courses.AddMaterial(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusCreated, util.M{"message": "Material added successfully", "material": m})
}

// UpdateMaterial handles PUT /courses/{id}/material/{materialId}
func (h *CourseHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	var in course.MaterialUpdate
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.Courses.UpdateMaterial(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "materialId"), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Material updated successfully", "material": m})
}

// DeleteMaterial handles DELETE /courses/{id}/material/{materialId}
func (h *CourseHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	if err := h.Courses.DeleteMaterial(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "materialId")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Material deleted successfully"})
}

// Performance handles GET /courses/{id}/performance
func (h *CourseHandler) Performance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.Courses.CoursePerformance(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"performance": perf})
}

// Outline handles GET /courses/{id}/outline
func (h *CourseHandler) Outline(w http.ResponseWriter, r *http.Request) {
	outline, err := h.Content.CourseOutline(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"outline": outline})
}
