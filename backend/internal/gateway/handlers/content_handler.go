package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/backend/internal/content"
	"coursehub/backend/internal/gateway/util"
	"coursehub/backend/internal/store"
)

// ContentHandler exposes modules and lectures
type ContentHandler struct {
	Content *content.Service
}

// publishRequest is the optional body of the publish toggles. Without a
// value the flag is flipped.
type publishRequest struct {
	IsPublished *bool `json:"isPublished"`
}

func firstQuery(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// ============================================================================
// Modules
// ============================================================================

// CreateModule handles POST /modules
func (h *ContentHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var in content.CreateModuleInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.Content.CreateModule(r.Context(), util.ActorFrom(r), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusCreated, util.M{"message": "Module created successfully", "module": m})
}

// ListModules handles GET /modules?course=&isPublished=&page=&limit=
func (h *ContentHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	page := util.QueryPage(r)
	modules, total, err := h.Content.ListModules(r.Context(), util.ActorFrom(r), store.ModuleFilter{
		CourseID:    firstQuery(r, "course", "courseId"),
		IsPublished: util.QueryBool(r, "isPublished"),
	}, page)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"modules": modules, "total": total, "page": page.Page, "limit": page.Limit})
}

// GetModule handles GET /modules/{id}
func (h *ContentHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	m, err := h.Content.GetModule(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"module": m})
}

// UpdateModule handles PUT /modules/{id}
func (h *ContentHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var in content.UpdateModuleInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.Content.UpdateModule(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Module updated successfully", "module": m})
}

// DeleteModule handles DELETE /modules/{id}
func (h *ContentHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Content.DeleteModule(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Module deleted successfully", "lecturesDeleted": removed})
}

// PublishModule handles PATCH /modules/{id}/publish
func (h *ContentHandler) PublishModule(w http.ResponseWriter, r *http.Request) {
	var in publishRequest
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.Content.SetModulePublished(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in.IsPublished)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"module": m})
}

// ============================================================================
// Lectures
// ============================================================================

// CreateLecture handles POST /lectures
func (h *ContentHandler) CreateLecture(w http.ResponseWriter, r *http.Request) {
	var in content.CreateLectureInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := h.Content.CreateLecture(r.Context(), util.ActorFrom(r), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusCreated, util.M{"message": "Lecture created successfully", "lecture": l})
}

// ListLectures handles GET /lectures?module=&isPublished=&page=&limit=
func (h *ContentHandler) ListLectures(w http.ResponseWriter, r *http.Request) {
	page := util.QueryPage(r)
	lectures, total, err := h.Content.ListLectures(r.Context(), util.ActorFrom(r), store.LectureFilter{
		ModuleID:    firstQuery(r, "module", "moduleId"),
		IsPublished: util.QueryBool(r, "isPublished"),
	}, page)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"lectures": lectures, "total": total, "page": page.Page, "limit": page.Limit})
}

// GetLecture handles GET /lectures/{id}
func (h *ContentHandler) GetLecture(w http.ResponseWriter, r *http.Request) {
	l, err := h.Content.GetLecture(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"lecture": l})
}

// UpdateLecture handles POST /lectures/{id}
func (h *ContentHandler) UpdateLecture(w http.ResponseWriter, r *http.Request) {
	var in content.UpdateLectureInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := h.Content.UpdateLecture(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Lecture updated successfully", "lecture": l})
}

// DeleteLecture handles POST /lectures/{id}/delete
func (h *ContentHandler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	if err := h.Content.DeleteLecture(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Lecture deleted successfully"})
}

// PublishLecture handles POST /lectures/{id}/publish
func (h *ContentHandler) PublishLecture(w http.ResponseWriter, r *http.Request) {
	var in publishRequest
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := h.Content.SetLecturePublished(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), in.IsPublished)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"lecture": l})
}
