package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/backend/internal/gateway/util"
	"coursehub/backend/internal/user"
)

// UserHandler exposes admin user management and instructor verification
type UserHandler struct {
	Users *user.UserService
}

// resetDocumentsRequest mirrors the JSON input for PUT /users/reset-documents.
// Without an instructorId the caller resets their own documents.
type resetDocumentsRequest struct {
	InstructorID string `json:"instructorId"`
}

// ListUsers handles GET /users?role=&page=&limit=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, pagination, err := h.Users.ListUsers(r.Context(), util.ActorFrom(r), r.URL.Query().Get("role"), util.QueryPage(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"users": users, "pagination": pagination})
}

// PendingApproval handles GET /users/pending-approval
func (h *UserHandler) PendingApproval(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.PendingApproval(r.Context(), util.ActorFrom(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"users": users})
}

// PendingVerification handles GET /users/pending-verification
func (h *UserHandler) PendingVerification(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.PendingVerification(r.Context(), util.ActorFrom(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"instructors": users})
}

// Profile handles GET /users/{id}/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Profile(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"user": u})
}

// ApproveUser handles PUT /users/{id}/approve
func (h *UserHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.ApproveUser(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "User approved successfully", "user": u})
}

// DeactivateUser handles PUT /users/{id}/deactivate
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.DeactivateUser(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "User deactivated successfully", "user": u})
}

// VerifyDocument handles PUT /users/{id}/verify-document/{documentId}
func (h *UserHandler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	var in user.VerifyDocumentInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Users.VerifyDocument(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "documentId"), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	message := "Document rejected"
	if in.Verified {
		message = "Document verified successfully"
	}
	util.OK(w, http.StatusOK, util.M{
		"message":      message,
		"document":     res.Document,
		"userApproved": res.UserApproved,
	})
}

// ResetDocuments handles PUT /users/reset-documents
func (h *UserHandler) ResetDocuments(w http.ResponseWriter, r *http.Request) {
	var req resetDocumentsRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	actor := util.ActorFrom(r)
	if req.InstructorID == "" {
		req.InstructorID = actor.UserID
	}

	u, err := h.Users.ResetDocuments(r.Context(), actor, req.InstructorID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Documents reset successfully. You can upload new documents.", "user": u})
}
