package handlers

import (
	"net/http"

	"coursehub/backend/internal/auth"
	"coursehub/backend/internal/gateway/util"
)

// AuthHandler exposes account and session endpoints
type AuthHandler struct {
	Auth *auth.AuthService
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	message := "User registered successfully"
	if res.RequiresApproval {
		message = "Registration successful. Please upload your verification documents for admin review."
	}
	util.OK(w, http.StatusCreated, util.M{
		"message":          message,
		"token":            res.Token,
		"expiresAt":        res.ExpiresAt,
		"user":             res.User,
		"requiresApproval": res.RequiresApproval,
		"needsDocuments":   res.NeedsDocuments,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.OK(w, http.StatusOK, util.M{
		"message":   "Login successful",
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
		"user":      res.User,
	})
}

// Logout handles POST /auth/logout. It extracts its own token so an
// expired session can still log out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if _, err := h.Auth.Logout(r.Context(), token); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Logged out successfully"})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.Me(r.Context(), util.ActorFrom(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"user": user})
}

// UpdateProfile handles PUT /auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in auth.ProfileInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Auth.UpdateProfile(r.Context(), util.ActorFrom(r), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Profile updated successfully", "user": user})
}

// ChangePassword handles PUT /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ChangePasswordInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), util.ActorFrom(r), in); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Password changed successfully. Please log in again."})
}

// UploadDocuments handles POST /auth/upload-documents
func (h *AuthHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	var in auth.UploadDocumentsInput
	if err := util.DecodeJSON(r, &in); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Auth.UploadDocuments(r.Context(), util.ActorFrom(r), in)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{
		"message":   "Documents uploaded successfully. Awaiting admin verification.",
		"documents": user.InstructorProfile.Documents,
		"status":    user.InstructorProfile.VerificationStatus,
	})
}
