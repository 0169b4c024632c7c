package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "user info loaded", r.Context().Value(MyInfoCtx).(*domain.User))
}

// UpdateMyPassword changes the caller's password and renews the session
// cookie, so the login that made the change stays valid.
func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	me := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=6,nefield=OldPassword"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := checkPassword(me, req.OldPassword); err != nil {
		if errors.Is(err, errInvalidCredentials) {
			h.errorResponse(w, r, "old password is incorrect")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	updated := *me
	updated.PasswordHash = string(hash)
	if err := h.repository.UpdateUser(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.errorResponse(w, r, "account changed while updating the password, please retry")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	if err := h.issueSession(w, &updated); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "password updated", nil)
}
