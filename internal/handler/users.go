package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "users loaded", users)
}

// CreateUser registers an account with a random password and mails the
// credentials to the new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=admin viewer"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.repository.CreateUser(user); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "users_username_key":
				h.badRequest(w, r, errors.New("username already exists"))
			case "users_email_key":
				h.badRequest(w, r, errors.New("email already exists"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: req.FullName,
			Username: req.Username,
			Password: password,
		},
	}
	if err := h.mailPublisher.Publish(r.Context(), mailMessage); err != nil {
		h.metrics.RecordMailPublished(false)
		h.internalServerError(w, r, err)
		return
	}
	h.metrics.RecordMailPublished(true)

	h.successResponse(w, r, "user created", user)
}

// DeleteUser removes an account. Admins cannot delete themselves or the
// initial admin account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if username == h.config.InitialAdmin.Username {
		h.errorResponse(w, r, fmt.Sprintf("the %q account cannot be deleted", username))
		return
	}

	user, err := h.repository.GetUserByUsername(username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("user %q does not exist", username))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	sub, _ := r.Context().Value(SubCtxKey).(string)
	if strconv.FormatInt(user.ID, 10) == sub {
		h.errorResponse(w, r, "you cannot delete your own account")
		return
	}

	if err := h.repository.DeleteUserByUsername(username); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("user %q does not exist", username))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	slog.Info("user deleted", "username", username, "by", sub)
	h.successResponse(w, r, "user deleted", nil)
}
