package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// unknown usernames and wrong passwords share one message
var errInvalidCredentials = errors.New("invalid username or password")

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// checkPassword returns errInvalidCredentials on a mismatch and any other
// bcrypt failure unchanged.
func checkPassword(user *domain.User, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return errInvalidCredentials
	}
	return err
}

func (h *Handler) authenticate(username, password string) (*domain.User, error) {
	user, err := h.repository.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := checkPassword(user, password); err != nil {
		return nil, err
	}

	return user, nil
}

// sessionCookie carries the signed token. Production cookies are Secure and
// SameSite=Strict.
func (h *Handler) sessionCookie(token string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	return cookie
}

// issueSession signs a token for user and sets it as the session cookie.
func (h *Handler) issueSession(w http.ResponseWriter, user *domain.User) error {
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	})
	signed, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		return err
	}

	http.SetCookie(w, h.sessionCookie(signed, expiration))
	return nil
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.authenticate(req.Username, req.Password)
	switch {
	case errors.Is(err, errInvalidCredentials):
		slog.Info("rejected login", "username", req.Username)
		h.errorResponse(w, r, err.Error())
		return
	case err != nil:
		h.internalServerError(w, r, err)
		return
	case !user.IsActive:
		h.errorResponse(w, r, "account is disabled")
		return
	}

	if err := h.issueSession(w, user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "logged in", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w)
	h.successResponse(w, r, "logged out", nil)
}
