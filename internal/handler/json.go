package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// requests are small JSON objects; the largest is an optimizer selection
const maxRequestBodyBytes = 1 << 20

var (
	errBodyTooLarge = errors.New("request body is too large")
	errBodyNotJSON  = errors.New("request body is not valid JSON")
)

// Response is the envelope of every answer. Business failures are sent with
// status 200 and Success false; only server faults use a 5xx status.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// decodeValid reads one JSON value from the body into v and validates it.
// Every error it returns can be shown to the client as is.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errBodyNotJSON
	}
	return h.validate.Struct(v)
}

// respond marshals before touching the writer, so an encoding failure can
// still become a clean 500.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Debug("client went away before the response was written", "path", r.URL.Path, "error", err)
	}
}

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.respond(w, r, http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.respond(w, r, http.StatusOK, Response{Message: msg})
}

// badRequest reports err to the client. Validation failures are reduced to
// the translated message of the first failing field.
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
		return
	}
	h.errorResponse(w, r, err.Error())
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.respond(w, r, http.StatusInternalServerError, Response{Message: "internal server error"})
}
