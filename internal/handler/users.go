package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MikhailRaia/shortlinks/internal/service"
	"github.com/rs/zerolog/log"
)

type userRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID string `json:"id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: err.Error()})
	case errors.Is(err, service.ErrUserExists):
		writeJSON(w, http.StatusConflict, detailResponse{Detail: "duplicate"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusForbidden, detailResponse{Detail: "forbidden"})
	default:
		log.Error().Err(err).Msg("User request failed")
		writeJSON(w, http.StatusInternalServerError, detailResponse{Detail: "internal error"})
	}
}

func decodeUserRequest(w http.ResponseWriter, r *http.Request, needNew bool) (userRequest, bool) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: "parameter incorrect"})
		return req, false
	}
	if req.Username == "" || req.Password == "" || (needNew && req.NewPassword == "") {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: "parameter invalid"})
		return req, false
	}
	return req, true
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUserRequest(w, r, false)
	if !ok {
		return
	}

	if err := h.users.Register(r.Context(), req.Username, req.Password); err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: req.Username})
}

// handleLogin issues a credential. With a registrar configured the credential is also
// recorded there so the link routes can resolve it.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUserRequest(w, r, false)
	if !ok {
		return
	}

	token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeUserError(w, err)
		return
	}

	if h.registrar != nil {
		if err := h.registrar.Register(token, strings.TrimSpace(req.Username)); err != nil {
			writeUserError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUserRequest(w, r, true)
	if !ok {
		return
	}

	if err := h.users.ChangePassword(r.Context(), req.Username, req.Password, req.NewPassword); err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{ID: req.Username})
}
