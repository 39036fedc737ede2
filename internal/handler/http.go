package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/MikhailRaia/shortlinks/internal/logger"
	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type ShortenerService interface {
	Create(ctx context.Context, destination, credential string, length int) (model.ShortLink, error)
	Read(ctx context.Context, id string) (model.ShortLink, error)
	Update(ctx context.Context, id, destination, credential string) (model.ShortLink, error)
	Delete(ctx context.Context, id, credential string) error
	ListAll(ctx context.Context, credential string) ([]model.ShortLink, error)
	DeleteAll(ctx context.Context, credential string) (int, error)
	Ping(ctx context.Context) error
}

type UserService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}

// CredentialRegistrar accepts credentials issued elsewhere. A nil registrar disables
// POST /authorization.
type CredentialRegistrar interface {
	Register(credential, principal string) error
}

type Handler struct {
	shortener ShortenerService
	users     UserService
	registrar CredentialRegistrar
	trusted   map[string]struct{}
}

func NewHandler(shortener ShortenerService, users UserService, registrar CredentialRegistrar, trustedSources []string) *Handler {
	trusted := make(map[string]struct{}, len(trustedSources))
	for _, src := range trustedSources {
		trusted[src] = struct{}{}
	}

	return &Handler{
		shortener: shortener,
		users:     users,
		registrar: registrar,
		trusted:   trusted,
	}
}

// RegisterRoutes builds the HTTP router. The static paths /ping, /metrics, /users and
// /authorization take precedence over an identifier with the same spelling.
func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Use(logger.RequestLogger)
	r.Use(middleware.Metrics)

	r.Use(middleware.GzipReader)
	r.Use(chimiddleware.RequestSize(maxBodyBytes))
	r.Use(middleware.GzipMiddleware)
	r.Use(middleware.Credential)

	r.Get("/ping", h.handlePing)
	r.Handle("/metrics", promhttp.Handler())

	if h.users != nil {
		r.Post("/users", h.handleRegister)
		r.Post("/users/login", h.handleLogin)
		r.Put("/users", h.handleChangePassword)
	}
	r.Post("/authorization", h.handleAuthorization)

	r.Get("/{id}", h.handleRead)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCredential)

		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Delete("/", h.handleDeleteAll)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})

	return r
}

type createRequest struct {
	Value  string `json:"value"`
	Length *int   `json:"length"`
}

type createResponse struct {
	ID string `json:"id"`
}

type updateRequest struct {
	URL string `json:"url"`
}

type updateResponse struct {
	URL string `json:"url"`
}

type valueResponse struct {
	Value interface{} `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
	Value string `json:"value,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	response, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func writeBadRequest(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: reason, Value: "error"})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, valueResponse{Value: "forbidden"})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "id not found"})
	case errors.Is(err, service.ErrValidation):
		writeBadRequest(w, err.Error())
	case errors.Is(err, service.ErrExhausted):
		writeBadRequest(w, "no free id of the requested length")
	default:
		log.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// maxBodyBytes caps request bodies after gzip decoding.
const maxBodyBytes = 64 << 10

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// redirectTarget makes a schemeless destination absolute so clients do not resolve it
// against this host.
func redirectTarget(destination string) string {
	if strings.Contains(destination, "://") {
		return destination
	}
	return "http://" + destination
}

func credential(r *http.Request) string {
	c, _ := middleware.GetCredentialFromContext(r.Context())
	return c
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "parameter incorrect")
		return
	}
	if req.Value == "" {
		writeBadRequest(w, "parameter invalid")
		return
	}

	length := 0
	if req.Length != nil {
		if *req.Length <= 0 {
			writeBadRequest(w, "length invalid")
			return
		}
		length = *req.Length
	}

	link, err := h.shortener.Create(r.Context(), req.Value, credential(r), length)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{ID: link.ID})
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	link, err := h.shortener.Read(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", redirectTarget(link.Destination))
	writeJSON(w, http.StatusMovedPermanently, valueResponse{Value: link.Destination})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "parameter incorrect")
		return
	}
	if req.URL == "" {
		writeBadRequest(w, "parameter invalid")
		return
	}

	link, err := h.shortener.Update(r.Context(), chi.URLParam(r, "id"), req.URL, credential(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{URL: link.Destination})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.shortener.Delete(r.Context(), chi.URLParam(r, "id"), credential(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	links, err := h.shortener.ListAll(r.Context(), credential(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if links == nil {
		links = []model.ShortLink{}
	}

	writeJSON(w, http.StatusOK, valueResponse{Value: links})
}

func (h *Handler) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if _, err := h.shortener.DeleteAll(r.Context(), credential(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.shortener.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Ping failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type authorizationRequest struct {
	JWT      string `json:"jwt"`
	Username string `json:"username"`
}

func (h *Handler) isTrusted(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	_, ok := h.trusted[host]
	return ok
}

// handleAuthorization lets a trusted issuer push a credential and its principal.
func (h *Handler) handleAuthorization(w http.ResponseWriter, r *http.Request) {
	if h.registrar == nil || !h.isTrusted(r) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req authorizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "parameter incorrect")
		return
	}

	if err := h.registrar.Register(req.JWT, req.Username); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	log.Info().Str("username", req.Username).Msg("Credential registered")
	w.WriteHeader(http.StatusOK)
}
