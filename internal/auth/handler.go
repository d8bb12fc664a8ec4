package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-auth/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/session"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// RefreshEnqueuer schedules a background permission refresh.
type RefreshEnqueuer interface {
	EnqueueRefresh(ctx context.Context, userID int32) (string, error)
}

// HandlerConfig groups the dependencies of Handler.
type HandlerConfig struct {
	Logger  *slog.Logger
	Service *Service
	RBAC    rbac.Middleware
	// AccessMapOrdinal guards /access_map when non-zero.
	AccessMapOrdinal uint64
	// Enqueuer enables /refresh_permission/{id} when set.
	Enqueuer RefreshEnqueuer
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	accessMap []uint64
	enqueuer  RefreshEnqueuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var accessMap []uint64
	if cfg.AccessMapOrdinal > 0 {
		accessMap = []uint64{cfg.AccessMapOrdinal}
	}
	return &Handler{
		logger:    logger,
		service:   cfg.Service,
		rbac:      cfg.RBAC,
		accessMap: accessMap,
		enqueuer:  cfg.Enqueuer,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Get("/get_user_permission/{id}", h.handleGetUserPermission)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)
		r.Post("/logout/{id}", h.handleLogout)
		r.With(h.rbac.RequireAccess(h.accessMap...)).Get("/access_map", h.handleAccessMap)
	})
	if h.enqueuer != nil {
		r.Post("/refresh_permission/{id}", h.handleEnqueueRefresh)
	}
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				h.logger.Debug("login validation", slog.String("field", fieldErr.Field()), slog.String("tag", fieldErr.Tag()))
			}
		}
		httpx.RespondError(w, r, shared.ErrValidation)
		return
	}
	signed, err := h.service.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.OK(w, signed)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.RespondError(w, r, shared.ErrValidation)
		return
	}
	if err := h.service.Logout(r.Context(), id, session.RecordFromContext(r.Context())); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.Success(w, r, httpx.MsgLogoutSuccess)
}

func (h *Handler) handleGetUserPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.RespondError(w, r, shared.ErrValidation)
		return
	}
	mask, err := h.service.RefreshPermission(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.OK(w, mask)
}

func (h *Handler) handleAccessMap(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.AccessMap(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if defs == nil {
		defs = []PermissionDefinition{}
	}
	httpx.OK(w, defs)
}

func (h *Handler) handleEnqueueRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.RespondError(w, r, shared.ErrValidation)
		return
	}
	taskID, err := h.enqueuer.EnqueueRefresh(r.Context(), id)
	if err != nil {
		h.logger.Error("enqueue refresh", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, httpx.Envelope{Code: 0, Msg: httpx.Localize(r, httpx.MsgRefreshQueued), Data: taskID})
}

func pathID(r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}
