package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andymarkow/fueltracker/internal/auth"
	"github.com/andymarkow/fueltracker/internal/errmsg"
	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/metrics"
	"github.com/andymarkow/fueltracker/internal/reconcile"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/andymarkow/fueltracker/internal/server/export"
	"github.com/andymarkow/fueltracker/internal/server/models"
	"github.com/andymarkow/fueltracker/internal/session"
	"github.com/andymarkow/fueltracker/internal/tracker"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	store   recordstore.Store
	tracker *tracker.Service
	gate    *session.Gate
	revoker session.Revoker
	log     *slog.Logger
	auth    *auth.JWTAuth
	now     func() time.Time
}

// NewHandlers returns a new Handlers instance.
func NewHandlers(store recordstore.Store, opts ...Option) *Handlers {
	handlers := &Handlers{
		store:   store,
		revoker: session.NewMemoryRevoker(),
		log:     logger.Nop(),
		auth:    auth.NewJWTAuth([]byte("")),
		now:     time.Now,
	}

	// Apply options
	for _, opt := range opts {
		opt(handlers)
	}

	handlers.tracker = tracker.New(store, tracker.WithLogger(handlers.log))
	handlers.gate = session.NewGate(store, session.WithLogger(handlers.log))

	return handlers
}

// Option is a functional option for Handlers.
type Option func(h *Handlers)

// WithLogger is a option for Handlers that sets logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		h.log = logger
	}
}

func WithAuth(auth *auth.JWTAuth) Option {
	return func(h *Handlers) {
		h.auth = auth
	}
}

// WithRevoker sets where logged out tokens are remembered.
func WithRevoker(revoker session.Revoker) Option {
	return func(h *Handlers) {
		h.revoker = revoker
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		h.now = now
	}
}

type JSONResponse struct {
	Message any `json:"message,omitempty"`
	Error   any `json:"error,omitempty"`
	Fields  any `json:"fields,omitempty"`
}

func handleJSONResponse(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func handleError(w http.ResponseWriter, err errmsg.HTTPError) {
	resp := &JSONResponse{
		Error: err.Error(),
	}

	handleJSONResponse(w, err.Code, resp)
}

// handleValidationError answers with every rejected field so the form can be corrected in one go.
func handleValidationError(w http.ResponseWriter, err error) {
	verrs := reconcile.Fields(err)

	fields := make([]models.FieldError, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, models.FieldError{Field: v.Field, Reason: v.Reason})
	}

	resp := &JSONResponse{
		Error:  errmsg.ErrReportInvalid.Error(),
		Fields: fields,
	}

	handleJSONResponse(w, errmsg.ErrReportInvalid.Code, resp)
}

// handleServiceError maps errors of the tracker and the record store to responses.
func (h *Handlers) handleServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, reconcile.ErrValidation):
		h.log.Info(op, slog.Any("error", err))
		handleValidationError(w, err)

	case errors.Is(err, tracker.ErrForbidden):
		h.log.Warn(op, slog.Any("error", err))
		handleError(w, errmsg.ErrViewForbidden)

	case errors.Is(err, recordstore.ErrConnection):
		h.log.Error(op, slog.Any("error", err))
		handleError(w, errmsg.ErrStoreUnavailable)

	default:
		h.log.Error(op, slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))
	}
}

// decodeJSON reads the request body into v. It reports false after answering the request itself.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Error("json.NewDecoder().Decode()", slog.Any("error", err))

		if errors.Is(err, io.EOF) {
			handleError(w, errmsg.ErrRequestPayloadEmpty)

			return false
		}

		handleError(w, errmsg.ErrRequestPayloadInvalid)

		return false
	}

	return true
}

// viewFromRequest rebuilds the caller's view from the verified token in the request context.
func (h *Handlers) viewFromRequest(w http.ResponseWriter, r *http.Request) (string, session.View, bool) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		h.log.Error("jwtauth.FromContext()", slog.Any("error", err))
		handleError(w, errmsg.ErrSessionInvalid)

		return "", session.View{}, false
	}

	view, err := auth.ViewFromClaims(claims)
	if err != nil {
		h.log.Warn("auth.ViewFromClaims()", slog.Any("error", err))
		handleError(w, errmsg.ErrUserRoleUnknown)

		return "", session.View{}, false
	}

	return token.Subject(), view, true
}

func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Error("store.Ping", slog.Any("error", err))
		handleError(w, errmsg.ErrStoreUnavailable)

		return
	}

	handleJSONResponse(w, http.StatusOK, &JSONResponse{Message: "ok"})
}

func (h *Handlers) UserLogin(w http.ResponseWriter, r *http.Request) {
	var userPayload models.UserRequest

	if !h.decodeJSON(w, r, &userPayload) {
		return
	}

	sess, err := h.gate.Login(r.Context(), userPayload.Username, userPayload.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			metrics.ObserveLogin(metrics.ResultRejected)
			handleError(w, errmsg.ErrUserCredentialsInvalid)

		case errors.Is(err, session.ErrUnknownRole), errors.Is(err, session.ErrStationMissing):
			metrics.ObserveLogin(metrics.ResultUnknownRole)
			handleError(w, errmsg.ErrUserRoleUnknown)

		default:
			metrics.ObserveLogin(metrics.ResultError)
			h.handleServiceError(w, "gate.Login()", err)
		}

		return
	}

	user, err := sess.User()
	if err != nil {
		h.handleServiceError(w, "session.User()", err)

		return
	}

	view, err := sess.View()
	if err != nil {
		h.handleServiceError(w, "session.View()", err)

		return
	}

	token, err := h.auth.CreateJWTString(user.Username, view)
	if err != nil {
		h.log.Error("auth.CreateJWTString()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	metrics.ObserveLogin(metrics.ResultSuccess)

	h.log.Info("User logged in",
		slog.String("username", user.Username),
		slog.String("view", view.Kind.String()),
		slog.String("station_id", view.StationID),
	)

	w.Header().Set("Authorization", "Bearer "+token.Value)
	handleJSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token.Value,
		View:      view.Kind.String(),
		StationID: view.StationID,
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// UserLogout revokes the presented token. Later requests carrying it are rejected.
func (h *Handlers) UserLogout(w http.ResponseWriter, r *http.Request) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		h.log.Error("jwtauth.FromContext()", slog.Any("error", err))
		handleError(w, errmsg.ErrSessionInvalid)

		return
	}

	if err := h.revoker.Revoke(r.Context(), token.JwtID(), token.Expiration()); err != nil {
		h.log.Error("revoker.Revoke()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	h.log.Info("User logged out", slog.String("username", token.Subject()))

	handleJSONResponse(w, http.StatusOK, &JSONResponse{Message: "ok"})
}

func (h *Handlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	username, view, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}

	handleJSONResponse(w, http.StatusOK, models.MeResponse{
		Username:  username,
		View:      view.Kind.String(),
		StationID: view.StationID,
	})
}

// ActiveSession rejects tokens that were logged out.
func (h *Handlers) ActiveSession(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			handleError(w, errmsg.ErrSessionInvalid)

			return
		}

		revoked, err := h.revoker.IsRevoked(r.Context(), token.JwtID())
		if err != nil {
			h.log.Error("revoker.IsRevoked()", slog.Any("error", err))
			handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

			return
		}

		if revoked {
			handleError(w, errmsg.ErrSessionInvalid)

			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

// RequireView only lets through sessions dispatched to the given view.
func (h *Handlers) RequireView(kind session.ViewKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			_, view, ok := h.viewFromRequest(w, r)
			if !ok {
				return
			}

			if view.Kind != kind {
				handleError(w, errmsg.ErrViewForbidden)

				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

func (h *Handlers) ExportPumpReport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.log.Info("export.ParseFormat()", slog.Any("error", err))
		handleError(w, errmsg.ErrExportFormatInvalid)

		return
	}

	_, view, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}

	q, ok := h.ownerQuery(w, r)
	if !ok {
		return
	}

	report, _, err := h.tracker.PumpReport(r.Context(), view, q)
	if err != nil {
		h.handleServiceError(w, "tracker.PumpReport()", err)

		return
	}

	var buf bytes.Buffer
	if err := export.PumpReport(&buf, format, report); err != nil {
		h.log.Error("export.PumpReport()", slog.Any("error", err))
		handleError(w, errmsg.NewHTTPError(http.StatusInternalServerError, err))

		return
	}

	w.Header().Set("content-type", format.ContentType())
	w.Header().Set("content-disposition", `attachment; filename="`+format.Filename(report)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}
