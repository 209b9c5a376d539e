package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mmenanno/media-janitor/internal/actions"
	"github.com/mmenanno/media-janitor/internal/api"
	"github.com/mmenanno/media-janitor/internal/dashboard"
	"github.com/mmenanno/media-janitor/internal/database"
	"github.com/mmenanno/media-janitor/internal/expiry"
	"github.com/mmenanno/media-janitor/internal/issues"
	"github.com/mmenanno/media-janitor/internal/logging"
	"github.com/mmenanno/media-janitor/internal/modal"
	"github.com/mmenanno/media-janitor/internal/whitelist"
)

// HandleHealth reports liveness and dependency state
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "healthy"

	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}
	if s.session.State().Expired {
		checks["session"] = "expired"
		status = "degraded"
	} else {
		checks["session"] = "ok"
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  status,
		Version: s.version,
		Checks:  checks,
	})
}

// HandleIssues returns the issues page, loading it on first use or when
// the filter or page changes
func (s *Server) HandleIssues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ctx := r.Context()

	filter, err := issues.ParseFilter(query.Get("filter"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_filter")
		return
	}

	reload := s.issues.LoadedAt().IsZero()
	if p := query.Get("page"); p != "" {
		page, _ := strconv.Atoi(p)
		s.issues.SetPage(ValidatePage(page))
		reload = true
	}

	if query.Get("filter") != "" && filter != s.issues.Snapshot().Filter {
		err = s.issues.SetFilter(ctx, filter)
	} else if reload {
		err = s.issues.Load(ctx)
	}
	if err != nil {
		s.respondUpstream(w, err, "Failed to load issues")
		return
	}

	s.respondIssues(w)
}

// HandleRefresh reloads the issues page with the current query
func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.issues.Refetch(r.Context()); err != nil {
		s.respondUpstream(w, err, "Failed to load issues")
		return
	}
	s.respondIssues(w)
}

func (s *Server) respondIssues(w http.ResponseWriter) {
	inFlight := map[string][]string{}
	for kind, ids := range s.issues.Dispatcher().InFlight().Snapshot() {
		inFlight[string(kind)] = ids
	}
	respondJSON(w, http.StatusOK, IssuesResponse{
		Snapshot: s.issues.Snapshot(),
		InFlight: inFlight,
	})
}

// HandleAction runs one action against a loaded row and waits for it
func (s *Server) HandleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := ValidateItemID(id); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_id")
		return
	}
	kind, err := actions.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_action")
		return
	}

	var body ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body", "parse_error")
		return
	}

	item, err := s.issues.Item(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error(), "item_not_found")
		return
	}

	var result actions.Result
	if kind.IsDelete() {
		if kind != actions.DeleteKindFor(item) {
			respondError(w, http.StatusBadRequest, actions.ErrNotApplicable.Error(), "not_applicable")
			return
		}
		result, err = s.issues.Delete(r.Context(), id, api.DeleteOptions{
			FromLibraryManager: boolOr(body.DeleteFromArr, true),
			FromRequestManager: boolOr(body.DeleteFromJellyseerr, true),
		})
	} else {
		duration, perr := expiry.ParseDuration(body.Duration)
		if perr != nil {
			respondError(w, http.StatusBadRequest, perr.Error(), "invalid_duration")
			return
		}
		result, err = s.issues.Whitelist(r.Context(), id, kind, expiry.Selection{
			Duration:   duration,
			CustomDate: body.CustomDate,
		})
	}
	if err != nil {
		switch {
		case errors.Is(err, dashboard.ErrItemNotFound):
			respondError(w, http.StatusNotFound, err.Error(), "item_not_found")
		case errors.Is(err, dashboard.ErrStatusUnavailable):
			s.respondUpstream(w, err, "Failed to load integration status")
		case errors.Is(err, modal.ErrCannotConfirm):
			respondError(w, http.StatusBadRequest, actions.ErrNothingToDelete.Error(), "not_applicable")
		case isDurationError(err):
			respondError(w, http.StatusBadRequest, err.Error(), "invalid_duration")
		default:
			respondError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		}
		return
	}

	status, code := outcomeStatus(result.Outcome)
	if code != "" {
		message := result.Message
		if message == "" && result.Err != nil {
			message = result.Err.Error()
		}
		respondError(w, status, message, code)
		return
	}
	respondJSON(w, status, ActionResponse{
		Outcome: string(result.Outcome),
		Message: result.Message,
		Issues:  s.issues.Snapshot(),
	})
}

// outcomeStatus maps an action outcome to a response status and error code
func outcomeStatus(o actions.Outcome) (int, string) {
	switch o {
	case actions.OutcomeRemoved, actions.OutcomeRefetched:
		return http.StatusOK, ""
	case actions.OutcomeBusy:
		return http.StatusConflict, "in_flight"
	case actions.OutcomeConflict:
		return http.StatusConflict, "conflict"
	case actions.OutcomeSessionExpired:
		return http.StatusUnauthorized, "session_expired"
	case actions.OutcomeRejected:
		return http.StatusUnprocessableEntity, "upstream_rejected"
	case actions.OutcomeNotApplicable:
		return http.StatusBadRequest, "not_applicable"
	default:
		return http.StatusBadGateway, "upstream_failed"
	}
}

func isDurationError(err error) bool {
	return errors.Is(err, expiry.ErrUnknownDuration) ||
		errors.Is(err, expiry.ErrCustomDateRequired) ||
		errors.Is(err, expiry.ErrInvalidCustomDate) ||
		errors.Is(err, expiry.ErrDateNotInFuture)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// HandleInFlight lists outstanding actions keyed by action kind
func (s *Server) HandleInFlight(w http.ResponseWriter, r *http.Request) {
	snapshot := s.issues.Dispatcher().InFlight().Snapshot()
	out := make(map[string][]string, len(snapshot))
	for kind, ids := range snapshot {
		out[string(kind)] = ids
	}
	respondJSON(w, http.StatusOK, out)
}

// HandleWhitelist reloads and returns one whitelist category
func (s *Server) HandleWhitelist(w http.ResponseWriter, r *http.Request) {
	kind, err := whitelist.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_kind")
		return
	}
	if err := s.whitelist.Load(r.Context(), kind); err != nil {
		s.respondUpstream(w, err, "Failed to load whitelist")
		return
	}

	now := time.Now()
	entries := s.whitelist.Entries(kind)
	views := make([]WhitelistEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, WhitelistEntryView{
			Entry:    e,
			Expired:  e.IsExpired(now),
			Removing: s.whitelist.Removing(kind, e.ID),
		})
	}
	respondJSON(w, http.StatusOK, WhitelistResponse{Kind: kind, Label: kind.Label(), Entries: views})
}

// HandleWhitelistRemove deletes one loaded whitelist entry
func (s *Server) HandleWhitelistRemove(w http.ResponseWriter, r *http.Request) {
	kind, err := whitelist.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_kind")
		return
	}
	id, err := ParseEntryID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "invalid_id")
		return
	}

	if err := s.whitelist.Remove(r.Context(), kind, id); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrEntryNotFound):
			respondError(w, http.StatusNotFound, err.Error(), "entry_not_found")
		case errors.Is(err, actions.ErrInFlight):
			respondError(w, http.StatusConflict, err.Error(), "in_flight")
		default:
			s.respondUpstream(w, err, "Failed to remove whitelist entry")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToasts lists the toasts that have not auto-dismissed
func (s *Server) HandleToasts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ToastsResponse{Toasts: s.toasts.Active()})
}

// HandleHistory pages through the action journal
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "No action journal configured", "history_unavailable")
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, total, err := s.db.ListActions(r.Context(), database.ActionFilters{
		Kind:    query.Get("kind"),
		ItemID:  query.Get("item_id"),
		Outcome: query.Get("outcome"),
		Limit:   ValidateLimit(limit),
		Offset:  offset,
	})
	if err != nil {
		logging.Component("http").Error().Err(err).Msg("failed to list actions")
		respondError(w, http.StatusInternalServerError, "Failed to load history", "internal_error")
		return
	}
	if entries == nil {
		entries = []*database.ActionEntry{}
	}
	outcomes, err := s.db.CountActionsByOutcome(r.Context())
	if err != nil {
		logging.Component("http").Error().Err(err).Msg("failed to count actions")
		respondError(w, http.StatusInternalServerError, "Failed to load history", "internal_error")
		return
	}
	respondJSON(w, http.StatusOK, HistoryResponse{Actions: entries, Total: total, Outcomes: outcomes})
}

// HandleSession reports whether the server API session expired and the
// route to return to after logging in again
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.session.State())
}

// respondUpstream maps a gateway error to a response
func (s *Server) respondUpstream(w http.ResponseWriter, err error, fallback string) {
	message := api.ServerMessage(err)
	if message == "" {
		message = fallback
	}
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, message, "session_expired")
	case errors.Is(err, api.ErrNotFound):
		respondError(w, http.StatusNotFound, message, "entry_not_found")
	case errors.Is(err, api.ErrConflict):
		respondError(w, http.StatusConflict, message, "conflict")
	case api.StatusOf(err) >= 400 && api.StatusOf(err) < 500:
		respondError(w, http.StatusUnprocessableEntity, message, "upstream_rejected")
	default:
		logging.Component("http").Warn().Err(err).Msg(fallback)
		respondError(w, http.StatusBadGateway, message, "upstream_failed")
	}
}
