// Package server exposes the application wizard over HTTP. The service is
// headless: redirect decisions come back as payloads for the caller to
// follow, never as HTTP 3xx responses.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	stderrors "errors"

	"daystar-admissions/internal/common/errors"
	"daystar-admissions/internal/common/logger"
	"daystar-admissions/internal/common/metrics"
	"daystar-admissions/internal/common/observability"
	"daystar-admissions/internal/wizard"
)

// Server routes wizard actions to session state and the navigator.
type Server struct {
	store     SessionStore
	navigator *wizard.Navigator
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store SessionStore, navigator *wizard.Navigator, obs *observability.Observability, log logger.Logger) *Server {
	return &Server{
		store:     store,
		navigator: navigator,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "server"}),
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockSession serializes all handler access to one session. Sessions are
// single-writer: requests for the same id run one at a time, which also keeps
// the payment loading gate atomic.
func (s *Server) lockSession(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Server) recordRequest(r *http.Request, route string, status int, start time.Time) {
	if s.obs == nil {
		return
	}
	s.obs.RecordRequest(r.Context(), route, strconv.Itoa(status))
	s.obs.RecordRequestDuration(r.Context(), route, time.Since(start))
}

// Routes registers all API handlers on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/applications", s.handleCreate)
	mux.HandleFunc("GET /api/applications/{id}", s.handleGet)
	mux.HandleFunc("PATCH /api/applications/{id}", s.handlePatch)
	mux.HandleFunc("POST /api/applications/{id}/next", s.handleNext)
	mux.HandleFunc("POST /api/applications/{id}/prev", s.handlePrev)
	mux.HandleFunc("POST /api/applications/{id}/submit", s.handleSubmit)
	mux.HandleFunc("PUT /api/applications/{id}/subject-grades/{index}", s.handleSubjectGrade)
	mux.HandleFunc("PUT /api/applications/{id}/custom-subject-draft", s.handleCustomSubjectDraft)
	mux.HandleFunc("POST /api/applications/{id}/custom-subjects", s.handleAddCustomSubject)
	mux.HandleFunc("DELETE /api/applications/{id}/custom-subjects/{index}", s.handleRemoveCustomSubject)

	return mux
}

// sessionView is the wire shape of a session: current state, the rendered
// step, and any pending notifications.
type sessionView struct {
	Session *wizard.Session  `json:"session"`
	View    *wizard.StepView `json:"view,omitempty"`
	Events  []wizard.Event   `json:"events,omitempty"`
}

func (s *Server) sessionResponse(sess *wizard.Session) sessionView {
	out := sessionView{Session: sess, Events: sess.Notifier.Drain()}
	if !sess.Terminal() {
		if view, err := wizard.RenderStep(sess.Step, sess.Record, s.now()); err == nil {
			out.View = view
		}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Level string `json:"level"`
	Name  string `json:"name"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	var req createRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sess := wizard.NewSession()
	sess.Preselect(req.Level, req.Name)

	unlock := s.lockSession(sess.ID)
	defer unlock()

	if err := s.store.Save(r.Context(), sess); err != nil {
		s.writeStoreError(w, err)
		return
	}

	metrics.WizardSessionsStarted.Inc()
	s.recordRequest(r, "create", http.StatusCreated, start)
	s.logger.Info("session started", map[string]interface{}{"sessionId": sess.ID})
	writeJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

type patchRequest struct {
	Fields map[string]interface{} `json:"fields"`
	Step   *int                   `json:"step,omitempty"`
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if sess.Terminal() {
		writeError(w, http.StatusConflict, wizard.ErrTerminalSession.Error())
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for name, value := range req.Fields {
		if err := sess.SetField(name, value); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Step != nil {
		if err := sess.SetStep(*req.Step); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.store.Save(r.Context(), sess); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.handleStepMove(w, r, s.navigator.Advance)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.handleStepMove(w, r, s.navigator.Prev)
}

func (s *Server) handleStepMove(w http.ResponseWriter, r *http.Request, move func(*wizard.Session) wizard.Decision) {
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if sess.Terminal() {
		writeError(w, http.StatusConflict, wizard.ErrTerminalSession.Error())
		return
	}

	decision := move(sess)
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"decision": decision,
		"state":    s.sessionResponse(sess),
	})
}

type submitRequest struct {
	Action string `json:"action"`
	Origin string `json:"origin"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	origin := req.Origin
	if origin == "" {
		origin = r.Header.Get("Origin")
	}

	decision, err := s.navigator.Submit(r.Context(), sess, req.Action, origin)

	// Session state changed on every path, including failures (events,
	// payError). Persist before reporting.
	if saveErr := s.store.Save(r.Context(), sess); saveErr != nil {
		s.writeStoreError(w, saveErr)
		return
	}

	if err != nil {
		status := http.StatusBadGateway
		switch {
		case stderrors.Is(err, wizard.ErrTerminalSession), stderrors.Is(err, wizard.ErrPaymentInProgress):
			status = http.StatusConflict
		}
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) && !stdErr.Retryable {
			status = http.StatusUnprocessableEntity
		}
		s.recordRequest(r, "submit", status, start)
		writeJSON(w, status, map[string]interface{}{
			"error": err.Error(),
			"state": s.sessionResponse(sess),
		})
		return
	}

	s.recordRequest(r, "submit", http.StatusOK, start)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"decision": decision,
		"state":    s.sessionResponse(sess),
	})
}

type gradeRequest struct {
	Grade string `json:"grade"`
}

func (s *Server) handleSubjectGrade(w http.ResponseWriter, r *http.Request) {
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.UpdateSubjectGrade(index, req.Grade); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

type draftRequest struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

func (s *Server) handleCustomSubjectDraft(w http.ResponseWriter, r *http.Request) {
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.SetCustomSubjectDraft(req.Subject, req.Grade)
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleAddCustomSubject(w http.ResponseWriter, r *http.Request) {
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	added := sess.AddCustomSubject()
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"added": added,
		"state": s.sessionResponse(sess),
	})
}

func (s *Server) handleRemoveCustomSubject(w http.ResponseWriter, r *http.Request) {
	unlock := s.lockSession(r.PathValue("id"))
	defer unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	if err := sess.RemoveCustomSubject(index); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	sess, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) && stdErr.Code == errors.ErrCodeSessionNotFound {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			s.writeStoreError(w, err)
		}
		return nil, false
	}
	return sess, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	s.logger.WithError(err).Error("session store failure", nil)
	writeError(w, http.StatusInternalServerError, "session store failure")
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return 0, false
	}
	return index, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
