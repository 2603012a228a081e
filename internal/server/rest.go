package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/handler"
	"github.com/datafortress/lakehouse/internal/tenant"
)

// ConnectionCounter reports the number of live push connections for the
// health endpoint.
type ConnectionCounter interface {
	Len() int
}

// RESTServer exposes the BFF routes: webhooks, orchestration triggers,
// project state, and lake layer views.
type RESTServer struct {
	logger *zap.Logger

	sandboxCallback *handler.SandboxCallbackHandler
	triggerSync     *handler.TriggerSyncHandler
	runFlow         *handler.RunFlowHandler
	projects        *handler.ProjectsHandler
	layers          *handler.LayersHandler
	connections     ConnectionCounter
}

func NewRESTServer(
	logger *zap.Logger,
	sandboxCallback *handler.SandboxCallbackHandler,
	triggerSync *handler.TriggerSyncHandler,
	runFlow *handler.RunFlowHandler,
	projects *handler.ProjectsHandler,
	layers *handler.LayersHandler,
	connections ConnectionCounter,
) *RESTServer {
	return &RESTServer{
		logger:          logger,
		sandboxCallback: sandboxCallback,
		triggerSync:     triggerSync,
		runFlow:         runFlow,
		projects:        projects,
		layers:          layers,
		connections:     connections,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Webhook callers are machines without tenant headers; the payload
	// itself names the tenant.
	api.HandleFunc("/webhooks/sandbox-callback", s.handleSandboxCallback).Methods("POST")

	api.Handle("/orchestration/trigger-sync",
		tenant.RequireTenant(http.HandlerFunc(s.handleTriggerSync))).Methods("POST")
	api.Handle("/orchestration/run-flow",
		tenant.RequireTenant(http.HandlerFunc(s.handleRunFlow))).Methods("POST")
	api.Handle("/projects/{projectId}/state",
		tenant.RequireTenant(http.HandlerFunc(s.handleProjectState))).Methods("GET")
	api.Handle("/projects/{projectId}/cost",
		tenant.RequireTenant(http.HandlerFunc(s.handleProjectCost))).Methods("POST")
	api.Handle("/layers/health/connectors",
		tenant.RequireTenant(http.HandlerFunc(s.handleConnectorHealth))).Methods("GET")
	api.Handle("/layers/scripts",
		tenant.RequireTenant(http.HandlerFunc(s.handleScriptURL))).Methods("GET")
}

func (s *RESTServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"connections": s.connections.Len(),
	})
}

func (s *RESTServer) handleSandboxCallback(w http.ResponseWriter, r *http.Request) {
	var req handler.SandboxCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})

		return
	}

	resp, err := s.sandboxCallback.Handle(r.Context(), req)
	if err != nil {
		respondError(s.logger, w, err)

		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *RESTServer) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	var req handler.TriggerSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})

		return
	}

	resp, err := s.triggerSync.Handle(r.Context(), req)
	if err != nil {
		respondError(s.logger, w, err)

		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *RESTServer) handleRunFlow(w http.ResponseWriter, r *http.Request) {
	var req handler.RunFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})

		return
	}

	resp, err := s.runFlow.Handle(r.Context(), req)
	if err != nil {
		respondError(s.logger, w, err)

		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *RESTServer) handleProjectState(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	state, err := s.projects.GetState(r.Context(), projectID)
	if err != nil {
		respondError(s.logger, w, err)

		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *RESTServer) handleProjectCost(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req handler.UpdateCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})

		return
	}

	resp, err := s.projects.UpdateCost(r.Context(), projectID, req)
	if err != nil {
		respondError(s.logger, w, err)

		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *RESTServer) handleConnectorHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := s.layers.ConnectorHealth(r.Context())
	if err != nil {
		respondError(s.logger, w, err)

		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *RESTServer) handleScriptURL(w http.ResponseWriter, r *http.Request) {
	resp, err := s.layers.ScriptURL(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		respondError(s.logger, w, err)

		return
	}

	respondJSON(w, http.StatusOK, resp)
}
