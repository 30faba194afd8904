package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/fangliji/flowable-engine"
	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// maxDefinitionSize bounds deployed definition documents.
const maxDefinitionSize = 1 << 20

// Engine is the part of *flowable.Engine served over HTTP.
type Engine interface {
	Deploy(ctx context.Context, data []byte) (*domain.ProcessDefinition, error)
	Definitions(ctx context.Context) ([]domain.ProcessDefinition, error)
	StartProcessInstance(ctx context.Context, key, tenantID string, vars map[string]any) (*domain.Execution, error)
	StartProcessInstanceByID(ctx context.Context, definitionID string, vars map[string]any) (*domain.Execution, error)
	CompleteTask(ctx context.Context, taskID string, vars map[string]any) error
	AddSignature(ctx context.Context, executionID, candidates string) ([]string, error)
	RemoveSignature(ctx context.Context, executionID, candidates string) ([]string, error)
	InsertTask(ctx context.Context, processInstanceID, anchorKey, position, name string, candidateUsers []string) (string, error)
	DeleteTask(ctx context.Context, processInstanceID, taskKey, taskID string) error
	UpdateTask(ctx context.Context, processInstanceID, taskKey string, candidateUsers []string, mode string) error
	UpgradeInstance(ctx context.Context, processInstanceID, definitionID string) (string, error)
	Executions(ctx context.Context, processInstanceID string) ([]*domain.Execution, error)
	Tasks(ctx context.Context, processInstanceID string) ([]*domain.Task, error)
	IdentityLinks(ctx context.Context, taskID string) ([]*domain.IdentityLink, error)
	History(ctx context.Context, processInstanceID string) (*domain.HistoricProcessInstance, error)
	Graph(ctx context.Context, processInstanceID string) (*domain.Graph, error)
	Lease(ctx context.Context, processInstanceID string) (flowable.LeaseStatus, error)
}

var _ Engine = (*flowable.Engine)(nil)

var _ ServerInterface = (*Server)(nil)

// Server implements the generated ServerInterface on top of an Engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Metrics http.Handler
	Logger  *slog.Logger
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks are registered on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.Logger == nil {
		server.Logger = logging.NewNop()
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.Logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics)
	}

	// Swagger UI
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			server.Logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		_, _ = w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	handler := HandlerWithOptions(server, ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: server.paramError,
	})
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Flowable Engine API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// StatusCode maps engine errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrIllegalArgument),
		errors.Is(err, domain.ErrInvalidExpression),
		errors.Is(err, domain.ErrNoOutgoingFlow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDefinitionNotFound),
		errors.Is(err, domain.ErrExecutionNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrGraphNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLockUnavailable),
		errors.Is(err, domain.ErrStaleNode):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "path", r.URL.Path, "err", err)
	} else {
		s.Logger.Debug(op+" rejected", "path", r.URL.Path, "status", code, "err", err)
	}
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

// paramError reports a request whose parameters could not be bound.
func (s *Server) paramError(w http.ResponseWriter, r *http.Request, err error) {
	s.Logger.Warn("Invalid request parameter", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		s.Logger.Warn(op+": Invalid request body", "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "flowable-http",
		"version": strings.TrimSpace(flowable.Version),
	})
}

// ListDefinitions handles GET /definitions.
func (s *Server) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.Engine.Definitions(r.Context())
	if err != nil {
		s.fail(w, r, "ListDefinitions", err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

// Deploy handles POST /definitions with a YAML or JSON document as body.
func (s *Server) Deploy(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDefinitionSize+1))
	if err != nil {
		s.fail(w, r, "Deploy", err)
		return
	}
	if len(data) > maxDefinitionSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "definition too large"})
		return
	}
	def, err := s.Engine.Deploy(r.Context(), data)
	if err != nil {
		s.fail(w, r, "Deploy", err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// Start handles POST /process-instances. A definition id wins over a key.
func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	var body StartJSONRequestBody
	if !s.decode(w, r, "Start", &body) {
		return
	}

	var pi *domain.Execution
	var err error
	switch {
	case body.DefinitionId != "":
		pi, err = s.Engine.StartProcessInstanceByID(r.Context(), body.DefinitionId, body.Variables)
	case body.Key != "":
		pi, err = s.Engine.StartProcessInstance(r.Context(), body.Key, body.TenantId, body.Variables)
	default:
		err = domain.IllegalArgument("key or definition_id is required")
	}
	if err != nil {
		s.fail(w, r, "Start", err)
		return
	}
	writeJSON(w, http.StatusCreated, pi)
}

// CompleteTask handles POST /tasks/{taskId}/complete.
func (s *Server) CompleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	var body CompleteTaskJSONRequestBody
	if !s.decode(w, r, "CompleteTask", &body) {
		return
	}
	if err := s.Engine.CompleteTask(r.Context(), taskID, body.Variables); err != nil {
		s.fail(w, r, "CompleteTask", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCandidates handles GET /tasks/{taskId}/candidates.
func (s *Server) GetCandidates(w http.ResponseWriter, r *http.Request, taskID string) {
	links, err := s.Engine.IdentityLinks(r.Context(), taskID)
	if err != nil {
		s.fail(w, r, "GetCandidates", err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// AddSignature handles POST /executions/{executionId}/signatures.
func (s *Server) AddSignature(w http.ResponseWriter, r *http.Request, executionID string) {
	var body AddSignatureJSONRequestBody
	if !s.decode(w, r, "AddSignature", &body) {
		return
	}
	added, err := s.Engine.AddSignature(r.Context(), executionID, body.Candidates)
	if err != nil {
		s.fail(w, r, "AddSignature", err)
		return
	}
	writeJSON(w, http.StatusOK, SignatureResponse{Candidates: added})
}

// RemoveSignature handles DELETE /executions/{executionId}/signatures?candidates=a,b.
func (s *Server) RemoveSignature(w http.ResponseWriter, r *http.Request, executionID string, params RemoveSignatureParams) {
	removed, err := s.Engine.RemoveSignature(r.Context(), executionID, deref(params.Candidates))
	if err != nil {
		s.fail(w, r, "RemoveSignature", err)
		return
	}
	writeJSON(w, http.StatusOK, SignatureResponse{Candidates: removed})
}

// InsertTask handles POST /process-instances/{processInstanceId}/tasks.
func (s *Server) InsertTask(w http.ResponseWriter, r *http.Request, processInstanceID string) {
	var body InsertTaskJSONRequestBody
	if !s.decode(w, r, "InsertTask", &body) {
		return
	}
	id, err := s.Engine.InsertTask(r.Context(), processInstanceID, body.Anchor, body.Position, body.Name, body.CandidateUsers)
	if err != nil {
		s.fail(w, r, "InsertTask", err)
		return
	}
	writeJSON(w, http.StatusCreated, InsertTaskResponse{Id: id})
}

// UpdateTask handles PUT /process-instances/{processInstanceId}/tasks/{taskKey}.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request, processInstanceID, taskKey string) {
	var body UpdateTaskJSONRequestBody
	if !s.decode(w, r, "UpdateTask", &body) {
		return
	}
	if body.Mode == "" {
		body.Mode = "replace"
	}
	if err := s.Engine.UpdateTask(r.Context(), processInstanceID, taskKey, body.CandidateUsers, body.Mode); err != nil {
		s.fail(w, r, "UpdateTask", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTask handles DELETE /process-instances/{processInstanceId}/tasks/{taskKey}?task_id=.
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request, processInstanceID, taskKey string, params DeleteTaskParams) {
	if err := s.Engine.DeleteTask(r.Context(), processInstanceID, taskKey, deref(params.TaskId)); err != nil {
		s.fail(w, r, "DeleteTask", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upgrade handles POST /process-instances/{processInstanceId}/upgrade. The
// response names the restarted instance, if the upgrade had to restart it.
func (s *Server) Upgrade(w http.ResponseWriter, r *http.Request, processInstanceID string) {
	var body UpgradeJSONRequestBody
	if !s.decode(w, r, "Upgrade", &body) {
		return
	}
	restarted, err := s.Engine.UpgradeInstance(r.Context(), processInstanceID, body.DefinitionId)
	if err != nil {
		s.fail(w, r, "Upgrade", err)
		return
	}
	writeJSON(w, http.StatusOK, UpgradeResponse{RestartedProcessInstanceId: restarted})
}

// GetExecutions handles GET /process-instances/{processInstanceId}/executions.
func (s *Server) GetExecutions(w http.ResponseWriter, r *http.Request, processInstanceID string) {
	execs, err := s.Engine.Executions(r.Context(), processInstanceID)
	if err != nil {
		s.fail(w, r, "GetExecutions", err)
		return
	}
	writeJSON(w, http.StatusOK, execs)
}

// GetTasks handles GET /process-instances/{processInstanceId}/tasks.
func (s *Server) GetTasks(w http.ResponseWriter, r *http.Request, processInstanceID string) {
	tasks, err := s.Engine.Tasks(r.Context(), processInstanceID)
	if err != nil {
		s.fail(w, r, "GetTasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetHistory handles GET /process-instances/{processInstanceId}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request, processInstanceID string) {
	h, err := s.Engine.History(r.Context(), processInstanceID)
	if err != nil {
		s.fail(w, r, "GetHistory", err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// GetGraph handles GET /process-instances/{processInstanceId}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, processInstanceID string) {
	g, err := s.Engine.Graph(r.Context(), processInstanceID)
	if err != nil {
		s.fail(w, r, "GetGraph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetLease handles GET /process-instances/{processInstanceId}/lease.
func (s *Server) GetLease(w http.ResponseWriter, r *http.Request, processInstanceID string) {
	st, err := s.Engine.Lease(r.Context(), processInstanceID)
	if err != nil {
		s.fail(w, r, "GetLease", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SubscribeEvents handles GET /process-instances/{processInstanceId}/events (SSE).
// The optional types query parameter filters on event types.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, processInstanceID string, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var types []string
	if v := deref(params.Types); v != "" {
		for _, t := range strings.Split(v, ",") {
			types = append(types, strings.TrimSpace(t))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.Logger.Info("SSE: Subscribing to instance events", "process_instance_id", processInstanceID)
	ch, cancel := s.Streams.Subscribe(processInstanceID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "process_instance_id", processInstanceID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var base domain.EventBase
			if err := json.Unmarshal([]byte(msg), &base); err != nil {
				continue
			}
			if len(types) > 0 && !slices.Contains(types, string(base.Type)) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", base.Type, msg)
			flusher.Flush()
		}
	}
}
