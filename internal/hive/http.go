package hive

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/logging"
)

// Server exposes a Hive over the JSON-over-HTTP wire format named by
// spec §4.5/§6. One endpoint per coordinator operation, grounded on
// teacher's distributed/master/http_server.go: a plain net/http.ServeMux,
// a writeJSON helper, and a logging middleware (no CORS layer), generalized
// from load-test task dispatch to the eight Hive operations.
type Server struct {
	hive   *Hive
	secret string
	maxLen int64
	log    logging.ILogger
	server *http.Server
}

// NewServer builds the Hive's HTTP surface. addr is the net/http listen
// address (e.g. ":8420").
func NewServer(h *Hive, addr string, log logging.ILogger) *Server {
	if log == nil {
		log = logging.New("HIVE-HTTP")
	}
	s := &Server{hive: h, secret: h.cfg.Secret, maxLen: h.cfg.MaxPayloadBytes, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/register_job", s.withAuth(true, s.handleRegisterJob))
	mux.HandleFunc("/v1/get_active_job", s.withAuth(true, s.handleGetActiveJob))
	mux.HandleFunc("/v1/submit_result", s.withAuth(true, s.handleSubmitResult))
	mux.HandleFunc("/v1/get_status", s.withAuth(false, s.handleGetStatus))
	mux.HandleFunc("/v1/heartbeat", s.withAuth(true, s.handleHeartbeat))
	mux.HandleFunc("/v1/submit_community", s.withAuth(true, s.handleSubmitCommunity))
	mux.HandleFunc("/v1/sync_data", s.withAuth(false, s.handleSyncData))
	mux.HandleFunc("/v1/fetch_data", s.withAuth(true, s.handleFetchData))

	s.server = &http.Server{Addr: addr, Handler: s.logMiddleware(mux)}
	return s
}

func (s *Server) Start() error {
	s.log.InfoKV("starting hive http server", "addr", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.ErrorKV("hive http server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop() error {
	return s.server.Close()
}

// ===== Handlers =====

func (s *Server) handleRegisterJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(w, errs.New(errs.Validation, "register_job requires POST"))
		return
	}
	var req struct {
		Keyboard       json.RawMessage   `json:"keyboard"`
		Weights        json.RawMessage   `json:"weights"`
		Params         json.RawMessage   `json:"params"`
		PinnedKeys     map[string]string `json:"pinned_keys"`
		CorpusName     string            `json:"corpus_name"`
		CostMatrixName string            `json:"cost_matrix_name"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	jobID, err := s.hive.RegisterJob(JobDescription{
		Keyboard:       req.Keyboard,
		Weights:        req.Weights,
		Params:         req.Params,
		PinnedKeys:     req.PinnedKeys,
		CorpusName:     req.CorpusName,
		CostMatrixName: req.CostMatrixName,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
}

func (s *Server) handleGetActiveJob(w http.ResponseWriter, r *http.Request) {
	desc, jobID, err := s.hive.GetActiveJob()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if desc == nil {
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":           jobID,
		"keyboard":         json.RawMessage(desc.Keyboard),
		"weights":          json.RawMessage(desc.Weights),
		"params":           json.RawMessage(desc.Params),
		"pinned_keys":      desc.PinnedKeys,
		"corpus_name":      desc.CorpusName,
		"cost_matrix_name": desc.CostMatrixName,
	})
}

func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(w, errs.New(errs.Validation, "submit_result requires POST"))
		return
	}
	var req struct {
		JobID  string  `json:"job_id"`
		Layout string  `json:"layout"`
		Score  float64 `json:"score"`
		NodeID string  `json:"node_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	accepted, err := s.hive.SubmitResult(req.JobID, req.Layout, req.Score, req.NodeID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	status, err := s.hive.GetStatus(jobID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_nodes": status.ActiveNodes,
		"best_score":   status.BestScore,
		"best_layout":  status.BestLayout,
	})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(w, errs.New(errs.Validation, "heartbeat requires POST"))
		return
	}
	var req struct {
		NodeID       string  `json:"node_id"`
		CPUSignature string  `json:"cpu_signature"`
		CPUCores     int     `json:"cpu_cores"`
		OpsPerSec    float64 `json:"ops_per_sec"`
		CurrentJobID string  `json:"current_job_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.hive.Heartbeat(req.NodeID, req.CPUSignature, req.CPUCores, req.OpsPerSec, req.CurrentJobID); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"ack": "ok"})
}

func (s *Server) handleSubmitCommunity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(w, errs.New(errs.Validation, "submit_community requires POST"))
		return
	}
	var req struct {
		Name   string `json:"name"`
		Layout string `json:"layout"`
		Author string `json:"author"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	submissionID, err := s.hive.SubmitCommunity(req.Name, req.Layout, req.Author)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"submission_id": submissionID})
}

func (s *Server) handleSyncData(w http.ResponseWriter, r *http.Request) {
	files, err := s.hive.SyncData()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (s *Server) handleFetchData(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	data, err := s.hive.FetchData(path)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ===== Middleware/helpers =====

// withAuth gates write endpoints (and fetch_data, per spec §4.5) behind
// HIVE_SECRET when one is configured; read-only leaderboard endpoints
// (get_status, sync_data) pass authRequired=false and stay open.
func (s *Server) withAuth(authRequired bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authRequired && s.secret != "" {
			if r.Header.Get("X-Hive-Secret") != s.secret {
				s.writeErr(w, errs.AuthRequired())
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.DebugKV("hive http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// decode bounds the request body to maxLen (spec §6 64 MiB payload cap)
// and JSON-decodes it, writing the appropriate error response itself on
// failure so callers can just check the returned bool.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxLen)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err.Error() == "http: request body too large" {
			s.writeErr(w, errs.PayloadTooLarge(s.maxLen+1, s.maxLen))
			return false
		}
		s.writeErr(w, errs.New(errs.Validation, "invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.ErrorKV("failed to encode json", "error", err)
	}
}

// writeErr translates a *errs.Error into the stable {kind, message,
// retryable} envelope with its deterministic status code (spec §7); any
// other error is treated as Fatal.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	ke, ok := errs.As(err)
	if !ok {
		ke = errs.New(errs.Fatal, err.Error())
	}
	s.writeJSON(w, errs.HTTPStatus(ke.Kind), ke)
}
