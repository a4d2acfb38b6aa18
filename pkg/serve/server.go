// Package serve implements the scriptcheck HTTP API.
//
//	POST /api/validate   body: script JSON; ?order=1 adds the script-order
//	                     check, ?min_severity=medium drops lower findings
//	POST /api/sort       body: script JSON; ?explain=1 wraps the result
//	                     with sort explanations
//	GET  /api/rules      rules this server runs
//	GET  /healthz        liveness
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/report"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
	"github.com/ormasoftchile/scriptcheck/pkg/sorter"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

// Options configures a Server.
type Options struct {
	// Knowledge is the base knowledge base. Defaults to the embedded one.
	Knowledge kb.Lookup
	// Checks configures the validator; ScriptOrder is forced on for ?order=1.
	Checks validate.Options
	Logger *slog.Logger
	// RatePerSecond and Burst size the per-client token bucket. A zero
	// rate disables limiting.
	RatePerSecond float64
	Burst         int
	MaxBodyBytes  int64
	// TrustedProxies lists the peers whose forwarding headers (X-Forwarded-For,
	// X-Real-IP) name the client. Without it the socket peer is the client.
	TrustedProxies []netip.Prefix
}

// Server serves the HTTP API.
type Server struct {
	router    *chi.Mux
	look      kb.Lookup
	validator *validate.Validator
	ordered   *validate.Validator
	sorter    *sorter.Sorter
	logger    *slog.Logger
	maxBody   int64
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	if opts.Knowledge == nil {
		opts.Knowledge = kb.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	ordered := opts.Checks
	ordered.ScriptOrder = true

	s := &Server{
		router:    chi.NewRouter(),
		look:      opts.Knowledge,
		validator: validate.New(opts.Knowledge, opts.Checks),
		ordered:   validate.New(opts.Knowledge, ordered),
		sorter:    sorter.New(opts.Knowledge),
		logger:    opts.Logger,
		maxBody:   opts.MaxBodyBytes,
	}

	s.router.Use(requestID)
	if len(opts.TrustedProxies) > 0 {
		s.router.Use(trustForwarded(opts.TrustedProxies))
	}
	s.router.Use(logRequests(s.logger))
	s.router.Use(middleware.Recoverer)
	if opts.RatePerSecond > 0 {
		s.router.Use(newLimiter(opts.RatePerSecond, max(opts.Burst, 1)).middleware)
	}

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/sort", s.handleSort)
		r.Get("/rules", s.handleRules)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.validator.Rules())
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.readScript(w, r)
	if !ok {
		return
	}
	v := s.validator
	if flag(r, "order") {
		v = s.ordered
	}
	findings := v.Validate(sc)
	if raw := r.URL.Query().Get("min_severity"); raw != "" {
		floor, err := kb.ParseSeverity(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		findings = validate.Filter(findings, floor)
	}
	writeJSON(w, http.StatusOK, report.New("", sc.Title(), findings, sc.Lookup(s.look), v.Label))
}

type sortResponse struct {
	Script      *script.Script `json:"script"`
	Explanation []string       `json:"explanation"`
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.readScript(w, r)
	if !ok {
		return
	}
	sorted := s.sorter.Sort(sc)
	if !flag(r, "explain") {
		writeJSON(w, http.StatusOK, sorted)
		return
	}
	explanation := s.sorter.ExplainScript(sorted)
	if explanation == nil {
		explanation = []string{}
	}
	writeJSON(w, http.StatusOK, sortResponse{Script: sorted, Explanation: explanation})
}

// readScript parses the request body, writing the error response itself
// when parsing fails. A text/markdown body yields its first json code block.
func (s *Server) readScript(w http.ResponseWriter, r *http.Request) (*script.Script, bool) {
	markdown := strings.HasPrefix(r.Header.Get("Content-Type"), "text/markdown")
	sc, err := script.ReadAny(http.MaxBytesReader(w, r.Body, s.maxBody), markdown)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return sc, true
}

func flag(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
