package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/pipeline"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
	renderTimeout   = 2 * time.Minute
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	noCache bool
	apiURL  string
}

// serveCommand creates the serve command, which exposes the fetch pipeline
// over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: defaultAddr}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered forecast fields over HTTP",
		Long: `Serve rendered forecast fields over HTTP.

Routes:
  GET /healthz
  GET /v1/render/{collection}/{variable}?ref_time=&horizon=&perturbed=&mode=&format=&all_missing=&scale=

The response body is the encoded image. Errors are JSON objects with the
error code, message and request id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "STAC API root")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, runnerOpts{noCache: opts.noCache, apiURL: opts.apiURL})
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           newServer(runner, c.cfg().Render, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	printInfo("Listening on %s", StyleLink.Render("http://"+opts.addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// =============================================================================
// HTTP Handlers
// =============================================================================

// server serves the render pipeline.
type server struct {
	runner   *pipeline.Runner
	defaults RenderConfig
	logger   *log.Logger
}

func newServer(runner *pipeline.Runner, defaults RenderConfig, logger *log.Logger) *server {
	return &server{runner: runner, defaults: defaults, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/render/{collection}/{variable}", s.handleRender)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "MISS"
	if result.CacheInfo.RenderHit {
		cacheStatus = "HIT"
	}
	w.Header().Set("Content-Type", result.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Image)))
	w.Header().Set("X-Cache", cacheStatus)
	if result.Item != nil {
		w.Header().Set("X-Item-ID", result.Item.ID)
		w.Header().Set("X-Reference-Time", result.Item.Properties.ReferenceDatetime)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Image)
}

// renderOptions builds pipeline options from the route and query string.
// Query values override the configured render defaults.
func (s *server) renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Collection: chi.URLParam(r, "collection"),
		Variable:   chi.URLParam(r, "variable"),
		RefTime:    q.Get("ref_time"),
		Horizon:    q.Get("horizon"),
		Mode:       queryOr(q.Get("mode"), s.defaults.Mode),
		Format:     queryOr(q.Get("format"), s.defaults.Format),
		AllMissing: queryOr(q.Get("all_missing"), s.defaults.AllMissing),
		Scale:      s.defaults.Scale,
		Logger:     s.logger,
	}
	if v := q.Get("perturbed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid perturbed value: %q", v)
		}
		opts.Perturbed = b
	}
	if v := q.Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid scale: %q", v)
		}
		opts.Scale = n
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func queryOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// errorResponse is the JSON body of a failed request.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", requestIDFrom(r.Context()), "error", err)
	}
	writeJSON(w, status, errorResponse{
		Code:      string(code),
		Message:   errors.UserMessage(err),
		RequestID: requestIDFrom(r.Context()),
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	if errors.IsInput(err) {
		return http.StatusBadRequest
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeItemNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout, errors.ErrCodeRateLimited:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Middleware
// =============================================================================

type requestIDKey struct{}

// requestID tags each request with a UUID, reusing a valid incoming
// X-Request-ID header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", requestIDFrom(r.Context()))
	})
}
