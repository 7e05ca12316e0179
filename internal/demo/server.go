package demo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
)

const (
	defaultAddr  = ":8547"
	defaultLimit = 25
	maxLimit     = 200
)

// Options configures the demo backend.
type Options struct {
	// Addr is the listen address for Run.
	Addr string
	// DBPath is the SQLite file backing the record store; empty keeps it
	// in memory.
	DBPath string
	// FixturesPath overrides the embedded fixture corpus. When set, the
	// file is watched and hot-reloaded on change.
	FixturesPath string
	Logger       *zap.Logger
}

// Server is the demo tracker backend.
type Server struct {
	opts     Options
	log      *zap.Logger
	store    *Store
	validate *validator.Validate

	mu       sync.RWMutex
	fixtures *Fixtures
}

// NewServer opens the store and seeds it from the fixture corpus.
func NewServer(opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = defaultAddr
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{opts: opts, log: log, validate: validator.New()}

	store, err := OpenStore(opts.DBPath)
	if err != nil {
		return nil, err
	}
	s.store = store
	if err := s.Reload(context.Background()); err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the record store.
func (s *Server) Close() error { return s.store.Close() }

// Reload re-reads the fixture corpus and replaces the store contents. On
// error the previous data stays live.
func (s *Server) Reload(ctx context.Context) error {
	var fixtures *Fixtures
	var err error
	if s.opts.FixturesPath != "" {
		fixtures, err = LoadFixtures(s.opts.FixturesPath)
	} else {
		fixtures, err = DefaultFixtures()
	}
	if err != nil {
		return err
	}
	n, err := s.store.Load(ctx, fixtures)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.fixtures = fixtures
	s.mu.Unlock()
	s.log.Info("fixtures loaded",
		zap.Int("resources", len(fixtures.Resources)),
		zap.Int("records", n))
	return nil
}

func (s *Server) collection(name string) (Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.fixtures.Resources[name]
	return coll, ok
}

// Run serves until ctx is canceled, then shuts down gracefully. When a
// fixture file is configured it is watched for edits and reloaded.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.opts.FixturesPath != "" {
		watcher, err := watchFixtures(s.opts.FixturesPath, s.log, func() {
			if err := s.Reload(context.Background()); err != nil {
				s.log.Warn("fixture reload failed, keeping previous data", zap.Error(err))
			}
		})
		if err != nil {
			s.log.Warn("fixture watch unavailable", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("demo backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Handler builds the API router. Exposed separately so tests can mount it
// on httptest servers.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Route("/api", func(r chi.Router) {
		r.Get("/flows/{flow}", s.handleFlow)
		r.Route("/{resource}", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Get("/meta/", s.handleMeta)
			r.Get("/{id}/", s.handleGet)
			r.Delete("/{id}/", s.handleDelete)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	coll, ok := s.collection(resource)
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	query := r.URL.Query()
	q := ListQuery{
		Limit:        clampLimit(query.Get("limit")),
		Offset:       parseOffset(query.Get("offset")),
		Search:       query.Get("search"),
		SearchFields: coll.Meta.SearchFields,
	}

	// Unknown ordering fields are ignored rather than rejected, matching
	// the backend the client was written against.
	if ordering := query.Get("ordering"); ordering != "" {
		if containsField(coll.Meta.OrderingFields, strings.TrimPrefix(ordering, "-")) {
			q.Ordering = ordering
		} else {
			s.log.Debug("ignoring unknown ordering",
				zap.String("resource", resource), zap.String("ordering", ordering))
		}
	}

	// Only declared filters apply; anything else in the query string is
	// someone else's parameter.
	for field := range coll.Meta.Filters {
		if value := query.Get(field); value != "" && value != api.FilterAll {
			if q.Filters == nil {
				q.Filters = map[string]string{}
			}
			q.Filters[field] = value
		}
	}

	total, records, err := s.store.List(r.Context(), resource, q)
	if err != nil {
		s.log.Error("list failed", zap.String("resource", resource), zap.Error(err))
		respondDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	respondJSON(w, http.StatusOK, api.ListResult{Count: total, Results: records})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	coll, ok := s.collection(chi.URLParam(r, "resource"))
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	respondJSON(w, http.StatusOK, coll.Meta.ResourceMeta())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if _, ok := s.collection(resource); !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	rec, err := s.store.Get(r.Context(), resource, chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		s.log.Error("get failed", zap.String("resource", resource), zap.Error(err))
		respondDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	coll, ok := s.collection(resource)
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var rec api.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	var missing []string
	for _, field := range coll.Meta.Required {
		if err := s.validate.Var(rec[field], "required"); err != nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		respondDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Missing required fields: %s.", strings.Join(missing, ", ")))
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if rec.Time("created_at").IsZero() {
		rec["created_at"] = now
	}
	if rec.Time("updated_at").IsZero() {
		rec["updated_at"] = now
	}

	if err := s.store.Insert(r.Context(), resource, rec); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondDetail(w, http.StatusConflict, "Record already exists.")
			return
		}
		s.log.Error("create failed", zap.String("resource", resource), zap.Error(err))
		respondDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if _, ok := s.collection(resource); !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	err := s.store.Delete(r.Context(), resource, chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		s.log.Error("delete failed", zap.String("resource", resource), zap.Error(err))
		respondDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "flow")
	s.mu.RLock()
	graph, ok := s.fixtures.Flows[key]
	s.mu.RUnlock()
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	respondJSON(w, http.StatusOK, graph)
}

func clampLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

func parseOffset(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func containsField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already on the wire; an encode failure here has
	// nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
