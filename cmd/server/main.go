// Command server exposes the morceus analyzer as a JSON REST API.
//
// Endpoints:
//
//	GET  /api/analyze?word=<word>[&greedy=true][&strict=true]
//	GET  /api/ending?ending=<ending>
//	GET  /api/paradigm?lemma=<lemma>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/cours-de-latin/morceus"
	"github.com/cours-de-latin/morceus/internal/config"
)

// ---- JSON response types ------------------------------------------------

type analyzeResponse struct {
	Word       string                      `json:"word"`
	Resolution string                      `json:"resolution"`
	Analyses   []morceus.LatinWordAnalysis `json:"analyses"`
}

type endingResponse struct {
	Ending string   `json:"ending"`
	Tables []string `json:"tables"`
}

type paradigmResponse struct {
	Lemma  string                 `json:"lemma"`
	IsVerb bool                   `json:"isVerb"`
	Cells  []morceus.ParadigmCell `json:"cells"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func writeJSON(log *zap.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("encode error", zap.Error(err))
	}
}

func writeError(log *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(log, w, status, errorResponse{Error: msg})
}

// boolParam parses an optional boolean query parameter, falling back to def.
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("bad %q query parameter %q", name, raw)
	}
	return b, nil
}

// ---- handlers -----------------------------------------------------------

type cacheKey struct {
	word string
	opts morceus.CruncherOptions
}

type server struct {
	cruncher *morceus.Cruncher
	opts     morceus.CruncherOptions
	cache    *lru.Cache[cacheKey, analyzeResponse]
	log      *zap.Logger
}

func newServer(c *morceus.Cruncher, opts morceus.CruncherOptions, cacheSize int, log *zap.Logger) (*server, error) {
	s := &server{cruncher: c, opts: opts, log: log}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, analyzeResponse](cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

func (s *server) handler(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/ending", s.handleEnding)
	mux.HandleFunc("/api/paradigm", s.handleParadigm)
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler(mux)
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(s.log, w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	word := r.URL.Query().Get("word")
	if word == "" {
		writeError(s.log, w, http.StatusBadRequest, "missing 'word' query parameter")
		return
	}
	opts := s.opts
	var err error
	if opts.Greedy, err = boolParam(r, "greedy", opts.Greedy); err != nil {
		writeError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.VowelLengthSensitive, err = boolParam(r, "strict", opts.VowelLengthSensitive); err != nil {
		writeError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}

	key := cacheKey{word: word, opts: opts}
	if s.cache != nil {
		if resp, ok := s.cache.Get(key); ok {
			writeJSON(s.log, w, http.StatusOK, resp)
			return
		}
	}
	res, err := s.cruncher.Resolve(word, opts)
	if err != nil {
		if errors.Is(err, morceus.ErrInvalidOptions) {
			writeError(s.log, w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("analyze failed", zap.String("word", word), zap.Error(err))
		writeError(s.log, w, http.StatusInternalServerError, "analysis failed")
		return
	}
	analyses := res.Analyses
	if analyses == nil {
		analyses = []morceus.LatinWordAnalysis{}
	}
	resp := analyzeResponse{Word: word, Resolution: res.Kind.String(), Analyses: analyses}
	if s.cache != nil {
		s.cache.Add(key, resp)
	}
	writeJSON(s.log, w, http.StatusOK, resp)
}

func (s *server) handleEnding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(s.log, w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	ending := r.URL.Query().Get("ending")
	if ending == "" {
		writeError(s.log, w, http.StatusBadRequest, "missing 'ending' query parameter")
		return
	}
	tables, ok := s.cruncher.Tables().EndingTables(ending)
	if !ok {
		writeError(s.log, w, http.StatusNotFound, fmt.Sprintf("ending %q not found", ending))
		return
	}
	writeJSON(s.log, w, http.StatusOK, endingResponse{Ending: ending, Tables: tables})
}

func (s *server) handleParadigm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(s.log, w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	name := r.URL.Query().Get("lemma")
	if name == "" {
		writeError(s.log, w, http.StatusBadRequest, "missing 'lemma' query parameter")
		return
	}
	tables := s.cruncher.Tables()
	lemma, ok := tables.Lemma(name)
	if !ok {
		writeError(s.log, w, http.StatusNotFound, fmt.Sprintf("lemma %q not found", name))
		return
	}
	cells, _ := tables.Paradigm(name)
	writeJSON(s.log, w, http.StatusOK, paradigmResponse{Lemma: lemma.Lemma, IsVerb: lemma.IsVerb, Cells: cells})
}

// ---- main ---------------------------------------------------------------

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides the config)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	start := time.Now()
	tables, err := cfg.OpenTables(log)
	if err != nil {
		log.Fatal("failed to load tables", zap.Error(err))
	}
	log.Info("tables loaded", zap.Duration("took", time.Since(start)))

	s, err := newServer(morceus.NewCruncher(tables), cfg.Options, cfg.Server.CacheSize, log)
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.handler(cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}
