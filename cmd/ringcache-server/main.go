// Command ringcache-server is a small demo/reference binary: it wires
// an indexed ring-buffer cache to an in-memory or Redis-backed shared
// store and exposes it over a minimal HTTP API, for manual exercise
// and as a template for embedding the package into a larger service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Forensiq/indexedRingBuffer/pkg/ringcache"
	"github.com/Forensiq/indexedRingBuffer/pkg/ringcache/store"
	ilog "github.com/Forensiq/indexedRingBuffer/pkg/util/log"
)

var (
	httpListenAddress string
	storeBackend      string
	redisEndpoint     string
	logLevel          string
	fields            string
	monitorPeriod     time.Duration
)

func init() {
	flag.StringVar(&httpListenAddress, "http-listen-address", ":8088", "Address to serve the demo HTTP API and /metrics on.")
	flag.StringVar(&storeBackend, "store", "memory", "Shared store backend: memory or redis.")
	flag.StringVar(&redisEndpoint, "redis-endpoint", "localhost:6379", "Comma-separated Redis endpoints, used when -store=redis.")
	flag.StringVar(&logLevel, "log-level", "info", "Minimum log severity: debug, info, warn, error.")
	flag.StringVar(&fields, "fields", "status,owner:immutable,note:mutable,lock:lockkey",
		"Comma-separated record fields, each optionally suffixed with :immutable, :mutable, or :lockkey.")
	flag.DurationVar(&monitorPeriod, "monitor-tick", 30*time.Second, "How often to check the capacity controller's window, independent of insert traffic.")
}

func main() {
	cfg := ringcache.NewDefaultConfig()
	cfg.RegisterFlagsAndApplyDefaults("ring.", flag.CommandLine)
	flag.Parse()

	ilog.SetLevel(logLevel)

	if err := cfg.Validate(); err != nil {
		level.Error(ilog.Logger).Log("msg", "invalid ring config", "err", err)
		os.Exit(1)
	}

	params, err := parseFields(fields)
	if err != nil {
		level.Error(ilog.Logger).Log("msg", "invalid -fields", "err", err)
		os.Exit(1)
	}

	backend, err := newStore(storeBackend, redisEndpoint)
	if err != nil {
		level.Error(ilog.Logger).Log("msg", "failed to build shared store", "err", err)
		os.Exit(1)
	}

	ring, err := ringcache.New(*cfg, params, backend, ringcache.WithEjectFunc(logEjectFunc))
	if err != nil {
		level.Error(ilog.Logger).Log("msg", "failed to construct ring", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ring.StartMonitor(ctx, monitorPeriod)

	mux := http.NewServeMux()
	mux.HandleFunc("/set/", withRing(ring, handleSet))
	mux.HandleFunc("/get/", withRing(ring, handleGet))
	mux.HandleFunc("/stats", withRing(ring, handleStats))
	mux.HandleFunc("/resize", withRing(ring, handleResize))
	mux.HandleFunc("/drain", withRing(ring, handleDrain))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: httpListenAddress, Handler: mux}

	go func() {
		level.Info(ilog.Logger).Log("msg", "ringcache-server listening", "addr", httpListenAddress, "store", storeBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			level.Error(ilog.Logger).Log("msg", "http server exited", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	level.Info(ilog.Logger).Log("msg", "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func logEjectFunc(_ context.Context, id string, record map[string]string, isFullDrain bool) {
	level.Info(ilog.Logger).Log("msg", "ringcache-server: evicted", "id", id, "full_drain", isFullDrain, "fields", len(record))
}

func newStore(backend, redisEndpoint string) (ringcache.Store, error) {
	switch backend {
	case "memory":
		return store.NewMemory(), nil
	case "redis":
		return store.NewRedis(store.RedisConfig{
			Endpoint:   redisEndpoint,
			Expiration: 0,
			Timeout:    2 * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown -store %q, want memory or redis", backend)
	}
}

// parseFields turns a flag like "status,owner:immutable,lock:lockkey"
// into a FieldParam list, so the demo binary's schema is configurable
// without recompiling.
func parseFields(spec string) ([]ringcache.FieldParam, error) {
	var params []ringcache.FieldParam
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 2)
		p := ringcache.FieldParam{Name: parts[0]}
		if len(parts) == 2 {
			switch parts[1] {
			case "immutable":
				p.Immutable = true
			case "mutable":
				p.Mutable = true
			case "lockkey":
				p.LockKey = true
			default:
				return nil, fmt.Errorf("field %q: unknown modifier %q", parts[0], parts[1])
			}
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("-fields must name at least one field")
	}
	return params, nil
}

func withRing(r *ringcache.Ring, h func(*ringcache.Ring, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		h(r, w, req)
	}
}

func handleSet(r *ringcache.Ring, w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(req.URL.Path, "/set/")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	var fields map[string]string
	if err := json.NewDecoder(req.Body).Decode(&fields); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return
	}

	if err := r.Set(req.Context(), id, fields); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleGet(r *ringcache.Ring, w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/get/")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	fields, exists, err := r.Get(req.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, fields)
}

func handleStats(r *ringcache.Ring, w http.ResponseWriter, req *http.Request) {
	stats, err := r.Stats(req.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func handleResize(r *ringcache.Ring, w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		NewSize int64 `json:"new_size"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return
	}
	if err := r.Resize(req.Context(), body.NewSize); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleDrain(r *ringcache.Ring, w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.Drain(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
