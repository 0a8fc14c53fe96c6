package ipc

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/angch/logrelay/config"
	"github.com/angch/logrelay/relay"
	"github.com/angch/logrelay/sink"
)

// Relay is the part of a relay the IPC server controls.
type Relay interface {
	Stats() relay.Stats
	Pid() int
	ClearLogs()
}

func lastError(rec *sink.Recorder) string {
	if rec == nil {
		return ""
	}
	e, ok := rec.LastError()
	if !ok {
		return ""
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// NewHandler serves GET /status and POST /clear for r. Errors reported by
// the relay are read back from rec.
func NewHandler(cfg *config.Config, r Relay, rec *sink.Recorder) http.Handler {
	mux := http.NewServeMux()
	startTime := time.Now()

	mux.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		status := StatusResponse{
			PID:         os.Getpid(),
			StartTime:   startTime,
			Version:     cfg.Sentry.Release,
			MemoryAlloc: m.Alloc,
			Tool:        cfg.Tool,
			ToolPID:     r.Pid(),
			Relay:       r.Stats(),
			LastError:   lastError(rec),
			Config:      cfg.Redacted(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	mux.HandleFunc("/clear", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		before := r.Stats().Errors
		r.ClearLogs()

		resp := ClearResponse{OK: r.Stats().Errors == before}
		w.Header().Set("Content-Type", "application/json")
		if !resp.OK {
			resp.Error = lastError(rec)
			w.WriteHeader(http.StatusInternalServerError)
		}
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}

// StartServer listens on socketPath and blocks serving the IPC handler.
func StartServer(socketPath string, cfg *config.Config, r Relay, rec *sink.Recorder) error {
	// Ensure socket file is removed before listening, in case of crash/restart
	os.Remove(socketPath)

	listener, err := listenSecure("unix", socketPath)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler: NewHandler(cfg, r, rec),
	}

	if cfg.Verbose {
		log.Printf("IPC Server listening on %s", socketPath)
	}

	return server.Serve(listener)
}
