package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"feedbackrelay/pkg/hub"
	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/store"
	"feedbackrelay/pkg/utils"
)

// Deps are the collaborators the HTTP surface reads from. The surface is
// strictly read-only; all writes go through the live protocol.
type Deps struct {
	Store   *store.Store
	Hub     *hub.Hub
	Version string
}

// Handler returns the router for the relay's plain HTTP surface:
//   - GET /api/messages: the backing file, re-read fresh from disk
//   - GET /admin/stats:  thread/message/client counts
//   - GET /healthz, /readyz: probes
func Handler(d Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/messages", func(w http.ResponseWriter, req *http.Request) {
		// Served from disk, not memory: the endpoint reflects only what was
		// durably flushed, and stays honest when a save failed.
		f, err := store.ReadFileFresh(d.Store.Path())
		if err != nil {
			logger.Error("messages_read_failed", "path", d.Store.Path(), "error", err)
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logger.Info("messages_served", "threads", len(f.MessageToAdmin))
		_ = utils.JSONWrite(w, http.StatusOK, f)
	}).Methods(http.MethodGet)

	r.HandleFunc("/admin/stats", func(w http.ResponseWriter, req *http.Request) {
		threads, messages := d.Store.Counts()
		_ = utils.JSONWrite(w, http.StatusOK, struct {
			Threads  int `json:"threads"`
			Messages int `json:"messages"`
			Clients  int `json:"clients"`
		}{threads, messages, d.Hub.ClientCount()})
	}).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !d.Store.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		ver := d.Version
		if ver == "" {
			ver = "dev"
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
	}).Methods(http.MethodGet)

	return r
}
