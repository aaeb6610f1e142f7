package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"thumbgrid/internal/database"
	"thumbgrid/internal/library"
	"thumbgrid/internal/logging"
	"thumbgrid/internal/startup"
	"thumbgrid/internal/thumb"

	"github.com/gorilla/mux"
)

// Handlers carries the pipeline services shared by all HTTP handlers.
// Cache and scheduler are injected, never global, so tests run them in
// isolation.
type Handlers struct {
	config  *startup.Config
	cache   *thumb.Cache
	sched   *thumb.Scheduler
	decoder *thumb.Decoder
	enum    *library.Enumerator
	index   *database.DB // nil when the capture index is disabled

	// onFolderChange is invoked with the newly active folder; main uses it
	// to repoint the filesystem watcher.
	onFolderChange func(dir string)

	mu        sync.Mutex
	activeDir string
	listing   *library.Listing
}

// New creates the handler set. index and onFolderChange may be nil.
func New(config *startup.Config, cache *thumb.Cache, sched *thumb.Scheduler,
	decoder *thumb.Decoder, enum *library.Enumerator, index *database.DB,
	onFolderChange func(dir string)) *Handlers {
	return &Handlers{
		config:         config,
		cache:          cache,
		sched:          sched,
		decoder:        decoder,
		enum:           enum,
		index:          index,
		onFolderChange: onFolderChange,
	}
}

// NewRouter builds the service router.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/folder", h.ListFolder).Methods("GET")
	api.HandleFunc("/thumbnail/{path:.*}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/file/{path:.*}", h.DeleteFile).Methods("DELETE")

	return r
}

// folderResponse is the JSON shape of one listing page.
type folderResponse struct {
	Path  string         `json:"path"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
	Total int            `json:"total"`
	Items []library.Item `json:"items"`
}

// ListFolder returns one page of the active folder's listing. Selecting a
// different folder replaces the listing wholesale and clears the bitmap
// cache so a reused path can never serve another folder's thumbnail.
func (h *Handlers) ListFolder(w http.ResponseWriter, r *http.Request) {
	dir, err := h.resolvePath(r.URL.Query().Get("path"))
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		page, err = strconv.Atoi(p)
		if err != nil || page < 0 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
	}

	listing := h.listingFor(dir)

	writeJSON(w, folderResponse{
		Path:  dir,
		Page:  page,
		Pages: listing.Pages(),
		Total: len(listing.Items),
		Items: listing.Page(page),
	})
}

// listingFor returns the cached listing for dir, enumerating on first use
// or after a folder switch.
func (h *Handlers) listingFor(dir string) *library.Listing {
	h.mu.Lock()
	if h.listing != nil && h.activeDir == dir {
		listing := h.listing
		h.mu.Unlock()
		return listing
	}
	switching := h.activeDir != "" && h.activeDir != dir
	h.mu.Unlock()

	if switching {
		// Abandon work queued for the previous folder before its cells are
		// recycled for the new one.
		h.sched.CancelAll()
		h.cache.Clear()
	}

	listing, err := h.enum.List(dir)
	if err != nil {
		// An unreadable folder is "no images", not an error page.
		logging.Warn("enumeration failed for %s: %v", dir, err)
	}

	h.mu.Lock()
	h.activeDir = dir
	h.listing = listing
	h.mu.Unlock()

	if h.onFolderChange != nil {
		h.onFolderChange(dir)
	}
	return listing
}

// InvalidateFolder drops cached state after a filesystem mutation. The
// whole bitmap cache goes, not just one key: freshness matters here,
// precision does not.
func (h *Handlers) InvalidateFolder(path string) {
	h.cache.Clear()

	h.mu.Lock()
	h.listing = nil
	h.mu.Unlock()

	logging.Debug("invalidated folder state after mutation of %s", path)
}

// DeleteFile removes a file and drops every cached bitmap, so a future
// loader for a reused path cannot be served the deleted file's thumbnail.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]
	path, err := h.resolvePath(rel)
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to delete %s: %v", path, err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}

	h.cache.Clear()
	if h.index != nil {
		if err := h.index.Forget(path); err != nil {
			logging.Warn("failed to forget %s in capture index: %v", path, err)
		}
	}

	h.mu.Lock()
	h.listing = nil
	h.mu.Unlock()

	logging.Info("deleted %s", path)
	w.WriteHeader(http.StatusNoContent)
}

// resolvePath joins a client-relative path onto the media root, refusing
// anything that escapes it.
func (h *Handlers) resolvePath(rel string) (string, error) {
	rel = filepath.Clean("/" + rel) // forces the path absolute, squeezes ".."
	full := filepath.Join(h.config.MediaDir, rel)

	root := filepath.Clean(h.config.MediaDir)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes media root", rel)
	}
	return full, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response: %v", err)
	}
}
