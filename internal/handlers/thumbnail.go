package handlers

import (
	"bytes"
	"net/http"
	"os"
	"strconv"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/thumb"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
)

// thumbnailJPEGQuality is the encode quality for the wire format. The
// in-memory cache holds decoded bitmaps, so this only costs on egress.
const thumbnailJPEGQuality = 80

// GetThumbnail serves an aspect-fit thumbnail for one media file. Each
// request owns a fresh loader over the shared cache and scheduler; if the
// client disconnects before the decode finishes, the loader is cancelled
// and the result (if any) lands only in the cache.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := h.resolvePath(mux.Vars(r)["path"])
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	boxW := queryInt(r, "w", h.config.ThumbBoxW)
	boxH := queryInt(r, "h", h.config.ThumbBoxH)

	ld := thumb.NewLoader(path, boxW, boxH, h.cache, h.sched, h.decoder.Decode)
	ld.Load()

	for {
		switch ld.State() {
		case thumb.StateLoaded:
			h.writeThumbnail(w, ld)
			return
		case thumb.StateIdle:
			// The decode failed or was rejected; the loader re-armed itself
			// but this request is done waiting.
			http.Error(w, "thumbnail unavailable", http.StatusUnprocessableEntity)
			return
		case thumb.StateCancelled:
			return
		}

		select {
		case <-ld.Changed():
		case <-r.Context().Done():
			// Scrolled away or closed the tab. The decode may still finish
			// and warm the cache, but nothing is published for this request.
			ld.Cancel()
			return
		}
	}
}

func (h *Handlers) writeThumbnail(w http.ResponseWriter, ld *thumb.Loader) {
	bitmap := ld.Bitmap()
	if bitmap == nil {
		http.Error(w, "thumbnail unavailable", http.StatusUnprocessableEntity)
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, bitmap, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		logging.Error("failed to encode thumbnail for %s: %v", ld.Path(), err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Debug("client went away while writing thumbnail: %v", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
