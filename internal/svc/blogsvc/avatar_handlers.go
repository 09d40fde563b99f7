package blogsvc

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// HandleAvatar serves a stored profile picture.
func (ht *HTTPTransport) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "avatar", ht.handleAvatar)
}

func (ht *HTTPTransport) handleAvatar(w http.ResponseWriter, r *http.Request) error {
	pic, err := ht.avatars.Fetch(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		return fmt.Errorf("fetch avatar: %w", err)
	}

	w.Header().Set("Content-Type", pic.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(pic.Data)))
	// Names are random and never reused.
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := w.Write(pic.Data); err != nil {
		return fmt.Errorf("write avatar: %w", err)
	}

	return nil
}
