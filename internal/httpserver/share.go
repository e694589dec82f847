package httpserver

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320 // mobile-friendly size

// handleShare renders a PNG QR code pointing players at the web client.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	url := s.opts.PublicURL
	if id := r.URL.Query().Get("game"); id != "" {
		url += "/?game=" + id
	}
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Msg("qr encode")
		writeError(w, http.StatusInternalServerError, "qr_failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}
