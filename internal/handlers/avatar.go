package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fluentpal/fluentpal/internal/services"
)

// AvatarHandler serves deterministic initials avatars so profiles without an
// uploaded picture still render something stable.
type AvatarHandler struct{}

func NewAvatarHandler() *AvatarHandler {
	return &AvatarHandler{}
}

func (h *AvatarHandler) Serve(w http.ResponseWriter, r *http.Request) {
	seed, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok || seed == "" {
		writeError(w, http.StatusBadRequest, "Invalid avatar path")
		return
	}

	size := 0
	if sizeParam := r.URL.Query().Get("s"); sizeParam != "" {
		parsed, err := strconv.Atoi(sizeParam)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid size")
			return
		}
		size = parsed
	}

	pngBytes, err := services.RenderAvatarPNG(seed, size)
	if err != nil {
		writeInternalError(w, "rendering avatar", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pngBytes)
}
