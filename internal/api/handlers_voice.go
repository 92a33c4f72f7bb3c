package api

import (
	"net/http"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/services"
)

// maxAudioBytes caps uploads at 25MB, the transcription vendor's own limit.
const maxAudioBytes = 25 << 20

type VoiceHandler struct {
	transcription *services.TranscriptionService
	users         *services.UserService
}

func NewVoiceHandler(transcription *services.TranscriptionService, users *services.UserService) *VoiceHandler {
	return &VoiceHandler{transcription: transcription, users: users}
}

// Transcribe POST /api/voice/transcribe, multipart with an "audio" part.
func (h *VoiceHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		respond.WriteBadRequest(w, "audio file is required")
		return
	}
	defer func() { _ = file.Close() }()

	res, err := h.transcription.Transcribe(r.Context(), u.UserID, file, header.Filename)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}
