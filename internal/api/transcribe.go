package api

import (
	"errors"
	"net/http"

	"github.com/warriorapp/warriord/internal/transcribe"
)

type transcribeResponse struct {
	Text string `json:"text"`
}

// handleTranscribe accepts a raw audio body (Content-Type identifies the
// format) and returns the recognized text. The client typically feeds the
// result straight into /king/parse-task.
func handleTranscribe(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Transcriber == nil || !deps.Transcriber.Configured() {
			httpError(w, http.StatusServiceUnavailable, "not_configured", "transcription is not configured")
			return
		}

		ct := r.Header.Get("Content-Type")
		if !transcribe.ValidContentType(ct) {
			httpError(w, http.StatusUnsupportedMediaType, "invalid_request_error", "unsupported audio content type %q", ct)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, transcribe.MaxAudioBytes)
		defer r.Body.Close()

		text, err := deps.Transcriber.Transcribe(r.Context(), r.Body, "recording", ct)
		if err != nil {
			if errors.Is(err, transcribe.ErrNotConfigured) {
				httpError(w, http.StatusServiceUnavailable, "not_configured", "transcription is not configured")
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "transcription failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, transcribeResponse{Text: text})
	}
}
