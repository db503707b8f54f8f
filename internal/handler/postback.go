package handler

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/leadrelay/leadrelay/internal/metrics"
	"github.com/leadrelay/leadrelay/internal/postback"
)

// maxPostbackBody bounds how much of a postback body is read.
const maxPostbackBody = 1 << 20 // 1 MB

// PostbackHandler receives conversion postbacks from the tracker.
type PostbackHandler struct {
	engine  *postback.Engine
	token   string // shared secret; empty disables the check
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPostbackHandler creates a PostbackHandler.
func NewPostbackHandler(engine *postback.Engine, token string, logger *slog.Logger, recorder metrics.Recorder) *PostbackHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PostbackHandler{
		engine:  engine,
		token:   token,
		logger:  logger.With("component", "handler.postback"),
		metrics: recorder,
	}
}

// postbackResponse is the envelope returned for a processed postback.
type postbackResponse struct {
	OK       bool   `json:"ok"`
	Routed   bool   `json:"routed"`
	BuyerID  *int64 `json:"buyer_id"`
	Fallback bool   `json:"fallback"`
	Sale     bool   `json:"sale"`
}

// Post handles POST /keitaro/postback. The body may be JSON or
// form-encoded; query parameters are merged as defaults. Auth failures are
// the only non-2xx responses.
func (h *PostbackHandler) Post(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPostbackReceived("post")

	payload := h.extractBody(r)
	payload.MergeDefaults(r.URL.Query())

	if !h.authenticate(w, r, payload) {
		return
	}

	h.respond(w, h.engine.Handle(r.Context(), payload))
}

// Get handles GET /keitaro/postback. The payload is the query string.
// Trackers retry aggressively on non-2xx, which would duplicate downstream
// side effects, so any unexpected failure past auth is swallowed and
// answered 200 {"ok": true}.
func (h *PostbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPostbackReceived("get")

	payload := postback.FromValues(r.URL.Query())

	if !h.authenticate(w, r, payload) {
		return
	}

	defer func() {
		if rvr := recover(); rvr != nil {
			h.logger.Error("postback processing panicked", "panic", rvr)
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		}
	}()

	h.respond(w, h.engine.Handle(r.Context(), payload))
}

// respond maps the engine result to the wire envelope. Non-meaningful
// payloads get the tracker-compatible ACK.
func (h *PostbackHandler) respond(w http.ResponseWriter, result postback.Result) {
	if !result.Meaningful {
		writeJSON(w, http.StatusOK, map[string]int{"success": 200})
		return
	}

	writeJSON(w, http.StatusOK, postbackResponse{
		OK:       true,
		Routed:   result.Routed,
		BuyerID:  result.BuyerID,
		Fallback: result.Fallback,
		Sale:     result.Sale,
	})
}

// authenticate enforces the shared-secret check: missing token answers 401,
// mismatched 403. These are the only hard rejections in the pipeline.
func (h *PostbackHandler) authenticate(w http.ResponseWriter, r *http.Request, payload postback.Payload) bool {
	if h.token == "" {
		return true
	}

	supplied := bearerToken(r)
	if supplied == "" {
		supplied = payload["token"]
	}
	if supplied == "" {
		supplied = payload["auth"]
	}

	if supplied == "" {
		h.metrics.IncPostbackRejected("missing_token")
		h.logger.Warn("postback rejected", "reason", "missing_token")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return false
	}

	if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.token)) != 1 {
		h.metrics.IncPostbackRejected("bad_token")
		h.logger.Warn("postback rejected", "reason", "bad_token")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid token"})
		return false
	}

	return true
}

// extractBody reads the POST body into a payload. Malformed bodies
// degrade to an empty payload; the query-string defaults may still make
// the event processable.
func (h *PostbackHandler) extractBody(r *http.Request) postback.Payload {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	switch {
	case strings.Contains(mediaType, "json"):
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPostbackBody))
		if err != nil {
			h.logger.Warn("failed to read postback body", "error", err)
			return postback.Payload{}
		}
		return postback.FromJSON(body)
	default:
		if err := r.ParseForm(); err != nil {
			h.logger.Warn("failed to parse postback form", "error", err)
			return postback.Payload{}
		}
		return postback.FromValues(r.PostForm)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
