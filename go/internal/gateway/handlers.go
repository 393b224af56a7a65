package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/seanmccall/pokerclock/go/internal/push"
	"github.com/seanmccall/pokerclock/go/internal/room"
	"github.com/seanmccall/pokerclock/go/internal/tournament"
)

// Handler exposes the room control surface over HTTP and websockets.
type Handler struct {
	registry *room.Registry
	upgrader websocket.Upgrader
}

func NewHandler(registry *room.Registry) *Handler {
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the clock is meant to be opened from any device on the table
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes mounts every endpoint on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.handleHealth)
	r.Route("/{roomID}", func(r chi.Router) {
		r.Post("/tournament", h.handleCreateTournament)
		r.Get("/settings", h.handleGetSettings)
		r.Put("/settings", h.handlePutSettings)
		r.Post("/subscriptions/{deviceID}", h.handleSubscribe)
		r.Delete("/subscriptions/{deviceID}", h.handleUnsubscribe)
		r.Get("/ws/{deviceID}", h.handleWebsocket)
		r.Get("/qr/{name}", h.handleQRCode)
		r.Get("/{name}/manifest.json", h.handleManifest)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Debug().Err(err).Msg("failed to write health check response")
	}
}

// roomFromRequest resolves the roomID path param, creating the room on first
// reference: room ids are not pre-registered resources.
func (h *Handler) roomFromRequest(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return nil, false
	}
	return h.registry.GetOrCreate(roomID), true
}

func deviceFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	deviceID, err := uuid.Parse(chi.URLParam(r, "deviceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return uuid.Nil, false
	}
	return deviceID, true
}

type createTournamentRequest struct {
	Structure string `json:"structure"`
}

func (h *Handler) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFromRequest(w, r)
	if !ok {
		return
	}
	var req createTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rm.CreateTournament(req.Structure); err != nil {
		if err == tournament.ErrUnknownStructure {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown structure %q", req.Structure))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create tournament")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// settingsPayload carries the duration override in milliseconds; null means
// no override.
type settingsPayload struct {
	DurationOverrideMS *int64 `json:"duration_override_ms"`
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFromRequest(w, r)
	if !ok {
		return
	}
	override, err := rm.Settings()
	if err != nil {
		writeError(w, http.StatusConflict, "no tournament running")
		return
	}
	var payload settingsPayload
	if override != nil {
		ms := override.Milliseconds()
		payload.DurationOverrideMS = &ms
	}
	writeJSON(w, payload)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFromRequest(w, r)
	if !ok {
		return
	}
	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var override *time.Duration
	if payload.DurationOverrideMS != nil {
		d := time.Duration(*payload.DurationOverrideMS) * time.Millisecond
		override = &d
	}
	if err := rm.UpdateSettings(override); err != nil {
		writeError(w, http.StatusConflict, "no tournament running")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFromRequest(w, r)
	if !ok {
		return
	}
	deviceID, ok := deviceFromRequest(w, r)
	if !ok {
		return
	}
	var sub push.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil || sub.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "invalid subscription")
		return
	}
	if err := rm.Subscribe(deviceID, sub); err != nil {
		writeError(w, http.StatusConflict, "no tournament running")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFromRequest(w, r)
	if !ok {
		return
	}
	deviceID, ok := deviceFromRequest(w, r)
	if !ok {
		return
	}
	if err := rm.Unsubscribe(deviceID); err != nil {
		writeError(w, http.StatusConflict, "no tournament running")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.roomFromRequest(w, r)
	if !ok {
		return
	}
	deviceID, ok := deviceFromRequest(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("room_id", rm.ID.String()).Msg("failed to upgrade websocket connection")
		return
	}

	log.Info().
		Str("room_id", rm.ID.String()).
		Str("device_id", deviceID.String()).
		Msg("websocket connection established")
	go newSession(conn, rm, deviceID).run()
}

func (h *Handler) handleQRCode(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	name := chi.URLParam(r, "name")
	if r.Host == "" {
		writeError(w, http.StatusInternalServerError, "couldn't determine host name")
		return
	}

	target := fmt.Sprintf("https://%s/%s/timer/%s", r.Host, roomID, url.PathEscape(name))
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("failed to render QR code")
		writeError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		log.Debug().Err(err).Msg("failed to write QR code response")
	}
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	name := chi.URLParam(r, "name")
	writeJSON(w, map[string]any{
		"name":             fmt.Sprintf("%s Poker Timer", name),
		"short_name":       fmt.Sprintf("%s Poker Timer", name),
		"description":      "A poker tournament timer that can easily be shared between players in a game.",
		"display":          "standalone",
		"display_override": []string{"window-control-overlay", "standalone"},
		"theme_color":      "#000000",
		"background_color": "#ffffff",
		"dir":              "ltr",
		"lang":             "en",
		"start_url":        fmt.Sprintf("/%s/timer/%s", roomID, url.PathEscape(name)),
		"scope":            fmt.Sprintf("/%s/", roomID),
		"id":               fmt.Sprintf("/%s/", roomID),
		"icons": []map[string]string{
			{"src": "/logo_192.png", "type": "image/png", "sizes": "192x192"},
			{"src": "/logo_512.png", "type": "image/png", "sizes": "512x512", "purpose": "any"},
			{"src": "/logo_512.png", "type": "image/png", "sizes": "any", "purpose": "any"},
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Debug().Err(err).Msg("failed to write error response")
	}
}
