// Package server exposes the app core to the mobile shell over a
// local HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"roomscan/internal/app"
	"roomscan/internal/billing"
	"roomscan/internal/rooms"
	"roomscan/internal/signin"
	"roomscan/pkg/domain"
)

const maxUploadBytes = 10 << 20 // backend rejects larger images

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes HTTP endpoints for the app shell.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{app: cfg.App, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return withRequestLog(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/api/access", s.handleAccess)
	s.mux.HandleFunc("/api/scan", s.handleScan)

	s.mux.HandleFunc("/api/auth/signin", s.handleSignIn)
	s.mux.HandleFunc("/api/auth/signout", s.handleSignOut)
	s.mux.HandleFunc("/api/billing/tier", s.handleTier)
	s.mux.HandleFunc("/api/prompt/dismiss", s.handlePromptDismiss)
	s.mux.HandleFunc("/api/prompt/accept", s.handlePromptAccept)

	s.mux.HandleFunc("/api/rooms", s.handleRooms)
	s.mux.HandleFunc("/api/rooms/", s.handleRoomByID)
	s.mux.HandleFunc("/api/items", s.handleItems)
	s.mux.HandleFunc("/api/items/", s.handleItemByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.app.Access())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "image upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image field required")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read image failed")
		return
	}

	result, err := s.app.AttemptScan(r.Context(), image, header.Filename, header.Header.Get("Content-Type"))
	switch {
	case errors.Is(err, app.ErrEmptyImage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrScanServiceError):
		writeError(w, http.StatusBadGateway, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "scan failed")
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		IDToken   string `json:"idToken"`
		Cancelled bool   `json:"cancelled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Cancelled {
		req.IDToken = ""
	}
	account, err := s.app.SignIn(req.IDToken)
	switch {
	// User abandoned the provider flow: not an error, no mutation.
	case errors.Is(err, signin.ErrCancelled):
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
	case errors.Is(err, app.ErrSignInDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, app.ErrInvalidIDToken):
		writeError(w, http.StatusUnauthorized, "sign-in failed")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "sign-in failed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"user":     account,
			"decision": s.app.Access(),
		})
	}
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.app.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var change billing.TierChange
	if err := decodeJSON(r, &change); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.app.ApplyTierChange(change); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.app.Access())
}

func (s *Server) handlePromptDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.app.DismissSoftPrompt()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePromptAccept(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.app.AcceptSoftPrompt()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		listed, err := s.app.Rooms()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list rooms failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": listed})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		room, err := s.app.CreateRoom(req.Name)
		switch {
		case errors.Is(err, app.ErrNotPermitted):
			writeError(w, http.StatusForbidden, "room creation not permitted")
		case errors.Is(err, rooms.ErrEmptyName):
			writeError(w, http.StatusBadRequest, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, "create room failed")
		default:
			writeJSON(w, http.StatusCreated, room)
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRoomByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "room id required")
		return
	}

	if sub == "items" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		items, err := s.app.ItemsByRoom(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list items failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}
	if sub != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		room, err := s.app.RenameRoom(id, req.Name)
		switch {
		case errors.Is(err, rooms.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, rooms.ErrEmptyName):
			writeError(w, http.StatusBadRequest, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, "rename room failed")
		default:
			writeJSON(w, http.StatusOK, room)
		}
	case http.MethodDelete:
		err := s.app.RemoveRoom(id)
		switch {
		case errors.Is(err, rooms.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, "delete room failed")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		RoomID    string                   `json:"roomId"`
		Furniture domain.DetectedFurniture `json:"furniture"`
		Product   domain.ProductMatch      `json:"selectedProduct"`
		ImageURL  string                   `json:"imageUrl"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := s.app.SaveItem(req.RoomID, req.Furniture, req.Product, req.ImageURL)
	switch {
	case errors.Is(err, app.ErrNotPermitted):
		writeError(w, http.StatusForbidden, "saving requires sign-in")
	case errors.Is(err, rooms.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "save item failed")
	default:
		writeJSON(w, http.StatusCreated, item)
	}
}

func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/items/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "item id required")
		return
	}
	err := s.app.RemoveItem(id)
	switch {
	case errors.Is(err, rooms.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "delete item failed")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		slog.Info(
			"http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
