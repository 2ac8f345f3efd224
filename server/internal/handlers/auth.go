package handlers

import (
	"log"
	"net/http"

	"github.com/maynagashev/redactvault/models"
	"github.com/maynagashev/redactvault/server/internal/middleware"
	"github.com/maynagashev/redactvault/server/internal/services"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	service services.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(s services.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Register creates a reviewer account and answers 201.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[AuthHandler:Register] Bad request body: %v", err)
		http.Error(w, "Malformed request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	if err := h.service.Register(r.Context(), req.Username, req.Password); err != nil {
		writeServiceError(w, err, "AuthHandler:Register")
		return
	}

	w.WriteHeader(http.StatusCreated)
	log.Printf("[AuthHandler:Register] Registered '%s'", req.Username)
}

// Login returns an access token together with the user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[AuthHandler:Login] Bad request body: %v", err)
		http.Error(w, "Malformed request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err, "AuthHandler:Login")
		return
	}
	writeJSON(w, http.StatusOK, resp, "AuthHandler:Login")
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok || username == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.service.Me(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, "AuthHandler:Me")
		return
	}
	writeJSON(w, http.StatusOK, user, "AuthHandler:Me")
}

// Refresh exchanges a valid access token for a new one.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok || username == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	resp, err := h.service.Refresh(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, "AuthHandler:Refresh")
		return
	}
	writeJSON(w, http.StatusOK, resp, "AuthHandler:Refresh")
}
