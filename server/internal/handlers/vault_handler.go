package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maynagashev/redactvault/models"
	"github.com/maynagashev/redactvault/server/internal/middleware"
	"github.com/maynagashev/redactvault/server/internal/services"
)

// VaultHandler serves the vault entry endpoints.
type VaultHandler struct {
	vaultService services.VaultService
}

// NewVaultHandler creates a VaultHandler.
func NewVaultHandler(vs services.VaultService) *VaultHandler {
	return &VaultHandler{vaultService: vs}
}

// List handles GET /vault/entries?page=&page_size=.
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		http.Error(w, "page must be an integer", http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		http.Error(w, "page_size must be an integer", http.StatusBadRequest)
		return
	}

	result, err := h.vaultService.List(r.Context(), page, pageSize)
	if err != nil {
		writeServiceError(w, err, "VaultHandler:List")
		return
	}
	writeJSON(w, http.StatusOK, result, "VaultHandler:List")
}

// Get handles GET /vault/entries/{id}.
func (h *VaultHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.vaultService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "VaultHandler:Get")
		return
	}
	writeJSON(w, http.StatusOK, entry, "VaultHandler:Get")
}

// Create handles POST /vault/entries from the redaction pipeline.
func (h *VaultHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[VaultHandler:Create] Bad request body: %v", err)
		http.Error(w, "Malformed request", http.StatusBadRequest)
		return
	}

	entry, err := h.vaultService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "VaultHandler:Create")
		return
	}
	writeJSON(w, http.StatusCreated, entry, "VaultHandler:Create")
}

// Archive handles POST /vault/entries/{id}/archive.
func (h *VaultHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.vaultService.Archive(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "VaultHandler:Archive")
		return
	}
	writeJSON(w, http.StatusOK, entry, "VaultHandler:Archive")
}

// Feedback handles POST /vault/entries/{id}/feedback.
func (h *VaultHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[VaultHandler:Feedback] Bad request body: %v", err)
		http.Error(w, "Malformed request", http.StatusBadRequest)
		return
	}

	entry, err := h.vaultService.SubmitFeedback(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, "VaultHandler:Feedback")
		return
	}
	writeJSON(w, http.StatusOK, entry, "VaultHandler:Feedback")
}

// Revert handles POST /vault/entries/{id}/revert.
func (h *VaultHandler) Revert(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[VaultHandler:Revert] No user id in context")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	entry, err := h.vaultService.Revert(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "VaultHandler:Revert")
		return
	}
	writeJSON(w, http.StatusOK, entry, "VaultHandler:Revert")
}

// Stats handles GET /vault/stats.
func (h *VaultHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vaultService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "VaultHandler:Stats")
		return
	}
	writeJSON(w, http.StatusOK, stats, "VaultHandler:Stats")
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt returns 0 for an absent parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
