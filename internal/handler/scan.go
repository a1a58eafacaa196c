package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
	"github.com/nerdfunk-net/cockpit-sub000/internal/scan"
)

// ScanService defines the scan job operations the handler needs
type ScanService interface {
	Submit(req domain.ScanRequest) (string, error)
	Status(id string) (*domain.ScanStatus, error)
}

// OnboardService runs an onboarding request
type OnboardService interface {
	Dispatch(ctx context.Context, req domain.OnboardRequest) (*domain.OnboardResult, error)
}

// ScanHandler handles scan and onboarding API requests
type ScanHandler struct {
	scans   ScanService
	onboard OnboardService
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scans ScanService, onboard OnboardService) *ScanHandler {
	return &ScanHandler{scans: scans, onboard: onboard}
}

// StartScan submits a new scan job
// POST /api/scan
func (h *ScanHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req domain.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	jobID, err := h.scans.Submit(req)
	if err != nil {
		log.Printf("Scan rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"job_id": jobID}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// GetScan returns the current snapshot of a scan job
// GET /api/scan/{id}
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	status, err := h.scans.Status(id)
	if err != nil {
		if errors.Is(err, scan.ErrJobNotFound) {
			http.Error(w, "Scan job not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to get scan %s: %v", id, err)
		http.Error(w, "Failed to get scan", http.StatusInternalServerError)
		return
	}

	writeJSON(w, status)
}

// Onboard submits devices from a finished scan for onboarding
// POST /api/onboard
func (h *ScanHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req domain.OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.onboard.Dispatch(r.Context(), req)
	if err != nil {
		log.Printf("Onboarding failed: %v", err)
		if errors.Is(err, scan.ErrJobNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, result)
}
