package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/debridarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports library-wide item counts.
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalItems  int            `json:"total_items"`
	Pending     int            `json:"pending"`
	Downloading int            `json:"downloading"`
	Completed   int            `json:"completed"`
	Failed      int            `json:"failed"`
	Streams     int            `json:"streams"`
	Blacklisted int            `json:"blacklisted"`
	ItemsByKind map[string]int `json:"items_by_kind"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items, err := h.db.GetAllItems()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get items")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		TotalItems:  len(items),
		ItemsByKind: make(map[string]int),
	}

	for _, item := range items {
		switch item.CurrentStatus() {
		case models.StatusPending:
			response.Pending++
		case models.StatusDownloading:
			response.Downloading++
		case models.StatusCompleted:
			response.Completed++
		case models.StatusFailed:
			response.Failed++
		}

		response.ItemsByKind[string(item.Kind())]++
		response.Streams += len(item.CandidateStreams())

		for _, stream := range item.CandidateStreams() {
			if item.IsStreamBlacklisted(stream.InfoHash) {
				response.Blacklisted++
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
