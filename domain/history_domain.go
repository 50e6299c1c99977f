package domain

import (
	"fmt"
)

var (
	MessageSuccessSaveHistory   = "history saved successfully"
	MessageSuccessGetHistory    = "history retrieved successfully"
	MessageSuccessDeleteHistory = "history entry deleted successfully"
	MessageSuccessClearHistory  = "history cleared successfully"

	MessageFailedSaveHistory   = "failed to save history"
	MessageFailedGetHistory    = "failed to retrieve history"
	MessageFailedDeleteHistory = "failed to delete history entry"
	MessageFailedClearHistory  = "failed to clear history"

	ErrHistoryNotFound      = fmt.Errorf("history %w", ErrNotFound)
	ErrHistoryEntryNotFound = fmt.Errorf("history entry %w", ErrNotFound)
	ErrInvalidHistoryID     = fmt.Errorf("history entry id must be a UUID: %w", ErrInvalidInput)
)

// HistoryTimeLayout is the ISO-8601 layout used for entry timestamps.
const HistoryTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type (
	HistoryEntry struct {
		ID         string    `json:"id"`
		PlantName  string    `json:"plantName"`
		Confidence float64   `json:"confidence"`
		Info       PlantInfo `json:"info"`
		Audio      string    `json:"tts,omitempty"`
		ImageURL   string    `json:"imageUrl,omitempty"`
		Language   string    `json:"language,omitempty"`
		Timestamp  string    `json:"timestamp,omitempty"`
	}

	SaveHistoryRequest struct {
		ID         string    `json:"id" validate:"omitempty,uuid"`
		PlantName  string    `json:"plantName" validate:"required"`
		Confidence float64   `json:"confidence" validate:"gte=0,lte=1"`
		Info       PlantInfo `json:"info"`
		Audio      string    `json:"tts"`
		ImageURL   string    `json:"imageUrl"`
		Language   string    `json:"language" validate:"omitempty,max=10"`
		Timestamp  string    `json:"timestamp"`
	}

	HistoryResponse struct {
		History []HistoryEntry `json:"history"`
	}
)

func (r SaveHistoryRequest) Entry() HistoryEntry {
	return HistoryEntry{
		ID:         r.ID,
		PlantName:  r.PlantName,
		Confidence: r.Confidence,
		Info:       r.Info,
		Audio:      r.Audio,
		ImageURL:   r.ImageURL,
		Language:   r.Language,
		Timestamp:  r.Timestamp,
	}
}
