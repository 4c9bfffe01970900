package waitlist

import (
	"strings"

	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/constants"
)

// CreateWaitlistEntryRequest is the POST /waitlist body. Only email is validated; id and
// createdAt are not accepted from callers.
type CreateWaitlistEntryRequest struct {
	Email        string   `json:"email" binding:"required,email,max=255"`
	WaitListCode string   `json:"waitListCode"`
	Preferences  []string `json:"preferences"`
}

type WaitlistEntryResponse struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	WaitListCode string   `json:"waitListCode"`
	Preferences  []string `json:"preferences"`
	CreatedAt    string   `json:"createdAt"`
}

// StatusResponse is the DELETE /waitlist/:id body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryModel(req *CreateWaitlistEntryRequest) *models.WaitlistEntry {
	if req == nil {
		return nil
	}

	preferences := make([]string, 0, len(req.Preferences))
	preferences = append(preferences, req.Preferences...)

	return &models.WaitlistEntry{
		Email:        strings.TrimSpace(req.Email),
		WaitListCode: req.WaitListCode,
		Preferences:  preferences,
	}
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{Preferences: []string{}}
	}

	preferences := entry.Preferences
	if preferences == nil {
		preferences = []string{}
	}

	return WaitlistEntryResponse{
		ID:           entry.ID,
		Email:        entry.Email,
		WaitListCode: entry.WaitListCode,
		Preferences:  preferences,
		CreatedAt:    entry.CreatedAt.UTC().Format(constants.RFC3339MilliDateTimeFormat),
	}
}
