package waitlist

import (
	"context"
	"strings"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/notify"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
)

//go:generate mockgen -destination=mock_notifier_test.go -package=waitlist github.com/akeren/waitlist-api/internal/notify Notifier

type WaitlistService interface {
	// CreateEntry persists the signup, then starts notifications without waiting on them.
	CreateEntry(ctx context.Context, req *CreateWaitlistEntryRequest) (*WaitlistEntryResponse, error)

	// FindEntryByID returns a NOT_FOUND AppError when the entry does not exist.
	FindEntryByID(ctx context.Context, id string) (*WaitlistEntryResponse, error)

	// GetAllEntries returns entries newest first.
	GetAllEntries(ctx context.Context) ([]WaitlistEntryResponse, error)

	// DeleteEntry returns a NOT_FOUND AppError when the entry does not exist.
	DeleteEntry(ctx context.Context, id string) error
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	notifier   notify.Notifier
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, notifier notify.Notifier) WaitlistService {
	return &waitlistService{logger: logger, repository: repository, notifier: notifier}
}

func (s *waitlistService) CreateEntry(ctx context.Context, req *CreateWaitlistEntryRequest) (*WaitlistEntryResponse, error) {
	logger := log.FromContext(ctx, s.logger)

	if req == nil || strings.TrimSpace(req.Email) == "" {
		logger.Warn("Signup rejected before persistence: email missing")
		return nil, apperrors.NewInvalidRequestError("email is required", nil)
	}

	entry, err := s.repository.CreateEntry(ctx, ToWaitlistEntryModel(req))
	if err != nil {
		logger.Error("Failed to create waitlist entry", "error", err)
		return nil, err
	}

	logger.Info("Waitlist entry created", "id", entry.ID)

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, entry)
	}

	response := ToWaitlistEntryResponse(entry)
	return &response, nil
}

func (s *waitlistService) FindEntryByID(ctx context.Context, id string) (*WaitlistEntryResponse, error) {
	logger := log.FromContext(ctx, s.logger)

	if err := requireID(id); err != nil {
		logger.Warn("Lookup rejected", "error", err)
		return nil, err
	}

	entry, err := s.repository.FindEntryByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logger.Info("Waitlist entry not found", "id", id)
		} else {
			logger.Error("Failed to find waitlist entry", "id", id, "error", err)
		}
		return nil, err
	}

	response := ToWaitlistEntryResponse(entry)
	return &response, nil
}

func (s *waitlistService) GetAllEntries(ctx context.Context) ([]WaitlistEntryResponse, error) {
	logger := log.FromContext(ctx, s.logger)

	entries, err := s.repository.GetAllEntries(ctx)
	if err != nil {
		logger.Error("Failed to get all waitlist entries", "error", err)
		return nil, err
	}

	responses := make([]WaitlistEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = ToWaitlistEntryResponse(entry)
	}
	return responses, nil
}

func (s *waitlistService) DeleteEntry(ctx context.Context, id string) error {
	logger := log.FromContext(ctx, s.logger)

	if err := requireID(id); err != nil {
		logger.Warn("Delete rejected", "error", err)
		return err
	}

	if err := s.repository.DeleteEntry(ctx, id); err != nil {
		logger.Error("Failed to delete waitlist entry", "id", id, "error", err)
		return err
	}

	logger.Info("Waitlist entry deleted", "id", id)
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewInvalidRequestError("invalid entry ID", nil)
	}
	return nil
}
