package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"storefront/entity"
	"storefront/pkg/logger"
	"storefront/repository"
)

// ErrContactNotFound is returned for unknown verified contact ids
var ErrContactNotFound = errors.New("verified contact not found")

// ContactService interface defines verified contact read operations
type ContactService interface {
	GetByID(ctx context.Context, id int) (*entity.ContactResponse, error)
	GetList(ctx context.Context, page, pageSize int, search string) (*entity.ContactsListResponse, error)
}

// contactService implements ContactService interface
type contactService struct {
	contactRepo repository.ContactRepository
	logger      *logger.Logger
}

// NewContactService creates a new contact service instance
func NewContactService(contactRepo repository.ContactRepository, logger *logger.Logger) ContactService {
	return &contactService{
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// GetByID retrieves a verified contact by ID
func (s *contactService) GetByID(ctx context.Context, id int) (*entity.ContactResponse, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Errorw("Failed to get verified contact by ID", "contact_id", id, "error", err)
		return nil, fmt.Errorf("failed to get verified contact: %w", err)
	}

	if contact == nil {
		return nil, ErrContactNotFound
	}

	return toContactResponse(contact), nil
}

// GetList retrieves paginated list of verified contacts with optional search
func (s *contactService) GetList(ctx context.Context, page, pageSize int, search string) (*entity.ContactsListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	contacts, total, err := s.contactRepo.List(ctx, page, pageSize, search)
	if err != nil {
		s.logger.Errorw("Failed to get verified contacts list", "page", page, "page_size", pageSize, "search", search, "error", err)
		return nil, fmt.Errorf("failed to get verified contacts list: %w", err)
	}

	responses := make([]entity.ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = *toContactResponse(&contacts[i])
	}

	return &entity.ContactsListResponse{
		Contacts:   responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func toContactResponse(c *entity.VerifiedContact) *entity.ContactResponse {
	return &entity.ContactResponse{
		ID:             c.ID,
		Contact:        c.Contact,
		Method:         c.Method,
		VerifiedAt:     c.VerifiedAt,
		LastVerifiedAt: c.LastVerifiedAt,
		VerifyCount:    c.VerifyCount,
	}
}
