package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/client"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
)

type CredentialService interface {
	// Resolve returns the merchant's access token and location id, lazily
	// resolving and caching the location on first use.
	Resolve(ctx context.Context, merchantID string) (*model.MerchantCredential, error)
	Upsert(ctx context.Context, cred *model.MerchantCredential) error
}

type credentialServiceImpl struct {
	credRepo     repository.CredentialRepository
	squareClient client.SquareClient
}

func NewCredentialService(credRepo repository.CredentialRepository, squareClient client.SquareClient) CredentialService {
	return &credentialServiceImpl{
		credRepo:     credRepo,
		squareClient: squareClient,
	}
}

func (s *credentialServiceImpl) Resolve(ctx context.Context, merchantID string) (*model.MerchantCredential, error) {
	cred, err := s.credRepo.Get(ctx, merchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeCredentialsNotFound, "no provider account for merchant")
		}
		return nil, fmt.Errorf("get merchant credential: %w", err)
	}

	if cred.LocationID != "" {
		return cred, nil
	}

	if cred.POSType == "clover" {
		// Clover merchant ids are provisioned with the token; nothing to
		// discover.
		return nil, apperr.New(apperr.CodeCredentialsNotFound, "merchant has no location configured")
	}

	locations, err := s.squareClient.ListLocations(ctx, cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("list merchant locations: %w", err)
	}

	// Provisional tie-break: first active location. Multi-location merchants
	// are not disambiguated further.
	var locationID string
	for _, loc := range locations {
		if loc.Status == "ACTIVE" {
			locationID = loc.ID
			break
		}
	}
	if locationID == "" {
		return nil, apperr.New(apperr.CodeCredentialsNotFound, "merchant has no active location")
	}

	if err := s.credRepo.CacheLocation(ctx, merchantID, locationID); err != nil {
		return nil, fmt.Errorf("cache merchant location: %w", err)
	}

	cred.LocationID = locationID
	return cred, nil
}

func (s *credentialServiceImpl) Upsert(ctx context.Context, cred *model.MerchantCredential) error {
	return s.credRepo.Upsert(ctx, cred)
}
