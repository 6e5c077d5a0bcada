package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wallet-insight/internal/adapter"
	apperrors "github.com/wallet-insight/internal/errors"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/storage"
	"github.com/wallet-insight/internal/types"
)

// RegistrationStore persists user registrations.
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByUsername(ctx context.Context, username string) (*models.Registration, error)
	List(ctx context.Context, limit, offset int) ([]*models.Registration, error)
}

// RegistrationService handles write-once user registration.
type RegistrationService struct {
	store    RegistrationStore
	adapters *adapter.Registry
	logger   *logging.Logger
}

// NewRegistrationService creates a registration service.
func NewRegistrationService(store RegistrationStore, adapters *adapter.Registry, logger *logging.Logger) *RegistrationService {
	return &RegistrationService{
		store:    store,
		adapters: adapters,
		logger:   logger.WithField("component", "registration"),
	}
}

// Register records a new username with its wallet. Re-registering an
// existing username is a conflict, never an overwrite.
func (s *RegistrationService) Register(ctx context.Context, username, walletAddress string, chain types.ChainID) (*models.Registration, error) {
	if username == "" {
		return nil, apperrors.NewInvalidParameterError("username", "must not be empty")
	}
	if walletAddress == "" {
		return nil, apperrors.NewInvalidParameterError("wallet_address", "must not be empty")
	}
	if s.adapters != nil {
		if chainAdapter := s.adapters.Get(chain); chainAdapter != nil && !chainAdapter.ValidateAddress(walletAddress) {
			return nil, apperrors.NewInvalidAddressError(walletAddress, string(chain))
		}
	}

	reg := &models.Registration{
		Username:      username,
		WalletAddress: walletAddress,
		Blockchain:    chain,
	}

	if err := s.store.Create(ctx, reg); err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("user %s is already registered", username))
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"username": username,
		"wallet":   walletAddress,
		"chain":    chain,
	}).Info("New user registered")

	return reg, nil
}

// Lookup returns a registration by username.
func (s *RegistrationService) Lookup(ctx context.Context, username string) (*models.Registration, error) {
	reg, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if reg == nil {
		return nil, apperrors.NewNotFoundError("registration", username)
	}
	return reg, nil
}

// List returns registrations in insertion order.
func (s *RegistrationService) List(ctx context.Context, limit, offset int) ([]*models.Registration, error) {
	return s.store.List(ctx, limit, offset)
}
