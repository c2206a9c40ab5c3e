package service

import (
	"context"
	"errors"
	"fmt"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/repository"
)

var ErrSSIDRequired = errors.New("SSID required")

type CredentialService struct {
	repo repository.CredentialRepo
	log  *logger.Logger
}

func NewCredentialService(repo repository.CredentialRepo, log *logger.Logger) *CredentialService {
	if log == nil {
		log = logger.Nop()
	}
	return &CredentialService{repo: repo, log: log}
}

// Load returns the saved credentials. A read fault is logged and reported
// as "nothing saved" so the device falls back to the portal.
func (s *CredentialService) Load(ctx context.Context) models.Credentials {
	c, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Errorw("credentials_load_failed", "error", err)
		return models.Credentials{}
	}
	return c
}

// Save replaces both fields. The caller restarts the device on success.
func (s *CredentialService) Save(ctx context.Context, c models.Credentials) error {
	if c.IsEmpty() {
		return ErrSSIDRequired
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	s.log.Infow("credentials_saved", "ssid", c.NetworkName)
	return nil
}
