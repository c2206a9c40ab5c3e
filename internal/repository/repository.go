package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wifi_provisioner/internal/models"
)

// ErrStorageUnavailable is returned by every operation of a store whose
// backing database could not be opened at boot.
var ErrStorageUnavailable = errors.New("storage unavailable")

type CredentialRepo interface {
	Save(ctx context.Context, c models.Credentials) error
	Load(ctx context.Context) (models.Credentials, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

type Repository struct {
	CredentialRepo CredentialRepo
	EventRepo      EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		CredentialRepo: NewCredentialSQLite(db),
		EventRepo:      NewEventSQLite(db),
	}
}

// NewUnavailableRepository is used when storage failed to mount; the device
// keeps serving in a degraded mode.
func NewUnavailableRepository() *Repository {
	u := unavailable{}
	return &Repository{CredentialRepo: u, EventRepo: u}
}

type unavailable struct{}

func (unavailable) Save(context.Context, models.Credentials) error { return ErrStorageUnavailable }

func (unavailable) Load(context.Context) (models.Credentials, error) {
	return models.Credentials{}, ErrStorageUnavailable
}

func (unavailable) Append(context.Context, models.DeviceEvent) error { return ErrStorageUnavailable }

func (unavailable) List(context.Context, time.Time, time.Time, string) ([]models.DeviceEvent, error) {
	return nil, ErrStorageUnavailable
}
