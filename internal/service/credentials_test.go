package service

import (
	"context"
	"errors"
	"testing"

	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/repository"
)

func TestCredentialService_Save(t *testing.T) {
	repo := &memCredRepo{}
	svc := NewCredentialService(repo, nil)

	if err := svc.Save(context.Background(), models.Credentials{Secret: "x"}); !errors.Is(err, ErrSSIDRequired) {
		t.Fatalf("empty ssid: err = %v", err)
	}
	if repo.saves != 0 {
		t.Fatal("empty ssid reached the store")
	}

	want := models.Credentials{NetworkName: "cafe", Secret: ""}
	if err := svc.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := svc.Load(context.Background()); got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}

	repo.saveErr = repository.ErrStorageUnavailable
	err := svc.Save(context.Background(), models.Credentials{NetworkName: "other"})
	if !errors.Is(err, repository.ErrStorageUnavailable) {
		t.Fatalf("store fault not wrapped: %v", err)
	}
}

func TestCredentialService_LoadFaultIsEmpty(t *testing.T) {
	repo := &memCredRepo{
		saved:   models.Credentials{NetworkName: "stale"},
		loadErr: errors.New("corrupt"),
	}
	if got := NewCredentialService(repo, nil).Load(context.Background()); !got.IsEmpty() {
		t.Fatalf("Load on fault = %+v, want empty", got)
	}
}
