package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/repository"
)

// LogFilter selects history entries. Zero bounds are open.
type LogFilter struct {
	From time.Time // inclusive
	To   time.Time // inclusive
	Type string    // "", BOOT, NETWORK, COMMAND, STATUS, INDICATOR, OTA, CREDENTIALS
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

func utcOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeFilter converts bounds to UTC, upper-cases the type and checks
// the range.
func normalizeFilter(f LogFilter) (LogFilter, error) {
	out := LogFilter{
		From: utcOrZero(f.From),
		To:   utcOrZero(f.To),
		Type: strings.ToUpper(strings.TrimSpace(f.Type)),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	nf, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nf.From, nf.To, nf.Type)
}
