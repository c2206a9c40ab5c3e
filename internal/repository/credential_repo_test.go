package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCredentialSQLite_Save_WritesBothKeysInOneStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewCredentialSQLite(db)

	isUTCRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO preferences")).
		WithArgs(
			"wifi", "ssid", "Office", isUTCRecent,
			"wifi", "pass", "hunter2", isUTCRecent,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.Save(context.Background(), models.Credentials{NetworkName: "Office", Secret: "hunter2"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialSQLite_Save_ExecErrorIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewCredentialSQLite(db)
	cause := errors.New("disk full")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO preferences")).
		WillReturnError(cause)

	err = repo.Save(context.Background(), models.Credentials{NetworkName: "Office"})
	if !errors.Is(err, cause) {
		t.Fatalf("Save() want wrapped %v, got %v", cause, err)
	}
	if !strings.Contains(err.Error(), "save credentials") {
		t.Fatalf("Save() error lacks context: %v", err)
	}
}

func TestCredentialSQLite_Load(t *testing.T) {
	cases := []struct {
		name    string
		rows    *sqlmock.Rows
		qErr    error
		want    models.Credentials
		wantErr bool
	}{
		{
			name: "both keys",
			rows: sqlmock.NewRows([]string{"key", "value"}).
				AddRow("ssid", "Office").
				AddRow("pass", "hunter2"),
			want: models.Credentials{NetworkName: "Office", Secret: "hunter2"},
		},
		{
			name: "nothing stored",
			rows: sqlmock.NewRows([]string{"key", "value"}),
			want: models.Credentials{},
		},
		{
			name: "open network without pass",
			rows: sqlmock.NewRows([]string{"key", "value"}).
				AddRow("ssid", "Cafe"),
			want: models.Credentials{NetworkName: "Cafe"},
		},
		{
			name: "unknown keys ignored",
			rows: sqlmock.NewRows([]string{"key", "value"}).
				AddRow("ssid", "Office").
				AddRow("hostname", "esp32"),
			want: models.Credentials{NetworkName: "Office"},
		},
		{
			name:    "query error",
			qErr:    errors.New("io error"),
			wantErr: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New(): %v", err)
			}
			defer func() { _ = db.Close() }()

			exp := mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value FROM preferences")).WithArgs("wifi")
			if tc.qErr != nil {
				exp.WillReturnError(tc.qErr)
			} else {
				exp.WillReturnRows(tc.rows)
			}

			got, err := repository.NewCredentialSQLite(db).Load(context.Background())
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Load() = %+v, want %+v", got, tc.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
