package sqlconnect

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestConnectDB_RequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := ConnectDB(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for range schema {
		mock.ExpectExec(regexp.QuoteMeta("CREATE")).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	if err := EnsureSchema(t.Context(), db); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureSchema_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_settings").WillReturnError(errors.New("permission denied"))
	if err := EnsureSchema(t.Context(), db); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
