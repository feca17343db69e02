package factory

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDBFactoryNewConn(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}

	mock.ExpectPing()

	f := NewDBFactoryWithOpener(func() (*sql.DB, error) {
		return db, nil
	})

	c, err := f.NewConn()
	if err != nil {
		t.Fatalf("NewConn returned error: %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil connection")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDBFactoryNewConnPingFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}

	mock.ExpectPing().WillReturnError(errors.New("database is down"))
	mock.ExpectClose()

	f := NewDBFactoryWithOpener(func() (*sql.DB, error) {
		return db, nil
	})

	if _, err := f.NewConn(); err == nil {
		t.Fatal("expected error when ping fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDBFactoryOpenFails(t *testing.T) {
	f := NewDBFactoryWithOpener(func() (*sql.DB, error) {
		return nil, errors.New("bad dsn")
	})

	if _, err := f.NewConn(); err == nil {
		t.Fatal("expected error when open fails")
	}
}

func TestDBConnTestConn(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	c := &DBConn{db: db, pingTimeout: time.Second}

	mock.ExpectPing()
	if !c.TestConn() {
		t.Error("expected healthy connection while ping succeeds")
	}

	mock.ExpectPing().WillReturnError(errors.New("database is down"))
	if c.TestConn() {
		t.Error("expected unhealthy connection when ping fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
