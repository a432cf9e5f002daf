package db

import "testing"

func TestConnectRejectsUnknownDriver(t *testing.T) {
	if _, err := Connect("oracle", "dsn"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestConnectRequiresDSN(t *testing.T) {
	if _, err := Connect("postgres", " "); err == nil {
		t.Fatalf("expected dsn error")
	}
}

func TestConnectOpensSQLite(t *testing.T) {
	database, err := Connect("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer database.Close()

	var one int
	if err := database.DB.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("expected SELECT 1 to return 1, got %d err=%v", one, err)
	}
}
