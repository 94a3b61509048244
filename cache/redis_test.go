package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestRedisStore_GetEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store := NewRedisStoreFromClient(db, 0, "test:")
	key := Key{Kind: KindSegments, TargetLang: "es_ES", Hostname: "example.com"}

	mock.ExpectHGetAll("test:segments:es_ES:example.com").SetVal(map[string]string{
		"Hello": "Hola",
	})

	entry, err := store.GetEntry(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if entry["Hello"] != "Hola" {
		t.Errorf("Unexpected entry: %v", entry)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_GetEntry_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store := NewRedisStoreFromClient(db, 0, "test:")
	key := Key{Kind: KindSegments, TargetLang: "es_ES", Hostname: "example.com"}

	mock.ExpectHGetAll("test:segments:es_ES:example.com").SetVal(map[string]string{})

	entry, err := store.GetEntry(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if len(entry) != 0 {
		t.Errorf("Expected empty entry, got %v", entry)
	}
}

func TestRedisStore_PutEntries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store := NewRedisStoreFromClient(db, time.Hour, "test:")
	key := Key{Kind: KindPathnames, TargetLang: "es_ES", Hostname: "example.com"}

	fullKey := "test:pathnames:es_ES:example.com"
	mock.ExpectHSet(fullKey, "/about", "/acerca-de").SetVal(1)
	mock.ExpectExpire(fullKey, time.Hour).SetVal(true)

	err := store.PutEntries(context.Background(), key, map[string]string{"/about": "/acerca-de"})
	if err != nil {
		t.Fatal(err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_PutEntries_EmptyIsNoop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store := NewRedisStoreFromClient(db, 0, "test:")
	key := Key{Kind: KindSegments, TargetLang: "es_ES", Hostname: "example.com"}

	if err := store.PutEntries(context.Background(), key, nil); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_KeyLowercasesHostname(t *testing.T) {
	key := Key{Kind: KindSegments, TargetLang: "es_ES", Hostname: "Example.COM"}
	if key.String() != "segments:es_ES:example.com" {
		t.Errorf("Unexpected key: %q", key.String())
	}
}
