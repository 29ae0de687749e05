package storage

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "storage.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Area("https://example.com").Get("securityMode")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected missing key to report ok=false")
	}
}

func TestSetThenGet(t *testing.T) {
	s := openTestStore(t)
	area := s.Area("https://example.com")

	if err := area.Set("securityMode", "development"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := area.Set("securityMode", "production"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	v, ok, err := area.Get("securityMode")
	if err != nil || !ok {
		t.Fatalf("expected stored value, got ok=%v err=%v", ok, err)
	}
	if v != "production" {
		t.Errorf("expected production, got %s", v)
	}
}

func TestAreasAreOriginScoped(t *testing.T) {
	s := openTestStore(t)

	if err := s.Area("https://a.example").Set("securityMode", "development"); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Area("https://b.example").Get("securityMode")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("value leaked across origins")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Area("null").Set("securityMode", "development"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	v, ok, err := s.Area("null").Get("securityMode")
	if err != nil || !ok || v != "development" {
		t.Errorf("expected development after reopen, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestRemove(t *testing.T) {
	s := openTestStore(t)
	area := s.Area("null")
	area.Set("securityMode", "production")

	if err := area.Remove("securityMode"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := area.Get("securityMode"); ok {
		t.Error("expected key to be removed")
	}
	if err := area.Remove("securityMode"); err != nil {
		t.Errorf("removing absent key should not fail: %v", err)
	}
}

func TestInvalidKeyRejected(t *testing.T) {
	s := openTestStore(t)
	if err := s.Area("null").Set("../escape", "x"); err == nil {
		t.Error("expected invalid key to be rejected")
	}
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"https://Example.com/path?q=1", "https://example.com"},
		{"http://localhost:8080/", "http://localhost:8080"},
		{"file:///home/user/index.html", "null"},
		{"", "null"},
		{"::not a url", "null"},
	}
	for _, tt := range tests {
		if got := OriginOf(tt.location); got != tt.want {
			t.Errorf("OriginOf(%q) = %q, want %q", tt.location, got, tt.want)
		}
	}
}
