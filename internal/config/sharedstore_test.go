package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eisenvault/evshare/internal/models"
)

func TestSharedStoreNotLoggedIn(t *testing.T) {
	store := NewSharedStore(filepath.Join(t.TempDir(), "shared"))

	_, err := store.LoadCredentials()
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn on empty store, got %v", err)
	}
}

func TestSharedStoreSaveAndLoadCredentials(t *testing.T) {
	store := NewSharedStore(filepath.Join(t.TempDir(), "shared"))

	err := store.SaveCredentials(CredentialValues{
		BaseURL:          "https://dms.example.com/",
		AuthToken:        "Basic dXNlcjpwYXNz",
		InstanceType:     "Angora",
		CustomerHostname: "acme.example.com",
	})
	if err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	creds, err := store.LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.BaseURL != "https://dms.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", creds.BaseURL)
	}
	if creds.AuthToken != "Basic dXNlcjpwYXNz" {
		t.Errorf("token mismatch: %s", creds.AuthToken)
	}
	if creds.InstanceType != models.InstanceAngora {
		t.Errorf("expected angora instance, got %s", creds.InstanceType)
	}
	if creds.CustomerHostname != "acme.example.com" {
		t.Errorf("hostname mismatch: %s", creds.CustomerHostname)
	}
}

// TestSharedStorePartialSave verifies that empty fields keep the stored values,
// so a token refresh does not erase the base URL.
func TestSharedStorePartialSave(t *testing.T) {
	store := NewSharedStore(filepath.Join(t.TempDir(), "shared"))

	if err := store.SaveCredentials(CredentialValues{BaseURL: "https://a", AuthToken: "t1", InstanceType: "classic"}); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}
	if err := store.SaveCredentials(CredentialValues{AuthToken: "t2"}); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	creds, err := store.LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.BaseURL != "https://a" || creds.AuthToken != "t2" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestSharedStoreUnknownInstanceType(t *testing.T) {
	store := NewSharedStore(filepath.Join(t.TempDir(), "shared"))
	if err := store.SaveCredentials(CredentialValues{BaseURL: "https://a", AuthToken: "t", InstanceType: "sharepoint"}); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	_, err := store.LoadCredentials()
	if err == nil || errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected instance type parse error, got %v", err)
	}
}

func TestSharedStoreClearCredentials(t *testing.T) {
	store := NewSharedStore(filepath.Join(t.TempDir(), "shared"))
	if err := store.SaveCredentials(CredentialValues{BaseURL: "https://a", AuthToken: "t", InstanceType: "classic"}); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}
	if err := store.SaveUploadSummary(models.UploadSummary{Folder: "Invoices", FileCount: 1}); err != nil {
		t.Fatalf("SaveUploadSummary failed: %v", err)
	}

	if err := store.ClearCredentials(); err != nil {
		t.Fatalf("ClearCredentials failed: %v", err)
	}

	if _, err := store.LoadCredentials(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after clear, got %v", err)
	}

	// The summary section is independent of the credentials
	summary, err := store.TakeUploadSummary()
	if err != nil {
		t.Fatalf("TakeUploadSummary failed: %v", err)
	}
	if summary == nil || summary.Folder != "Invoices" {
		t.Errorf("summary should survive credential clear, got %+v", summary)
	}
}

// TestSharedStoreUploadSummary verifies the summary is readable once and then cleared.
func TestSharedStoreUploadSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared")
	store := NewSharedStore(path)

	want := models.UploadSummary{
		Folder:    "Invoices",
		FolderID:  "6f1c-42",
		FileCount: 3,
		Timestamp: 1760779200.5,
		Status:    "completed",
	}
	if err := store.SaveUploadSummary(want); err != nil {
		t.Fatalf("SaveUploadSummary failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read store: %v", err)
	}
	if !containsAll(string(data), "[UploadData]", "folderId", "fileCount") {
		t.Errorf("unexpected store contents:\n%s", data)
	}

	got, err := store.TakeUploadSummary()
	if err != nil {
		t.Fatalf("TakeUploadSummary failed: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("TakeUploadSummary = %+v, want %+v", got, want)
	}

	again, err := store.TakeUploadSummary()
	if err != nil {
		t.Fatalf("second TakeUploadSummary failed: %v", err)
	}
	if again != nil {
		t.Errorf("summary should be cleared after take, got %+v", again)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(CredentialValues{BaseURL: "https://a", AuthToken: "t", InstanceType: "classic"})

	creds, err := store.LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.InstanceType != models.InstanceClassic {
		t.Errorf("expected classic, got %s", creds.InstanceType)
	}

	if _, err := NewMemoryStore(CredentialValues{BaseURL: "https://a"}).LoadCredentials(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn for incomplete store, got %v", err)
	}

	if err := store.SaveUploadSummary(models.UploadSummary{Folder: "X", FileCount: 2}); err != nil {
		t.Fatalf("SaveUploadSummary failed: %v", err)
	}
	summary, _ := store.TakeUploadSummary()
	if summary == nil || summary.FileCount != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary, _ := store.TakeUploadSummary(); summary != nil {
		t.Error("summary should be cleared after take")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
