package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/ini.v1"

	"github.com/eisenvault/evshare/internal/models"
)

// Shared store keys. The names match what the host application writes.
const (
	KeyBaseURL          = "DMSBaseUrl"
	KeyAuthToken        = "DMSAuthToken"
	KeyInstanceType     = "DMSInstanceType"
	KeyCustomerHostname = "DMSCustomerHostname"

	credentialsSection = "AppGroup"
	summarySection     = "UploadData"
)

// ErrNotLoggedIn is returned when the shared store lacks the base URL,
// token or instance type. The user has to log in through the host app.
var ErrNotLoggedIn = errors.New("not logged in: open EisenVault and log in first")

// CredentialProvider supplies the credentials of the logged-in user.
type CredentialProvider interface {
	LoadCredentials() (*models.Credentials, error)
}

// CredentialValues are the raw fields the host application saves after login.
// Empty fields are left untouched in the store.
type CredentialValues struct {
	BaseURL          string
	AuthToken        string
	InstanceType     string
	CustomerHostname string
}

// SharedStore is the file-backed key-value store shared between the host
// application and share sessions.
//
// INI format:
//
//	[AppGroup]
//	DMSBaseUrl = https://dms.example.com
//	DMSAuthToken = Basic dXNlcjpwYXNz
//	DMSInstanceType = classic
//	DMSCustomerHostname = acme.example.com
//
//	[UploadData]
//	folder = Invoices
//	folderId = 6f1c...
//	fileCount = 3
//	timestamp = 1760779200.5
//	status = completed
type SharedStore struct {
	path string
	mu   sync.Mutex
}

// NewSharedStore returns a store backed by path (DefaultSharedStorePath when empty).
func NewSharedStore(path string) *SharedStore {
	if path == "" {
		path = DefaultSharedStorePath()
	}
	return &SharedStore{path: path}
}

// Path returns the backing file path.
func (s *SharedStore) Path() string {
	return s.path
}

// load reads the backing file; a missing file is an empty store.
func (s *SharedStore) load() (*ini.File, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return ini.Empty(), nil
	}
	f, err := ini.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load shared store: %w", err)
	}
	return f, nil
}

// LoadCredentials implements CredentialProvider.
func (s *SharedStore) LoadCredentials() (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, key := range f.Section(credentialsSection).Keys() {
		values[key.Name()] = key.String()
	}
	return ParseCredentials(values)
}

// SaveCredentials stores the non-empty fields of v.
func (s *SharedStore) SaveCredentials(v CredentialValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}

	section := f.Section(credentialsSection)
	for key, value := range v.fields() {
		if value != "" {
			section.Key(key).SetValue(value)
		}
	}
	return saveINIAtomic(f, s.path)
}

// ClearCredentials removes all credential keys.
func (s *SharedStore) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.DeleteSection(credentialsSection)
	return saveINIAtomic(f, s.path)
}

// SaveUploadSummary records the last fully successful batch.
func (s *SharedStore) SaveUploadSummary(summary models.UploadSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}

	f.DeleteSection(summarySection)
	section, err := f.NewSection(summarySection)
	if err != nil {
		return fmt.Errorf("failed to create %s section: %w", summarySection, err)
	}
	section.Key("folder").SetValue(summary.Folder)
	section.Key("folderId").SetValue(summary.FolderID)
	section.Key("fileCount").SetValue(strconv.Itoa(summary.FileCount))
	section.Key("timestamp").SetValue(strconv.FormatFloat(summary.Timestamp, 'f', -1, 64))
	section.Key("status").SetValue(summary.Status)

	return saveINIAtomic(f, s.path)
}

// TakeUploadSummary returns the stored summary and removes it, the way the
// host application consumes it. Returns nil when there is none.
func (s *SharedStore) TakeUploadSummary() (*models.UploadSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	if !f.HasSection(summarySection) {
		return nil, nil
	}

	section := f.Section(summarySection)
	summary := &models.UploadSummary{
		Folder:    section.Key("folder").String(),
		FolderID:  section.Key("folderId").String(),
		FileCount: section.Key("fileCount").MustInt(0),
		Timestamp: section.Key("timestamp").MustFloat64(0),
		Status:    section.Key("status").String(),
	}

	f.DeleteSection(summarySection)
	if err := saveINIAtomic(f, s.path); err != nil {
		return nil, err
	}
	return summary, nil
}

func (v CredentialValues) fields() map[string]string {
	return map[string]string{
		KeyBaseURL:          strings.TrimSpace(v.BaseURL),
		KeyAuthToken:        strings.TrimSpace(v.AuthToken),
		KeyInstanceType:     strings.TrimSpace(v.InstanceType),
		KeyCustomerHostname: strings.TrimSpace(v.CustomerHostname),
	}
}

// ParseCredentials builds Credentials from raw store values.
func ParseCredentials(values map[string]string) (*models.Credentials, error) {
	baseURL := strings.TrimSpace(values[KeyBaseURL])
	token := strings.TrimSpace(values[KeyAuthToken])
	instance := strings.TrimSpace(values[KeyInstanceType])

	if baseURL == "" || token == "" || instance == "" {
		return nil, ErrNotLoggedIn
	}

	instanceType, err := models.ParseInstanceType(instance)
	if err != nil {
		return nil, err
	}

	return &models.Credentials{
		BaseURL:          strings.TrimSuffix(baseURL, "/"),
		AuthToken:        token,
		InstanceType:     instanceType,
		CustomerHostname: strings.TrimSpace(values[KeyCustomerHostname]),
	}, nil
}

// MemoryStore is an in-process store with the same behavior as SharedStore,
// for shells that already hold the values and for tests.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	summary *models.UploadSummary
}

// NewMemoryStore returns a store seeded with v.
func NewMemoryStore(v CredentialValues) *MemoryStore {
	m := &MemoryStore{values: make(map[string]string)}
	for key, value := range v.fields() {
		if value != "" {
			m.values[key] = value
		}
	}
	return m
}

// LoadCredentials implements CredentialProvider.
func (m *MemoryStore) LoadCredentials() (*models.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ParseCredentials(m.values)
}

// SaveUploadSummary records the last fully successful batch.
func (m *MemoryStore) SaveUploadSummary(summary models.UploadSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = &summary
	return nil
}

// TakeUploadSummary returns and clears the stored summary.
func (m *MemoryStore) TakeUploadSummary() (*models.UploadSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.summary
	m.summary = nil
	return s, nil
}
