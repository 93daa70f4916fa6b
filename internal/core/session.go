// Package core wires a share session together: stored credentials, the HTTP
// client, the DMS backend, the navigator and the upload orchestrator.
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/config"
	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/events"
	internalhttp "github.com/eisenvault/evshare/internal/http"
	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
	"github.com/eisenvault/evshare/internal/navigator"
	"github.com/eisenvault/evshare/internal/upload"
)

// Session is one share session: browse, pick a destination, upload.
type Session struct {
	config    *config.Config
	creds     *models.Credentials
	logger    *logging.Logger
	eventBus  *events.EventBus
	backend   api.Backend
	navigator *navigator.Navigator
	summary   upload.SummaryStore

	closeOnce sync.Once
}

// NewSession loads credentials from store and connects a backend. It fails
// with config.ErrNotLoggedIn when the host app has not saved a login. If
// store also implements upload.SummaryStore, fully successful batches are
// recorded there.
func NewSession(cfg *config.Config, store config.CredentialProvider, logger *logging.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	creds, err := store.LoadCredentials()
	if err != nil {
		return nil, err
	}

	httpClient, err := internalhttp.NewClient(cfg, logger, creds.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	backend, err := api.NewBackend(creds, httpClient, logger)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	s := &Session{
		config:    cfg,
		creds:     creds,
		logger:    logger,
		eventBus:  bus,
		backend:   backend,
		navigator: navigator.New(backend, bus, logger),
	}
	if summary, ok := store.(upload.SummaryStore); ok {
		s.summary = summary
	}

	logger.Debug().
		Str("instance", creds.InstanceType.String()).
		Str("base_url", creds.BaseURL).
		Msg("Session ready")
	return s, nil
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config {
	return s.config
}

// Credentials returns the credentials the session was opened with.
func (s *Session) Credentials() *models.Credentials {
	return s.creds
}

// Events returns the session event bus.
func (s *Session) Events() *events.EventBus {
	return s.eventBus
}

// Backend returns the DMS backend.
func (s *Session) Backend() api.Backend {
	return s.backend
}

// Navigator returns the folder navigator.
func (s *Session) Navigator() *navigator.Navigator {
	return s.navigator
}

// CreateFolder creates name in the navigator's current folder.
func (s *Session) CreateFolder(ctx context.Context, name string) (*models.FolderNode, error) {
	return s.navigator.CreateFolder(ctx, name, navigator.CreateOptions{
		CheckPermission: s.config.CheckCreatePermission,
		Logger:          s.logger,
	})
}

// Upload uploads batch into the navigator's selected destination.
func (s *Session) Upload(ctx context.Context, batch models.ShareBatch, progress upload.ProgressFunc) (models.BatchUploadResult, []models.UploadResult, error) {
	return s.UploadTo(ctx, batch, s.navigator.State().Selected, progress)
}

// UploadTo uploads batch into dest.
func (s *Session) UploadTo(ctx context.Context, batch models.ShareBatch, dest *models.FolderNode, progress upload.ProgressFunc) (models.BatchUploadResult, []models.UploadResult, error) {
	orch := upload.NewOrchestrator(s.backend, upload.Options{
		MaxConcurrent: s.config.MaxConcurrent,
		Summary:       s.summary,
		Progress:      progress,
		Bus:           s.eventBus,
		Logger:        s.logger,
	})
	return orch.Upload(ctx, batch, dest)
}

// Close releases the event bus. Subscribers see their channels closed.
func (s *Session) Close() {
	s.closeOnce.Do(s.eventBus.Close)
}
