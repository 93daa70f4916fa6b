package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/config"
	"github.com/eisenvault/evshare/internal/core"
	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
)

// logFile is the rotating log sink attached by loadConfig, if any.
var logFile io.Closer

// loadConfig loads the config file named by --config (or the default path)
// and applies its logging settings. Flags win over the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if !verbose && !debug && cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logging.SetGlobalLevel(level)
	}
	if cfg.LogFile != "" && logFile == nil {
		logFile = GetLogger().AttachFile(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
	}
	return cfg, nil
}

// openStore returns the shared credential store named by --shared-store.
func openStore() *config.SharedStore {
	return config.NewSharedStore(sharedStorePath)
}

// openSession loads config and credentials and connects to the DMS.
func openSession() (*core.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.NeedsProxyPassword() {
		password, err := promptPassword(fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = password
	}

	session, err := core.NewSession(cfg, openStore(), GetLogger())
	if err != nil {
		return nil, displayError(err)
	}
	return session, nil
}

// folderFromFlags builds a node from --folder-id style flags. The name stays
// empty when not given; Classic derives container names from it.
func folderFromFlags(id, kind, name string) models.FolderNode {
	return models.FolderNode{ID: id, Name: name, Kind: models.ParseNodeKind(kind)}
}

// displayName returns the node name, or its id when the name is unknown.
func displayName(n models.FolderNode) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// displayError converts err into the message shown to the user.
func displayError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, config.ErrNotLoggedIn) {
		return err
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return errors.New(api.UserMessage(err))
	}
	return err
}
