package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eisenvault/evshare/internal/config"
	"github.com/eisenvault/evshare/internal/dmstest"
	"github.com/eisenvault/evshare/internal/events"
	"github.com/eisenvault/evshare/internal/models"
)

func storeFor(srv *dmstest.Server) *config.MemoryStore {
	creds := srv.Credentials()
	return config.NewMemoryStore(config.CredentialValues{
		BaseURL:          creds.BaseURL,
		AuthToken:        creds.AuthToken,
		InstanceType:     creds.InstanceType.String(),
		CustomerHostname: creds.CustomerHostname,
	})
}

func TestNewSessionNotLoggedIn(t *testing.T) {
	_, err := NewSession(nil, config.NewMemoryStore(config.CredentialValues{}), nil)
	require.True(t, errors.Is(err, config.ErrNotLoggedIn))
}

func TestNewSessionBadInstanceType(t *testing.T) {
	store := config.NewMemoryStore(config.CredentialValues{
		BaseURL:      "https://dms.example.com",
		AuthToken:    "Basic abc",
		InstanceType: "sharepoint",
	})
	_, err := NewSession(nil, store, nil)
	require.Error(t, err)
}

// TestSessionShareFlow browses to a folder, creates a subfolder, uploads into
// it and checks the summary left for the host application.
func TestSessionShareFlow(t *testing.T) {
	srv := dmstest.NewClassic(t)
	store := storeFor(srv)

	s, err := NewSession(nil, store, nil)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, models.InstanceClassic, s.Backend().Variant())

	ctx := context.Background()
	nav := s.Navigator()
	require.NoError(t, nav.Load(ctx))
	require.NoError(t, nav.Into(ctx, nav.State().Listing[0]))
	require.NoError(t, nav.Into(ctx, nav.State().Listing[0]))

	folder, err := s.CreateFolder(ctx, "Shared")
	require.NoError(t, err)
	require.NoError(t, nav.SelectDestination(*folder))

	batch := models.NewShareBatch(
		models.ShareItem{Payload: models.BytesPayload{Data: []byte("one")}, SuggestedName: "one.txt"},
		models.ShareItem{Payload: models.BytesPayload{Data: []byte("two")}, SuggestedName: "two.txt"},
	)
	res, _, err := s.Upload(ctx, batch, nil)
	require.NoError(t, err)
	require.True(t, res.OK())
	require.ElementsMatch(t, []string{"one.txt", "two.txt"}, srv.ChildNames(folder.ID))

	summary, err := store.TakeUploadSummary()
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Equal(t, "Shared", summary.Folder)
	require.Equal(t, folder.ID, summary.FolderID)
	require.Equal(t, 2, summary.FileCount)
}

func TestSessionUploadWithoutSelection(t *testing.T) {
	srv := dmstest.NewAngora(t)
	s, err := NewSession(nil, storeFor(srv), nil)
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.Upload(context.Background(), models.NewShareBatch(models.ShareItem{Payload: models.BytesPayload{}}), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no destination selected")
	require.Equal(t, 0, srv.RequestCount())
}

func TestSessionCloseClosesSubscribers(t *testing.T) {
	srv := dmstest.NewClassic(t)
	s, err := NewSession(nil, storeFor(srv), nil)
	require.NoError(t, err)

	ch := s.Events().Subscribe(events.EventNavigation)
	s.Close()
	s.Close()

	_, ok := <-ch
	require.False(t, ok)
}
