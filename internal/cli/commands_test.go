package cli

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eisenvault/evshare/internal/config"
	"github.com/eisenvault/evshare/internal/dmstest"
	"github.com/eisenvault/evshare/internal/models"
)

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	AddCommands(root)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// loggedIn writes srv's credentials into a temporary shared store and
// returns the global flags pointing at it.
func loggedIn(t *testing.T, srv *dmstest.Server) []string {
	t.Helper()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "shared")
	creds := srv.Credentials()
	require.NoError(t, config.NewSharedStore(storePath).SaveCredentials(config.CredentialValues{
		BaseURL:          creds.BaseURL,
		AuthToken:        creds.AuthToken,
		InstanceType:     creds.InstanceType.String(),
		CustomerHostname: creds.CustomerHostname,
	}))
	return []string{"--shared-store", storePath, "--config", filepath.Join(dir, "config")}
}

func TestCommandsRegistered(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	for _, name := range []string{"login", "logout", "browse", "share", "folders", "last-upload", "config"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, name, cmd.Name())
		require.NotEmpty(t, cmd.Short, name)
	}
}

func TestFoldersList(t *testing.T) {
	srv := dmstest.NewClassic(t)
	flags := loggedIn(t, srv)

	out, _, err := runCLI(t, append([]string{"folders", "list"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Finance")
	require.Contains(t, out, "Legacy")

	// Without a site name the library keeps its folderId
	out, _, err = runCLI(t, append([]string{"folders", "list", "--folder-id", "finance", "--folder-kind", "site"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "documentLibrary")
	require.NotContains(t, out, "finance - Documents")
	require.Contains(t, out, "container")

	out, _, err = runCLI(t, append([]string{"folders", "list", "--folder-id", "finance", "--folder-kind", "site", "--folder-name", "Finance"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Finance - Documents")
}

func TestFolderFromFlags(t *testing.T) {
	node := folderFromFlags("finance", "site", "")
	require.Equal(t, models.FolderNode{ID: "finance", Kind: models.KindSite}, node)
	require.Equal(t, "finance", displayName(node))

	node = folderFromFlags("42", "folder", "Invoices")
	require.Equal(t, "Invoices", displayName(node))
}

func TestFoldersCreate(t *testing.T) {
	srv := dmstest.NewAngora(t)
	flags := loggedIn(t, srv)

	out, _, err := runCLI(t, append([]string{"folders", "create", "--name", "Q3", "--parent-id", "c1"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Folder created successfully")
	require.Contains(t, srv.ChildNames("c1"), "Q3")

	_, _, err = runCLI(t, append([]string{"folders", "create", "--name", "Q3", "--parent-id", "c1"}, flags...)...)
	require.Error(t, err)
	require.Contains(t, err.Error(), "A folder with this name already exists")
}

func TestNotLoggedIn(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, "folders", "list", "--shared-store", filepath.Join(dir, "shared"), "--config", filepath.Join(dir, "config"))
	require.ErrorIs(t, err, config.ErrNotLoggedIn)
}

func TestShareAndLastUpload(t *testing.T) {
	srv := dmstest.NewClassic(t)
	flags := loggedIn(t, srv)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("beta"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".hidden"), []byte("x"), 0644))

	args := append([]string{"share", src, "--folder-id", "inv", "--folder-name", "Invoices"}, flags...)
	_, stderr, err := runCLI(t, args...)
	require.NoError(t, err)
	require.Contains(t, stderr, "Upload successful! 2 file(s) uploaded.")

	uploads := srv.Uploads()
	require.Len(t, uploads, 2)
	require.Equal(t, "a.txt", uploads[0].Name)
	require.Equal(t, "b.txt", uploads[1].Name)

	out, _, err := runCLI(t, append([]string{"last-upload"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Folder:   Invoices (inv)")
	require.Contains(t, out, "Files:    2")
	require.Contains(t, out, "Status:   completed")

	// The summary is consumed
	out, _, err = runCLI(t, append([]string{"last-upload"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "No upload recorded")
}

func TestShareFailureExitsWithError(t *testing.T) {
	srv := dmstest.NewClassic(t)
	flags := loggedIn(t, srv)

	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("alpha"), 0644))

	_, stderr, err := runCLI(t, append([]string{"share", file, "--folder-id", "missing"}, flags...)...)
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 1 file(s) failed")
	require.Contains(t, stderr, "Parent node not found")
}

func TestShareRequiresInput(t *testing.T) {
	_, _, err := runCLI(t, "share")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nothing to share")
}

func TestLoginAndLogout(t *testing.T) {
	srv := dmstest.NewAngora(t)
	dir := t.TempDir()
	storePath := filepath.Join(dir, "shared")
	flags := []string{"--shared-store", storePath, "--config", filepath.Join(dir, "config")}

	args := append([]string{"login", "--url", srv.URL + "/", "--instance", "angora",
		"--token", dmstest.DefaultToken, "--customer-hostname", "acme.example.com"}, flags...)
	out, _, err := runCLI(t, args...)
	require.NoError(t, err)
	require.Contains(t, out, "Logged in to "+srv.URL+" (angora)")

	creds, err := config.NewSharedStore(storePath).LoadCredentials()
	require.NoError(t, err)
	require.Equal(t, srv.URL, creds.BaseURL)
	require.Equal(t, dmstest.DefaultToken, creds.AuthToken)

	_, _, err = runCLI(t, append([]string{"logout"}, flags...)...)
	require.NoError(t, err)
	_, err = config.NewSharedStore(storePath).LoadCredentials()
	require.ErrorIs(t, err, config.ErrNotLoggedIn)
}

func TestLoginRejectedToken(t *testing.T) {
	srv := dmstest.NewClassic(t)
	dir := t.TempDir()
	storePath := filepath.Join(dir, "shared")

	_, _, err := runCLI(t, "login", "--url", srv.URL, "--username", "jdoe", "--password", "wrong",
		"--shared-store", storePath, "--config", filepath.Join(dir, "config"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "log in again")

	_, err = os.Stat(storePath)
	require.True(t, os.IsNotExist(err), "nothing saved for rejected credentials")
}

func TestBasicToken(t *testing.T) {
	require.Equal(t, "Basic dGVzdDp0ZXN0", basicToken("test", "test"))
}

func TestPromptConfig(t *testing.T) {
	cfg := config.NewConfig()
	input := strings.Join([]string{
		"basic",      // proxy mode
		"proxy.corp", // host
		"3128",       // port
		"svc",        // user
		"4",          // max concurrent
		"",           // keep permission check
		"true",       // notify
		"debug",      // log level
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, promptConfig(bufio.NewReader(strings.NewReader(input)), &out, cfg))
	require.Equal(t, "basic", cfg.ProxyMode)
	require.Equal(t, "proxy.corp", cfg.ProxyHost)
	require.Equal(t, 3128, cfg.ProxyPort)
	require.Equal(t, "svc", cfg.ProxyUser)
	require.Equal(t, 4, cfg.MaxConcurrent)
	require.True(t, cfg.CheckCreatePermission)
	require.True(t, cfg.Notify)
	require.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestPromptConfigRejectsBadNumber(t *testing.T) {
	input := "no-proxy\nmany\n"
	err := promptConfig(bufio.NewReader(strings.NewReader(input)), &bytes.Buffer{}, config.NewConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a number")
}
