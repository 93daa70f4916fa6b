// evshare - share files from the desktop into an EisenVault repository.
//
// It reuses the login of the EisenVault host application through the shared
// store, lets the user pick a destination folder and uploads the selection.
//
// Build with: go build -ldflags "-X github.com/eisenvault/evshare/internal/version.Version=vX.Y.Z"
package main

import (
	"os"

	"github.com/eisenvault/evshare/internal/cli"
	"github.com/eisenvault/evshare/internal/version"
)

func main() {
	// internal/version is the single source of truth
	cli.Version = version.Version
	cli.BuildTime = version.BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
