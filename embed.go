package main

import (
	"embed"
	"io/fs"

	"github.com/pkg/errors"
)

//go:embed frontend
var frontendFiles embed.FS

// dashboardFS returns the dashboard assets rooted at the "frontend" directory.
func dashboardFS() (fs.FS, error) {
	sub, err := fs.Sub(frontendFiles, "frontend")
	return sub, errors.Wrap(err, "dashboard assets")
}
