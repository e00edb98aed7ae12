// Package assets provides the embedded base stylesheet for PDF printing,
// with optional filesystem overrides.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed styles/*
var styles embed.FS

// ErrStyleNotFound is returned when a named override stylesheet does not exist.
var ErrStyleNotFound = errors.New("style not found")

const baseStyleName = "print"

// BaseStylesheet returns the embedded print stylesheet. The content is
// validated at build time by the embed directive, so no error is possible.
func BaseStylesheet() string {
	content, err := styles.ReadFile("styles/" + baseStyleName + ".css")
	if err != nil {
		// Unreachable: the file is embedded.
		panic(fmt.Sprintf("embedded stylesheet missing: %v", err))
	}
	return string(content)
}

// LoadOverride reads {dir}/{name}.css from the filesystem. Returns
// ErrStyleNotFound when the file does not exist.
func LoadOverride(dir, name string) (string, error) {
	path := filepath.Join(dir, name+".css")
	content, err := os.ReadFile(path) // #nosec G304 -- caller controls override dir
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
		}
		return "", fmt.Errorf("reading stylesheet %q: %w", name, err)
	}
	return string(content), nil
}
