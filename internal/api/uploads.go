package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// maxUploadSize caps multipart form memory and attached image size.
const maxUploadSize = 32 << 20

// saveUploadedFile stores a multipart file field under dir as
// {prefix}{ext}, keeping only the extension of the client filename.
// Returns empty strings when the field is absent.
func saveUploadedFile(r *http.Request, field, dir, prefix string) (path, originalName string, err error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", "", nil
		}
		return "", "", fmt.Errorf("reading upload %q: %w", field, err)
	}
	defer file.Close()

	originalName = filepath.Base(header.Filename)
	if originalName == "" || originalName == "." {
		return "", "", nil
	}
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".png"
	}

	path = filepath.Join(dir, prefix+ext)
	dst, err := os.Create(path) // #nosec G304 -- dir comes from the store, name is fixed
	if err != nil {
		return "", "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxUploadSize)); err != nil {
		return "", "", fmt.Errorf("writing upload file: %w", err)
	}
	return path, originalName, nil
}
