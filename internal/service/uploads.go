package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"contentBackend/internal/store"
)

// Uploads writes uploaded files into a directory and returns the path the
// client uses to fetch them. No record of an upload is kept.
type Uploads struct {
	dir       string
	urlPrefix string
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// NewUploads creates dir if needed.
func NewUploads(dir, urlPrefix string, logger *slog.Logger) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create uploads dir: %v", store.ErrIO, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploads{
		dir:       dir,
		urlPrefix: urlPrefix,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger,
	}, nil
}

// Dir is the directory uploads are written to.
func (u *Uploads) Dir() string { return u.dir }

// Store writes payload as "<unix millis>-<original base name>" and returns
// urlPrefix + that name. Only the base name of originalName is used and
// control characters are dropped; when nothing usable remains, or the name
// is already taken, a UUID stands in.
func (u *Uploads) Store(_ context.Context, payload io.Reader, originalName string) (string, error) {
	if payload == nil {
		return "", ErrNoPayload
	}
	base := cleanName(originalName)
	if base == "" {
		base = u.newID()
	}
	name := fmt.Sprintf("%d-%s", u.now().UnixMilli(), base)
	f, err := os.OpenFile(filepath.Join(u.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		name = u.newID() + "-" + base
		f, err = os.OpenFile(filepath.Join(u.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("%w: create upload: %v", store.ErrIO, err)
	}

	n, err := io.Copy(f, payload)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write upload: %v", store.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: close upload: %v", store.ErrIO, err)
	}
	u.logger.Info("upload stored", "file", name, "bytes", n)
	return u.urlPrefix + name, nil
}

// cleanName reduces a client-supplied file name to a safe base name.
func cleanName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}
