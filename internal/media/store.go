// Package media stores avatar and poster blobs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	AvatarDir = "avatars"
	PosterDir = "posters"
)

var ErrNotFound = errors.New("media: blob not found")

// Object describes a stored blob.
type Object struct {
	Filename string
	Path     string
	Size     int64
}

// Store persists blobs under generated names.
type Store interface {
	Save(ctx context.Context, dir, originalName string, r io.Reader) (Object, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// LocalStore keeps blobs on the local filesystem below root.
type LocalStore struct {
	root string
}

// NewLocalStore creates root and its avatar/poster subdirectories.
func NewLocalStore(root string) (*LocalStore, error) {
	for _, dir := range []string{AvatarDir, PosterDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create media dir %s: %w", dir, err)
		}
	}
	return &LocalStore{root: root}, nil
}

// GenerateName returns a collision-free file name that keeps the original base name.
func GenerateName(originalName string) string {
	base := filepath.Base(strings.TrimSpace(originalName))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." || base == string(filepath.Separator) {
		return uuid.NewString()
	}
	return uuid.NewString() + "_" + base
}

func (s *LocalStore) Save(ctx context.Context, dir, originalName string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	name := GenerateName(originalName)
	path := filepath.Join(s.root, dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create %s: %w", name, err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return Object{}, fmt.Errorf("write %s: %w", name, err)
	}

	return Object{Filename: name, Path: path, Size: size}, nil
}

func (s *LocalStore) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	return data, err
}

// Delete removes the blob at path. A missing blob is not an error.
func (s *LocalStore) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
