package fs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/sokinpui/docsync/model"
)

// PathResolver turns configured artifact paths into absolute paths.
type PathResolver struct {
	root string
}

// NewPathResolver creates a resolver rooted at root, or at the current
// working directory when root is empty.
func NewPathResolver(root string) (*PathResolver, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		return &PathResolver{root: wd}, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory '%s': %w", root, err)
	}
	return &PathResolver{root: abs}, nil
}

// Root returns the absolute root directory.
func (r *PathResolver) Root() string {
	return r.root
}

// Resolve joins relative paths onto the root. Absolute paths are returned
// cleaned.
func (r *PathResolver) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.root, path)
}

// Rel makes an absolute path relative to the root for display, falling back
// to the path itself.
func (r *PathResolver) Rel(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return rel
}

// ReadDocument reads the whole file at path.
func ReadDocument(path string) (model.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return model.ParseDocument(string(content)), nil
}

// newFileMode is applied to files WriteDocument creates. Existing files keep
// their mode.
const newFileMode = 0644

// WriteDocument replaces the file at path with content. The new content is
// written to a temporary file and renamed over the target.
func WriteDocument(path, content string) error {
	created := !Exists(path)
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(content))); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if created {
		if err := os.Chmod(path, newFileMode); err != nil {
			return fmt.Errorf("failed to set mode of %s: %w", path, err)
		}
	}
	return nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetFileSHA256 returns the hex SHA-256 of the file at path.
func GetFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SHA256 returns the hex SHA-256 of content.
func SHA256(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
