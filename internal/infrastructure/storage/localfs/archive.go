package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Archive keeps the raw bytes of every accepted upload on disk so a
// replaced dataset can be audited or re-ingested later. Keys may contain
// slashes; each segment is sanitized before it touches the filesystem.
type Archive struct {
	basePath string
}

func New(basePath string) (*Archive, error) {
	if basePath == "" {
		basePath = "./data/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archive{basePath: basePath}, nil
}

func (a *Archive) Save(_ context.Context, key string, data io.Reader) error {
	path, err := a.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive subdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}

func (a *Archive) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := a.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	return f, nil
}

func (a *Archive) resolve(key string) (string, error) {
	parts := strings.Split(key, "/")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		part = sanitizeSegment(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	if len(clean) == 0 {
		return "", fmt.Errorf("archive key %q is empty after sanitizing", key)
	}
	return filepath.Join(append([]string{a.basePath}, clean...)...), nil
}

func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "." || segment == ".." {
		return ""
	}
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
