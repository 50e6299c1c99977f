package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type localStorage struct {
	dir       string
	publicURL string
}

// NewLocalStorage stores images under dir; they are served at
// publicURL + "/uploads/<key>".
func NewLocalStorage(dir, publicURL string) (ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localStorage{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *localStorage) UploadFile(ctx context.Context, objectKey string, data []byte) error {
	if err := validKey(objectKey); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, objectKey))
}

func (s *localStorage) DeleteFile(_ context.Context, objectKey string) error {
	if err := validKey(objectKey); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, objectKey))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *localStorage) FileExists(_ context.Context, objectKey string) (bool, error) {
	if err := validKey(objectKey); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, objectKey))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (s *localStorage) GetPublicLinkKey(objectKey string) string {
	return s.publicURL + "/uploads/" + url.PathEscape(objectKey)
}

func (s *localStorage) GetObjectKeyFromLink(link string) string {
	if link == "" {
		return ""
	}
	if u, err := url.Parse(link); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(link)
}
