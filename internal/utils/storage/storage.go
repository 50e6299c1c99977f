package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"leaflens/domain"
)

var AllowImage = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// ImageStore keeps uploaded images under flat object keys such as
// "<uuid>.png".
type ImageStore interface {
	UploadFile(ctx context.Context, objectKey string, data []byte) error
	DeleteFile(ctx context.Context, objectKey string) error
	FileExists(ctx context.Context, objectKey string) (bool, error)
	GetPublicLinkKey(objectKey string) string
	GetObjectKeyFromLink(link string) string
}

// ImageExtension returns the lower-cased extension of filename, without the
// dot, when it is an accepted image type.
func ImageExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowImage {
		if ext == allowed {
			return strings.TrimPrefix(ext, "."), nil
		}
	}
	return "", domain.ErrInvalidImageFormat
}

func ObjectKey(prefix, id, ext string) string {
	return fmt.Sprintf("%s%s.%s", prefix, id, ext)
}

// DeleteByID removes the first stored image named prefix+id with an accepted
// extension. It reports whether a file was found.
func DeleteByID(ctx context.Context, store ImageStore, prefix, id string) (bool, error) {
	for _, ext := range AllowImage {
		key := ObjectKey(prefix, id, strings.TrimPrefix(ext, "."))
		exists, err := store.FileExists(ctx, key)
		if err != nil {
			return false, err
		}
		if !exists {
			continue
		}
		if err := store.DeleteFile(ctx, key); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ReadUpload loads a multipart file into memory.
func ReadUpload(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func ContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

func validKey(objectKey string) error {
	if objectKey == "" || filepath.Base(objectKey) != objectKey || strings.HasPrefix(objectKey, ".") {
		return fmt.Errorf("invalid object key %q: %w", objectKey, domain.ErrInvalidInput)
	}
	return nil
}
