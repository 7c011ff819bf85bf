// Package blob хранит файлы заявок в объектном хранилище и выдаёт на них
// временные ссылки.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"insurance-dms/internal/validation"
)

const (
	DocumentsPrefix = "claims/documents"
	VouchersPrefix  = "claims/vouchers"
)

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// ObjectKey строит ключ "<prefix>/YYYY/MM/<uuid>.<ext>" для файла.
func ObjectKey(prefix string, now time.Time, filename string) string {
	key := fmt.Sprintf("%s/%04d/%02d/%s", prefix, now.Year(), int(now.Month()), uuid.NewString())
	if ext := validation.FileExtension(filename); ext != "" {
		key += "." + ext
	}
	return key
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// ContentType определяет тип содержимого по расширению.
func ContentType(filename string) string {
	if ct, ok := contentTypes[validation.FileExtension(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}
