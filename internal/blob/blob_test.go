package blob

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	key := ObjectKey(DocumentsPrefix, now, "Bag Scan.PDF")
	assert.Regexp(t, regexp.MustCompile(`^claims/documents/2024/03/[0-9a-f-]{36}\.pdf$`), key)

	key = ObjectKey(VouchersPrefix, now, "voucher")
	assert.Regexp(t, regexp.MustCompile(`^claims/vouchers/2024/03/[0-9a-f-]{36}$`), key)

	assert.NotEqual(t, ObjectKey(DocumentsPrefix, now, "a.pdf"), ObjectKey(DocumentsPrefix, now, "a.pdf"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("x.pdf"))
	assert.Equal(t, "image/jpeg", ContentType("x.JPG"))
	assert.Equal(t, "image/jpeg", ContentType("x.jpeg"))
	assert.Equal(t, "image/png", ContentType("x.png"))
	assert.Equal(t, "application/octet-stream", ContentType("x.exe"))
}

func TestStoreConstructorsValidateConfig(t *testing.T) {
	_, err := NewMinIOStore(MinIOConfig{})
	assert.Error(t, err)

	_, err = NewMinIOStore(MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err, "bucket is required")

	s, err := NewMinIOStore(MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "dms"})
	assert.NoError(t, err)
	assert.NotNil(t, s)
}
