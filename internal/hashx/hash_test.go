package hashx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestCopy(t *testing.T) {
	// sha256("hello world")
	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	var buf bytes.Buffer
	digest, n, err := DigestCopy(&buf, strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, want, digest)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "hello world", buf.String())
}

func TestDigestCopy_LargeInput(t *testing.T) {
	// Larger than one read chunk so the streaming path is exercised.
	data := bytes.Repeat([]byte("x"), 100*1024)

	digest, n, err := Digest(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Len(t, digest, 64)

	again, _, err := Digest(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, digest, again)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\boot.ini", "boot.ini"},
		{"with spaces & stuff.txt", "with_spaces___stuff.txt"},
		{"", "unnamed"},
		{"...", "unnamed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "input %q", tt.in)
	}
}

func TestStoragePointer(t *testing.T) {
	digest, _, err := Digest(strings.NewReader("content"))
	require.NoError(t, err)

	p1, err := StoragePointer(digest, "a.txt")
	require.NoError(t, err)
	p2, err := StoragePointer(digest, "a.txt")
	require.NoError(t, err)

	// fan-out prefix from the digest
	assert.True(t, strings.HasPrefix(p1, digest[:2]+"/"+digest[2:4]+"/"), p1)
	// random suffix keeps pointers unique even for identical content
	assert.NotEqual(t, p1, p2)
	assert.NotContains(t, p1, "..")
}

func TestStoragePointer_RejectsBadDigest(t *testing.T) {
	_, err := StoragePointer("short", "a.txt")
	assert.Error(t, err)

	_, err = StoragePointer(strings.Repeat("Z", 64), "a.txt")
	assert.Error(t, err)

	_, err = StoragePointer(strings.Repeat("../", 21)+"x", "a.txt")
	assert.Error(t, err)
}
