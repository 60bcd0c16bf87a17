// Package hashx computes content digests and derives blob storage pointers
// from them. A storage pointer is a relative path of the form
//
//	aa/bb/<digest>_<rand8>_<sanitized-name>
//
// where aa and bb are the first two and next two hex characters of the
// digest. The two-level fan-out bounds directory sizes; the random suffix
// keeps every accepted upload at its own pointer so each file version can be
// deleted independently, without blob reference counting. Deduplication of
// identical content happens above this layer, in the registry.
package hashx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/psemenov/filebox/internal/shared"
)

// chunkSize is the read buffer used when digesting streams. Inputs of any
// size are supported without buffering the whole content in memory.
const chunkSize = 32 * 1024

// DigestCopy streams src into dst while computing its SHA-256 digest.
// It returns the 64-character lowercase hex digest and the number of bytes
// copied.
func DigestCopy(dst io.Writer, src io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.CopyBuffer(io.MultiWriter(dst, h), src, make([]byte, chunkSize))
	if err != nil {
		return "", 0, fmt.Errorf("digest copy: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Digest computes the SHA-256 digest of src without retaining the bytes.
func Digest(src io.Reader) (string, int64, error) {
	return DigestCopy(io.Discard, src)
}

// SanitizeName reduces a client-supplied file name to a safe path component:
// the base name with path separators and control characters replaced.
// An empty or fully-unsafe name becomes "unnamed".
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	s := strings.Trim(b.String(), "._")
	if s == "" {
		return "unnamed"
	}
	return s
}

// StoragePointer derives a new unique blob pointer for content with the
// given digest and original file name. Two calls with identical arguments
// return distinct pointers.
func StoragePointer(digest, originalName string) (string, error) {
	if len(digest) != 64 || strings.ToLower(digest) != digest {
		return "", fmt.Errorf("invalid digest %q", digest)
	}
	for _, r := range digest {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", fmt.Errorf("invalid digest %q", digest)
		}
	}

	suffix, err := shared.MakeRandHexString(4)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s", digest, suffix, SanitizeName(originalName))
	return path.Join(digest[:2], digest[2:4], name), nil
}
