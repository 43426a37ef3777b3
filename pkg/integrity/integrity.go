// Package integrity computes and checks subresource-integrity style digests
// ("sha512-<base64>") for downloaded archives.
package integrity

import (
	"crypto/sha1" //nolint:gosec // accepted for reading legacy lockfiles only
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/glorpus-work/playsync/pkg/errors"
)

// Supported algorithms.
const (
	SHA1   = "sha1"
	SHA256 = "sha256"
	SHA384 = "sha384"
	SHA512 = "sha512"

	// DefaultAlgorithm is used when computing new digests.
	DefaultAlgorithm = SHA512
)

// strength orders algorithms; only the strongest one present in an
// integrity string is used for checking.
var strength = map[string]int{
	SHA1:   1,
	SHA256: 2,
	SHA384: 3,
	SHA512: 4,
}

// Hash is one algorithm/digest pair.
type Hash struct {
	Algorithm string
	Digest    string // base64, standard encoding
}

// String renders the hash in SRI form.
func (h Hash) String() string {
	return h.Algorithm + "-" + h.Digest
}

// Integrity is a parsed integrity string. It may carry several hashes.
type Integrity []Hash

// String renders all hashes separated by a single space.
func (i Integrity) String() string {
	parts := make([]string, len(i))
	for n, h := range i {
		parts[n] = h.String()
	}
	return strings.Join(parts, " ")
}

// Strongest returns the hashes that use the strongest algorithm present.
func (i Integrity) Strongest() Integrity {
	best := 0
	for _, h := range i {
		best = max(best, strength[h.Algorithm])
	}
	var out Integrity
	for _, h := range i {
		if strength[h.Algorithm] == best {
			out = append(out, h)
		}
	}
	return out
}

// Supported reports whether algo is a known algorithm name.
func Supported(algo string) bool {
	_, ok := strength[algo]
	return ok
}

// Parse parses whitespace separated SRI tokens. Tokens with unknown
// algorithms are skipped; options after "?" are ignored.
func Parse(s string) (Integrity, error) {
	var out Integrity
	for _, token := range strings.Fields(s) {
		if idx := strings.IndexByte(token, '?'); idx >= 0 {
			token = token[:idx]
		}
		algo, digest, ok := strings.Cut(token, "-")
		if !ok || digest == "" || !Supported(algo) {
			continue
		}
		if _, err := base64.StdEncoding.DecodeString(digest); err != nil {
			continue
		}
		out = append(out, Hash{Algorithm: algo, Digest: digest})
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(errors.ErrConfig, "no usable hash in integrity value %q", s)
	}
	return out, nil
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case SHA1:
		return sha1.New(), nil //nolint:gosec
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, errors.Wrapf(errors.ErrConfig, "unsupported integrity algorithm %q", algo)
	}
}

// FromReader hashes everything read from r with algo.
func FromReader(r io.Reader, algo string) (Hash, error) {
	h, err := newHash(algo)
	if err != nil {
		return Hash{}, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return Hash{}, errors.Wrap(fmt.Errorf("%w: %w", errors.ErrIO, err), "hashing")
	}
	return Hash{Algorithm: algo, Digest: base64.StdEncoding.EncodeToString(h.Sum(nil))}, nil
}

// FromFile hashes the file at path with algo.
func FromFile(path, algo string) (Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hash{}, fmt.Errorf("open %s for hashing: %w: %w", path, errors.ErrIO, err)
	}
	defer func() { _ = f.Close() }()
	return FromReader(f, algo)
}

// Check reads r and compares it against the strongest hash in expected.
// It returns ErrIntegrity on mismatch.
func Check(r io.Reader, expected string) error {
	want, err := Parse(expected)
	if err != nil {
		return err
	}
	want = want.Strongest()
	got, err := FromReader(r, want[0].Algorithm)
	if err != nil {
		return err
	}
	for _, h := range want {
		if subtle.ConstantTimeCompare([]byte(h.Digest), []byte(got.Digest)) == 1 {
			return nil
		}
	}
	return fmt.Errorf("%w: expected %s, got %s", errors.ErrIntegrity, want, got)
}

// CheckFile is Check for a file on disk.
func CheckFile(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s for verification: %w: %w", path, errors.ErrIO, err)
	}
	defer func() { _ = f.Close() }()
	return Check(f, expected)
}
