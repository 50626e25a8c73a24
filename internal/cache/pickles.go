package cache

import (
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/flatsurf/flatsurvey/internal/canonical"
)

// ErrUnknownPickle is returned when no provider holds the requested
// pickle.
var ErrUnknownPickle = errors.New("unknown pickle")

// Provider looks up externalized pickle blobs by digest.
type Provider interface {
	// Unpickle returns the raw pickle bytes stored under the digest, or
	// an error wrapping ErrUnknownPickle.
	Unpickle(digest string) ([]byte, error)
}

// Pickles resolves pickle digests through an ordered list of providers.
type Pickles struct {
	providers []Provider
}

func NewPickles(providers ...Provider) *Pickles {
	return &Pickles{providers: providers}
}

// Unpickle asks each provider in order and returns the first hit.
func (p *Pickles) Unpickle(digest string) ([]byte, error) {
	for _, provider := range p.providers {
		blob, err := provider.Unpickle(digest)
		if errors.Is(err, ErrUnknownPickle) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return blob, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPickle, digest)
}

// DirectoryProvider serves pickles from a directory of gzip compressed
// side files, one file per pickle, named <digest>.pickle.gz and holding
// the base64 text of the blob.
type DirectoryProvider struct {
	Dir string
}

func (d DirectoryProvider) Unpickle(digest string) ([]byte, error) {
	f, err := os.Open(sideFile(d.Dir, digest))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPickle, digest)
	}
	if err != nil {
		return nil, fmt.Errorf("pickle %s: %w", digest, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("pickle %s: %w", digest, err)
	}
	defer gz.Close()

	encoded, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("pickle %s: %w", digest, err)
	}
	blob, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("pickle %s: %w", digest, err)
	}
	return blob, nil
}

// StaticProvider serves a single in-memory pickle, mostly used in tests.
type StaticProvider struct {
	digest string
	blob   []byte
}

func NewStaticProvider(blob []byte) StaticProvider {
	return StaticProvider{digest: canonical.Hash(canonical.DomainPickle, blob), blob: blob}
}

func (s StaticProvider) Unpickle(digest string) ([]byte, error) {
	if digest != s.digest {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPickle, digest)
	}
	return s.blob, nil
}

// writePickle stores the base64 text of a pickle under its digest and
// returns the digest.
func writePickle(dir string, blob []byte) (string, error) {
	digest := canonical.Hash(canonical.DomainPickle, blob)

	f, err := os.Create(sideFile(dir, digest))
	if err != nil {
		return "", fmt.Errorf("externalize pickle: %w", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(base64.StdEncoding.EncodeToString(blob))); err != nil {
		f.Close()
		return "", fmt.Errorf("externalize pickle: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("externalize pickle: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("externalize pickle: %w", err)
	}
	return digest, nil
}

func sideFile(dir, digest string) string {
	return filepath.Join(dir, digest+".pickle.gz")
}
