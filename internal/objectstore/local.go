// Package objectstore implements the graph.ObjectStore (OS) port: the
// blob sink snapshot export writes to. LocalStore is the filesystem
// fallback for when no object-store bucket is configured; S3Store is the
// production binding (see s3.go).
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// LocalStore writes snapshot blobs under a base directory on the local
// filesystem. Default driver when no bucket is configured.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a file-based object store. If basePath is empty
// it defaults to "~/.graphd/snapshots".
func NewLocalStore(basePath string) *LocalStore {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			basePath = "/tmp/graphd/snapshots"
		} else {
			basePath = filepath.Join(home, ".graphd", "snapshots")
		}
	}
	return &LocalStore{basePath: basePath}
}

func (s *LocalStore) Kind() string { return "local" }

func (s *LocalStore) PutSnapshot(_ context.Context, key string, body []byte, meta map[string]string) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	fpath := filepath.Join(s.basePath, filepath.Base(key))
	if err := os.WriteFile(fpath, body, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	log.Debug().Str("path", fpath).Int("bytes", len(body)).Msg("wrote snapshot to local file")
	return nil
}

func (s *LocalStore) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("snapshot path not writable: %w", err)
	}
	testFile := filepath.Join(s.basePath, ".healthcheck")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("snapshot path not writable: %w", err)
	}
	os.Remove(testFile)
	return nil
}
