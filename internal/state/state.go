// Package state persists the studio's client-side stores: the app
// registry, favorites, the token dock (pinned favorites), and the
// acquisition history. Everything lives in one bbolt database under
// the data directory.
package state

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// stateDirPerm is the permission mode for the data directory.
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second

	// MaxPinned caps the token dock size.
	MaxPinned = 5

	// historyLimit caps stored history entries; oldest are evicted.
	historyLimit = 200

	dbFileName = "studio.db"
)

var (
	appsBucket      = []byte("apps")
	favoritesBucket = []byte("favorites")
	historyBucket   = []byte("history")
)

// State wraps a bbolt database for all persistent application state.
type State struct {
	db *bolt.DB
}

// Load opens the state database under dataDir, creating it if it does
// not exist. All buckets are created on open.
func Load(dataDir string) (*State, error) {
	return LoadAt(filepath.Join(dataDir, dbFileName))
}

// LoadAt opens a state database at the given path, creating it if it
// does not exist. Useful for tests that need an isolated database.
func LoadAt(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{appsBucket, favoritesBucket, historyBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}
