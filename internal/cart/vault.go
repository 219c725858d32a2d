// internal/cart/vault.go
package cart

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	vaultBucket = "state"
	// vaultKey names the single persisted entry holding the serialized cart.
	vaultKey = "currentOrder"
)

// Vault persists the cart line array as a whole. Load returns nil lines when
// nothing has been persisted yet. The serialized form is plain JSON of the
// line array and carries no version: a future change to the Line shape must
// stay backward-readable or explicitly reset the entry.
type Vault interface {
	Load() ([]Line, error)
	Save(lines []Line) error
}

// BoltVault stores the cart in a single-file bbolt database, the local-state
// analog of the browser storage the cart originally lived in.
type BoltVault struct {
	db *bolt.DB
}

// OpenBoltVault opens (or creates) the cart database at path.
func OpenBoltVault(path string) (*BoltVault, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cart database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(vaultBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create state bucket: %w", err)
	}

	return &BoltVault{db: db}, nil
}

// Close releases the underlying database file.
func (v *BoltVault) Close() error {
	return v.db.Close()
}

// Load reads the last persisted cart verbatim.
func (v *BoltVault) Load() ([]Line, error) {
	var lines []Line
	err := v.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(vaultBucket)).Get([]byte(vaultKey))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &lines)
	})
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return lines, nil
}

// Save overwrites the persisted cart with the given lines.
func (v *BoltVault) Save(lines []Line) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	err = v.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(vaultBucket)).Put([]byte(vaultKey), raw)
	})
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
