package repositories

import (
	"fmt"
	"os"
	"time"

	"storefront/internal/models"

	bolt "go.etcd.io/bbolt"
)

var cartsBucket = []byte("carts")

const cartFileMode os.FileMode = 0600

// BoltCartRepository stores carts in a local bbolt file, one key per device.
type BoltCartRepository struct {
	db *bolt.DB
}

// OpenBoltCartRepository opens (or creates) the cart database at path.
func OpenBoltCartRepository(path string) (*BoltCartRepository, error) {
	db, err := bolt.Open(path, cartFileMode, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cart database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cartsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create carts bucket: %w", err)
	}
	return &BoltCartRepository{db: db}, nil
}

// Load returns the cart stored under key.
func (r *BoltCartRepository) Load(key string) (models.Cart, error) {
	var items []models.ProductSnapshot
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		// the decoded slice does not alias bbolt's memory map
		items, err = models.DecodeSnapshots(tx.Bucket(cartsBucket).Get([]byte(key)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", key, err)
	}
	return models.Cart(items), nil
}

// Save replaces the cart stored under key.
func (r *BoltCartRepository) Save(key string, cart models.Cart) error {
	raw, err := models.EncodeSnapshots(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", key, err)
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cartsBucket).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to save cart %s: %w", key, err)
	}
	return nil
}

// Close releases the database file.
func (r *BoltCartRepository) Close() error {
	return r.db.Close()
}
