package table

import (
	"encoding/binary"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/reflexndn/rfwd/enc"
)

// DeadNonceList is the short-lived (name, nonce) set used to suppress late
// loop-backs after PIT eviction (spec.md §3, §4.12). Backed by Badger's
// SetWithTTL, which gives the "(name,nonce) present for exactly
// DNL.lifetime" invariant (spec.md §8 invariant 5) directly, instead of a
// hand-rolled sweep goroutine.
type DeadNonceList struct {
	db       *badger.DB
	lifetime time.Duration
}

// NewDeadNonceList opens (or creates) a Badger instance at dir with the
// given entry lifetime. Pass "" for dir to run fully in memory, useful for
// tests.
func NewDeadNonceList(dir string, lifetime time.Duration) (*DeadNonceList, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DeadNonceList{db: db, lifetime: lifetime}, nil
}

func dnlKey(name enc.Name, nonce uint32) []byte {
	raw := []byte(name.String())
	key := make([]byte, len(raw)+4)
	copy(key, raw)
	binary.BigEndian.PutUint32(key[len(raw):], nonce)
	return key
}

// Insert records (name, nonce), live for exactly dl.lifetime.
func (dl *DeadNonceList) Insert(name enc.Name, nonce uint32) error {
	return dl.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(dnlKey(name, nonce), []byte{1}).WithTTL(dl.lifetime)
		return txn.SetEntry(e)
	})
}

// Has reports whether (name, nonce) is currently present.
func (dl *DeadNonceList) Has(name enc.Name, nonce uint32) (bool, error) {
	found := false
	err := dl.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dnlKey(name, nonce))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Close releases the underlying Badger instance.
func (dl *DeadNonceList) Close() error { return dl.db.Close() }
