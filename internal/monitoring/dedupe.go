package monitoring

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

const dedupeKeyPrefix = "notified:"

// BadgerDedupe is the durable dedupeStore backing the Dispatcher: a key per
// delivered result id survives a crash between "callback sent" and
// "notified flag committed" to the Subject Store, so a restart doesn't
// redeliver a callback the receiver already got. Grounded on the teacher's
// BadgerSessionStore (internal/auth/session_badger.go) — same embedded KV,
// repurposed from session storage to delivery-dedupe keys.
type BadgerDedupe struct {
	db *badger.DB
}

// OpenBadgerDedupe opens (creating if absent) a Badger KV at dir.
func OpenBadgerDedupe(dir string) (*BadgerDedupe, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open dedupe store at %s: %w", dir, err)
	}
	return &BadgerDedupe{db: db}, nil
}

// Close closes the underlying Badger database.
func (d *BadgerDedupe) Close() error {
	return d.db.Close()
}

// Seen implements dedupeStore.
func (d *BadgerDedupe) Seen(resultID int64) (bool, error) {
	seen := false
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dedupeKey(resultID))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		default:
			seen = true
			return nil
		}
	})
	if err != nil {
		return false, fmt.Errorf("check dedupe key: %w", err)
	}
	return seen, nil
}

// MarkSeen implements dedupeStore.
func (d *BadgerDedupe) MarkSeen(resultID int64) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dedupeKey(resultID), []byte{1})
	})
	if err != nil {
		return fmt.Errorf("set dedupe key: %w", err)
	}
	return nil
}

func dedupeKey(resultID int64) []byte {
	return []byte(dedupeKeyPrefix + strconv.FormatInt(resultID, 10))
}
