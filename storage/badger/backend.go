package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

const (
	// deleteChunkSize bounds the number of deletes per transaction so bulk
	// removals stay under badger's transaction size limit.
	deleteChunkSize = 1000
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Backend.
type Option func(*Backend) error

// WithLogger sets the logger used by the backend and by badger itself.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		b.logger = logger
		return nil
	}
}

// WithClock overrides the clock that decides "today" for status resolution,
// acceptance and retention. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		b.now = now
		return nil
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool, opts ...Option) (*Backend, error) {
	b := &Backend{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	var dbOpts badger.Options
	if inMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(filePath); err != nil {
			return nil, err
		}
		dbOpts = badger.DefaultOptions(filePath)
	}

	dbOpts.Logger = &badgerLoggerAdapter{logger: b.logger.With("component", "badger")}
	dbOpts.Compression = options.None

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	b.db = db
	return b, nil
}

func ensureDir(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(filePath, 0755); err != nil {
			return err
		}
		if info, err = os.Stat(filePath); err != nil {
			return err
		}
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filePath)
	}
	return nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// Today returns the current calendar day according to the backend clock.
func (b *Backend) Today() core.Date {
	return core.DateOf(b.now())
}

// timestamp returns the backend clock in UTC at the precision records keep.
func (b *Backend) timestamp() time.Time {
	return b.now().UTC().Truncate(time.Microsecond)
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storeError(badger.ErrDBClosed)
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return storeError(fn(tx))
}

// update runs fn in a read-write transaction and commits it. Commits that
// lose a conflict against a concurrent writer are replayed until they win or
// ctx is done, which gives last-write-wins semantics per key.
func (b *Backend) update(ctx context.Context, fn func(tx *badger.Txn) error) error {
	for attempt := 1; ; attempt++ {
		err := b.WithTx(func(tx *badger.Txn) error {
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b.logger.Debug("retrying conflicting transaction", "attempt", attempt)
	}
}

// deleteKeys removes keys in bounded chunks.
func (b *Backend) deleteKeys(ctx context.Context, keys [][]byte) error {
	for start := 0; start < len(keys); start += deleteChunkSize {
		chunk := keys[start:min(start+deleteChunkSize, len(keys))]
		err := b.update(ctx, func(tx *badger.Txn) error {
			for _, key := range chunk {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// scanKeys returns every key under prefix without loading values.
func (b *Backend) scanKeys(prefix string) ([][]byte, error) {
	var keys [][]byte
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	return keys, err
}

// storeError classifies an error leaving the storage layer. Domain errors
// pass through unchanged; anything raised by the engine is reported as
// storage.ErrStoreUnavailable. Transaction conflicts are left bare so
// update can recognise and replay them.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrStoreUnavailable),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrSerializationFailed),
		errors.Is(err, storage.ErrDimensionMismatch),
		errors.Is(err, storage.ErrEmptyVector),
		errors.Is(err, storage.ErrInvalidQuery),
		errors.Is(err, badger.ErrConflict),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: %w: %w", storage.ErrStoreUnavailable, storage.ErrStorageClosed, err)
	default:
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
}
