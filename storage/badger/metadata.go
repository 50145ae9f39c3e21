package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

// MetadataRepository implements storage.MetadataRepository for BadgerDB.
type MetadataRepository struct {
	backend *Backend
}

var _ storage.MetadataRepository = (*MetadataRepository)(nil)

// NewMetadataRepository creates a new MetadataRepository.
func NewMetadataRepository(backend *Backend) *MetadataRepository {
	return &MetadataRepository{
		backend: backend,
	}
}

// Put persists the row for metadata.Source.
func (r *MetadataRepository) Put(ctx context.Context, metadata *core.ScrapeMetadata) error {
	if metadata == nil || metadata.Source == "" {
		return core.ErrMissingSource
	}
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		return tx.Set(makeMetadataKey(metadata.Source), storage.MarshalScrapeMetadata(metadata))
	})
}

// Get retrieves the row for a source.
// Returns storage.ErrNotFound if the source was never recorded.
func (r *MetadataRepository) Get(ctx context.Context, source string) (*core.ScrapeMetadata, error) {
	var metadata *core.ScrapeMetadata
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMetadataKey(source))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			metadata, unmarshalErr = storage.UnmarshalScrapeMetadata(val)
			return unmarshalErr
		})
	}, false)

	return metadata, err
}

// All returns every row. Keys sort by source, so the scan order is the result order.
func (r *MetadataRepository) All(ctx context.Context) ([]*core.ScrapeMetadata, error) {
	var result []*core.ScrapeMetadata
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metadataPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				metadata, err := storage.UnmarshalScrapeMetadata(val)
				if err != nil {
					return err
				}
				result = append(result, metadata)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return result, err
}
