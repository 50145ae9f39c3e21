package badger

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

// VectorIndex implements storage.VectorIndex for BadgerDB with an exact
// full scan. Every stored vector shares the dimensionality recorded under
// vectorDimKey by the first write.
type VectorIndex struct {
	backend *Backend
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a new VectorIndex.
func NewVectorIndex(backend *Backend) *VectorIndex {
	return &VectorIndex{
		backend: backend,
	}
}

// Upsert stores or overwrites the vector for id.
func (v *VectorIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if len(vector) == 0 {
		return storage.ErrEmptyVector
	}
	entry := &core.IndexEntry{ID: id, Vector: vector, Metadata: metadata}

	return v.backend.update(ctx, func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		switch {
		case dim == 0:
			if err := tx.Set([]byte(vectorDimKey), encodeDimension(len(vector))); err != nil {
				return err
			}
		case dim != len(vector):
			return fmt.Errorf("%w: index has %d dimensions, got %d", storage.ErrDimensionMismatch, dim, len(vector))
		}
		return tx.Set(makeVectorKey(id), storage.MarshalIndexEntry(entry))
	})
}

// QueryNearest returns up to k entries ordered by descending cosine similarity.
func (v *VectorIndex) QueryNearest(ctx context.Context, vector []float32, k int) ([]core.Neighbor, error) {
	if len(vector) == 0 {
		return nil, storage.ErrEmptyVector
	}
	if k <= 0 {
		return []core.Neighbor{}, nil
	}

	var results []core.Neighbor
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		if dim != 0 && dim != len(vector) {
			return fmt.Errorf("%w: index has %d dimensions, query has %d", storage.ErrDimensionMismatch, dim, len(vector))
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalIndexEntry(val)
				if err != nil {
					return err
				}
				results = append(results, core.Neighbor{
					ID:         entry.ID,
					Similarity: roundScore(cosineSimilarity(vector, entry.Vector)),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b core.Neighbor) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored vectors.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	keys, err := v.backend.scanKeys(vectorPrefix)
	return len(keys), err
}

// Delete removes vectors by ID.
func (v *VectorIndex) Delete(ctx context.Context, ids ...string) error {
	keys := make([][]byte, len(ids))
	for i, id := range ids {
		keys[i] = makeVectorKey(id)
	}
	return v.backend.deleteKeys(ctx, keys)
}

// Clear removes every vector and forgets the dimensionality.
func (v *VectorIndex) Clear(ctx context.Context) error {
	keys, err := v.backend.scanKeys(vectorPrefix)
	if err != nil {
		return err
	}
	keys = append(keys, []byte(vectorDimKey))
	return v.backend.deleteKeys(ctx, keys)
}

// Dimension returns the dimensionality fixed by the first write, or 0 for an
// empty index.
func (v *VectorIndex) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		dim, err = readDimension(tx)
		return err
	}, false)
	return dim, err
}

func readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(vectorDimKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var dim int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: dimension record has %d bytes", storage.ErrSerializationFailed, len(val))
		}
		dim = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return dim, err
}

func encodeDimension(dim int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(dim))
	return buf
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// roundScore rounds to four decimal places.
func roundScore(s float64) float64 {
	return math.Round(s*1e4) / 1e4
}
