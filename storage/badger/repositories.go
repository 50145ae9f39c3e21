package badger

import "errors"

// Repositories bundles the BadgerDB-backed repositories sharing one Backend.
type Repositories struct {
	Backend  *Backend
	Events   *EventRepository
	Metadata *MetadataRepository
	Vectors  *VectorIndex
}

// OpenRepositories opens (or creates) the database at path and builds every
// repository on top of it. Caller must Close the result when done.
func OpenRepositories(path string, opts ...Option) (*Repositories, error) {
	backend, err := OpenBackend(path, false, opts...)
	if err != nil {
		return nil, err
	}
	return newRepositories(backend)
}

func newRepositories(backend *Backend) (*Repositories, error) {
	events, err := NewEventRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &Repositories{
		Backend:  backend,
		Events:   events,
		Metadata: NewMetadataRepository(backend),
		Vectors:  NewVectorIndex(backend),
	}, nil
}

// Close closes the shared backend.
func (r *Repositories) Close() error {
	if r == nil || r.Backend == nil {
		return errors.New("repositories not open")
	}
	return r.Backend.Close()
}
