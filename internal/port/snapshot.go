package port

// SnapshotStore persists encoded collections keyed by collection id.
type SnapshotStore interface {
	Put(collectionID string, data []byte) error

	// Get returns domain.ErrCollectionNotTrained when nothing is stored under the id.
	Get(collectionID string) ([]byte, error)

	Delete(collectionID string) error

	List() ([]string, error)

	Close() error
}
