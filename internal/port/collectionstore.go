package port

import "docrag/internal/domain"

// CollectionStore owns the in-memory documents of every collection.
type CollectionStore interface {
	// Replace swaps the full document list of a collection.
	Replace(id string, dimension int, docs []domain.Document) error

	// View runs fn while holding a shared lock on the collection.
	// fn must not retain the collection after it returns.
	View(id string, fn func(c domain.Collection) error) error

	// Documents returns a copy of the collection.
	Documents(id string) (domain.Collection, error)

	Status(id string) domain.Status

	Delete(id string) bool

	IDs() []string
}
