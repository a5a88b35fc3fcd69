// Package cache defines storage for BMC inventory snapshots collected across
// many hosts.
package cache

// Cache stores values keyed by BMC host.
type Cache[T any] interface {
	Insert(values ...T) error
	Delete(hosts ...string) error
	Get(host string) (T, error)
	List() ([]T, error)
	Close() error
}
