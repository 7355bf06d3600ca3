package repository

import "fmt"

// Key namespaces for catalog records. Index structures and caches own their
// own namespaces (catalog:term, catalog:rank, cache).
const (
	entryKeyPrefix  = "catalog:entry:"
	offersKeyPrefix = "catalog:offers:"
	isbnSetKey      = "catalog:isbns"
)

// EntryKey returns the store key for a catalog entry record.
func EntryKey(isbn string) string {
	return fmt.Sprintf("%s%s", entryKeyPrefix, isbn)
}

// OffersKey returns the store key for a book's seller offer map.
func OffersKey(isbn string) string {
	return fmt.Sprintf("%s%s", offersKeyPrefix, isbn)
}
