/*
	The object store contract.

	A Store is a content-addressed, read-only view of objects.  Lookups are
	idempotent; the core never writes through a Store, and never assumes
	anything about how or where the objects are kept.
*/
package store

import (
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/object"
)

type Store interface {
	/*
		Look up an object by id.

		May return errors of category:

		  - `webodb.ErrNotFound` -- if no object has this id
		  - `webodb.ErrStoreCorrupt` -- if the object exists but can't be decoded
		  - `webodb.ErrUnsupportedObject` -- if the object is outside the object model
	*/
	Lookup(id object.ID) (object.Object, error)
}

// ErrorNotFound builds the error a Store returns for a missing id.
func ErrorNotFound(id object.ID) error {
	return ErrorDetailed(webodb.ErrNotFound,
		"object "+id.String()+" not found",
		map[string]string{
			"id": id.String(),
		})
}

// ErrorTypeMismatch builds the error raised when an object isn't the kind a query step requires.
func ErrorTypeMismatch(id object.ID, expected, actual object.Kind) error {
	return ErrorDetailed(webodb.ErrTypeMismatch,
		"object "+id.String()+" is a "+actual.String()+", expected a "+expected.String(),
		map[string]string{
			"id":       id.String(),
			"expected": expected.String(),
			"actual":   actual.String(),
		})
}
