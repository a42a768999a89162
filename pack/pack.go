/*
	Writes a set of pushed objects as a git packfile.

	This is one way of framing a session's pushes for something that
	already speaks git: resolve a want, collect the ids in push order,
	and hand them here.  Objects are written whole (no deltas), in the
	order given.
*/
package pack

import (
	"io"

	. "github.com/warpfork/go-errcat"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/format/packfile"
	"gopkg.in/src-d/go-git.v4/plumbing/storer"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/object"
)

/*
	Encode the objects named by ids, read from s, as a packfile written to w.

	Returns the packfile checksum.

	May return errors of category:

	  - `webodb.ErrNotFound` -- if one of the ids isn't in the storage
	  - `webodb.ErrStoreCorrupt` -- for any other failure reading or writing
*/
func Write(w io.Writer, s storer.EncodedObjectStorer, ids []object.ID) (_ object.ID, err error) {
	defer RequireErrorHasCategory(&err, webodb.ErrorCategory(""))

	hashes := make([]plumbing.Hash, len(ids))
	for i, id := range ids {
		hashes[i] = plumbing.Hash(id)
	}
	enc := packfile.NewEncoder(w, s, false)
	checksum, err := enc.Encode(hashes, 0)
	if err == plumbing.ErrObjectNotFound {
		return object.ID{}, Errorf(webodb.ErrNotFound, "object to pack not found")
	} else if err != nil {
		return object.ID{}, Errorf(webodb.ErrStoreCorrupt, "failed to encode packfile: %s", err)
	}
	return object.ID(checksum), nil
}
