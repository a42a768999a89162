/*
	The git object store reads objects out of go-git storage.

	Any go-git object storage will do: `Open` sets up a filesystem-backed one
	over an existing repository (bare or not), and `New` wraps one you already
	have (tests mostly use `memory.NewStorage()`).

	Only loose and packed objects are consulted.  References, the index, and the
	working tree are never looked at -- all queries are by object id.
*/
package gitstore

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/warpfork/go-errcat"
	srcd_osfs "gopkg.in/src-d/go-billy.v4/osfs"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/cache"
	"gopkg.in/src-d/go-git.v4/plumbing/filemode"
	srcd_object "gopkg.in/src-d/go-git.v4/plumbing/object"
	"gopkg.in/src-d/go-git.v4/plumbing/storer"
	"gopkg.in/src-d/go-git.v4/storage/filesystem"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/object"
	"github.com/polydawn/webodb/store"
)

var (
	_ store.Store = &Store{}
)

const (
	dotGitDir  = ".git"
	objectsDir = "objects"
)

type Store struct {
	storer storer.EncodedObjectStorer // git object storage
}

// Wrap an existing go-git object storage.
func New(s storer.EncodedObjectStorer) *Store {
	return &Store{storer: s}
}

/*
	Open a repository on the local filesystem.

	The path may be a bare repository, or a working tree containing a `.git` dir.
	A leading "file://" is accepted and stripped; relative paths are absolutized.
	A cacheSize of zero means go-git's default object cache size.

	May return errors of category:

	  - `webodb.ErrUsage` -- for empty or unparsable paths
	  - `webodb.ErrStoreUnavailable` -- if there's no repository at the path
*/
func Open(path string, cacheSize cache.FileSize) (_ *Store, err error) {
	defer RequireErrorHasCategory(&err, webodb.ErrorCategory(""))

	path, err = SanitizePath(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, ErrorDetailed(webodb.ErrStoreUnavailable, "repository does not exist", map[string]string{
			"cause": err.Error(),
			"path":  path,
		})
	}
	if !fi.IsDir() {
		return nil, Errorf(webodb.ErrStoreUnavailable, "repository path %q is not a directory", path)
	}

	// Non-bare repositories keep everything under the dotgit dir.
	fs := srcd_osfs.New(path)
	if fi, err := fs.Stat(dotGitDir); err == nil && fi.IsDir() {
		fs, err = fs.Chroot(dotGitDir)
		if err != nil {
			return nil, Errorf(webodb.ErrStoreUnavailable, "could not open %s in %q: %s", dotGitDir, path, err)
		}
	}
	if fi, err := fs.Stat(objectsDir); err != nil || !fi.IsDir() {
		return nil, Errorf(webodb.ErrStoreUnavailable, "%q is not a git repository (no %s dir)", path, objectsDir)
	}

	if cacheSize <= 0 {
		cacheSize = cache.DefaultMaxSize
	}
	return New(filesystem.NewStorage(fs, cache.NewObjectLRU(cacheSize))), nil
}

/*
	Strip any "file://" prefix, then absolutize.
*/
func SanitizePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if HasFoldedPrefix(path, "file://") {
		path = path[len("file://"):]
	}
	if path == "" {
		return "", Errorf(webodb.ErrUsage, "empty repository path")
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", Errorf(webodb.ErrUsage, "failed handling local path: %s", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}

/*
	Combination of strings.EqualFold and strings.HasPrefix
*/
func HasFoldedPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// The underlying go-git storage.  Used by the pack writer.
func (s *Store) Storer() storer.EncodedObjectStorer {
	return s.storer
}

func (s *Store) Lookup(id object.ID) (object.Object, error) {
	encoded, err := s.storer.EncodedObject(plumbing.AnyObject, plumbing.Hash(id))
	if err == plumbing.ErrObjectNotFound {
		return nil, store.ErrorNotFound(id)
	} else if err != nil {
		return nil, Errorf(webodb.ErrStoreCorrupt, "failed to read object %s: %s", id, err)
	}
	decoded, err := srcd_object.DecodeObject(s.storer, encoded)
	if err == plumbing.ErrInvalidType || err == srcd_object.ErrUnsupportedObject {
		return nil, Errorf(webodb.ErrUnsupportedObject, "object %s is of unsupported type %s", id, encoded.Type())
	} else if err != nil {
		return nil, Errorf(webodb.ErrStoreCorrupt, "failed to decode %s %s: %s", encoded.Type(), id, err)
	}
	switch obj := decoded.(type) {
	case *srcd_object.Commit:
		return convertCommit(obj), nil
	case *srcd_object.Tree:
		return convertTree(obj), nil
	case *srcd_object.Blob:
		return convertBlob(obj)
	default:
		return nil, Errorf(webodb.ErrUnsupportedObject, "object %s is a %s, which is not a commit, tree, or blob", id, encoded.Type())
	}
}

func convertCommit(c *srcd_object.Commit) *object.Commit {
	parents := make([]object.ID, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		parents[i] = object.ID(h)
	}
	return &object.Commit{
		Hash:    object.ID(c.Hash),
		Tree:    object.ID(c.TreeHash),
		Parents: parents,
		Message: c.Message,
	}
}

func convertTree(t *srcd_object.Tree) *object.Tree {
	entries := make([]object.TreeEntry, len(t.Entries))
	for i, te := range t.Entries {
		entries[i] = object.TreeEntry{
			Name: te.Name,
			ID:   object.ID(te.Hash),
			Kind: entryKind(te.Mode),
		}
	}
	return &object.Tree{
		Hash:    object.ID(t.Hash),
		Entries: entries,
	}
}

func entryKind(mode filemode.FileMode) object.Kind {
	switch mode {
	case filemode.Dir:
		return object.KindTree
	case filemode.Regular, filemode.Executable, filemode.Symlink, filemode.Deprecated:
		return object.KindBlob
	case filemode.Submodule:
		return object.KindCommit
	default:
		return object.KindUnknown
	}
}

func convertBlob(b *srcd_object.Blob) (*object.Blob, error) {
	reader, err := b.Reader()
	if err != nil {
		return nil, Errorf(webodb.ErrStoreCorrupt, "failed to read blob %s: %s", b.Hash, err)
	}
	defer reader.Close()
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, Errorf(webodb.ErrStoreCorrupt, "failed to read blob %s: %s", b.Hash, err)
	}
	return &object.Blob{
		Hash:    object.ID(b.Hash),
		Payload: payload,
	}, nil
}
