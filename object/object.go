/*
	The object model: commits, trees, and blobs, and the ids that name them.

	Objects here are plain values decoded out of a store.  They hold only
	the structural fields the traversal engine needs (parent ids, tree entries)
	plus enough extra to be recognizable to a human (commit messages, entry names).
*/
package object

import (
	"bytes"
	"encoding/hex"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
)

// Size of an ID in bytes.
const IDSize = 20

/*
	A content hash naming exactly one object.

	IDs are comparable (and so usable as map keys) and totally ordered.
	The zero ID names nothing.
*/
type ID [IDSize]byte

var ZeroID ID

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) IsZero() bool {
	return id == ZeroID
}

// Compare returns -1, 0, or 1 as id sorts before, equal to, or after other.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

/*
	Parse a hex string into an ID.
	Performs some basic checks on inputs; both upper and lower case hex are accepted.
*/
func ParseID(s string) (ID, error) {
	if err := mustBeFullHash(s); err != nil {
		return ID{}, err
	}
	var id ID
	hex.Decode(id[:], []byte(s))
	return id, nil
}

// Like ParseID, but panics.  For constants and tests.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

/*
	An object id must be exactly 40 hex characters
*/
func mustBeFullHash(s string) error {
	if len(s) != IDSize*2 {
		return Errorf(webodb.ErrUsage, "object ids are 40 characters")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return Errorf(webodb.ErrUsage, "object ids are hex strings")
	}
	return nil
}

type Kind uint8

const (
	KindUnknown Kind = iota
	KindCommit
	KindTree
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

/*
	Any object that can be looked up in a store.

	Implemented by *Commit, *Tree, and *Blob; switch on the concrete type
	(or on Kind) to get at the links.
*/
type Object interface {
	ID() ID
	Kind() Kind
}

var (
	_ Object = &Commit{}
	_ Object = &Tree{}
	_ Object = &Blob{}
)

type Commit struct {
	Hash    ID
	Tree    ID
	Parents []ID // Order is significant: first parent first, then merge parents.
	Message string
}

func (c *Commit) ID() ID     { return c.Hash }
func (c *Commit) Kind() Kind { return KindCommit }

// Summary is the first line of the commit message.
func (c *Commit) Summary() string {
	msg := strings.TrimLeft(c.Message, "\n")
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

type Tree struct {
	Hash    ID
	Entries []TreeEntry
}

func (t *Tree) ID() ID     { return t.Hash }
func (t *Tree) Kind() Kind { return KindTree }

/*
	One named link out of a tree.

	Kind is KindTree for subtrees and KindBlob for files and symlinks.
	Gitlinks (submodules) are recorded with KindCommit: they name a commit
	in some *other* repository, and traversals never follow them.
*/
type TreeEntry struct {
	Name string
	ID   ID
	Kind Kind
}

type Blob struct {
	Hash    ID
	Payload []byte
}

func (b *Blob) ID() ID     { return b.Hash }
func (b *Blob) Kind() Kind { return KindBlob }
