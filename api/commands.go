/*
	The in-process command algebra spoken between a client and a session.

	There is exactly one inbound command (Want) and exactly one outbound
	command (Push).  Byte-level framing of these is someone else's problem;
	the types here are what a transport would decode into and encode from.
*/
package api

import (
	"fmt"

	"github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/object"
)

// Traversal mode of a WantQuery.
type Mode string

const (
	Mode_CommitAncestry = Mode("ancestry") // The base commit plus N generations of parents (all parents, not just the first).
	Mode_PeelTree       = Mode("tree")     // The base tree plus everything reachable from it.
	Mode_PeelBlob       = Mode("blob")     // Just the base blob.
)

/*
	A client's declaration of which objects it wants.

	Build these with FromID and the With/As methods rather than by hand;
	each of those returns a copy with exactly one mode active.
*/
type WantQuery struct {
	Base  object.ID
	Mode  Mode
	Depth uint // Generations of ancestry.  Only meaningful for Mode_CommitAncestry.
}

// Want just the commit with this id (ancestry depth zero).  The base must be a commit;
// use AsTreePeel or AsBlobPeel for anything else.
func FromID(id object.ID) WantQuery {
	return WantQuery{Base: id, Mode: Mode_CommitAncestry}
}

func (q WantQuery) WithAncestry(depth uint) WantQuery {
	q.Mode, q.Depth = Mode_CommitAncestry, depth
	return q
}

func (q WantQuery) AsTreePeel() WantQuery {
	q.Mode, q.Depth = Mode_PeelTree, 0
	return q
}

func (q WantQuery) AsBlobPeel() WantQuery {
	q.Mode, q.Depth = Mode_PeelBlob, 0
	return q
}

// Returns an `webodb.ErrUsage` error if the mode isn't one we know.
func (q WantQuery) Validate() error {
	switch q.Mode {
	case Mode_CommitAncestry, Mode_PeelTree, Mode_PeelBlob:
		return nil
	default:
		return errcat.Errorf(webodb.ErrUsage, "unknown want mode %q", q.Mode)
	}
}

func (q WantQuery) String() string {
	if q.Mode == Mode_CommitAncestry {
		return fmt.Sprintf("%s(%d) %s", q.Mode, q.Depth, q.Base)
	}
	return fmt.Sprintf("%s %s", q.Mode, q.Base)
}

/*
	A "union" of everything a client may send.

	Exactly one field should be set.  (Want is, so far, the only member.)
*/
type ClientCommand struct {
	Want *WantQuery
}

func WantCommand(q WantQuery) ClientCommand {
	return ClientCommand{Want: &q}
}

/*
	A "union" of everything a server may send.

	Push carries one resolved object.  Pushes for a single Want arrive in
	resolution order, and no object is pushed twice for the same Want.
*/
type ServerCommand struct {
	Push object.Object
}
