/*
	The resolver turns one WantQuery into the sequence of objects a server
	must push back for it.

	A Resolver is a cursor: each call to Next does exactly the store lookups
	needed to produce one more object, then stops, holding its frontier and
	visited set until pulled again.  Nothing is buffered beyond that state.
	Abandoning a Resolver part way is fine; there's nothing to undo.

	No object id is ever yielded twice by the same Resolver, no matter how many
	paths through the graph reach it.  The first visit wins, and a repeat visit
	is neither emitted nor expanded again.
*/
package resolve

import (
	"io"

	"github.com/polydawn/webodb/api"
	"github.com/polydawn/webodb/object"
	"github.com/polydawn/webodb/store"
)

type Resolver struct {
	store   store.Store
	query   api.WantQuery
	visited map[object.ID]struct{}

	// Pending work.  Ancestry traversal treats this as a FIFO queue
	// (breadth-first, so parents come out a generation at a time);
	// tree peeling treats it as a LIFO stack (depth-first, pre-order).
	frontier []pending

	err error // sticky; io.EOF once exhausted.
}

type pending struct {
	id        object.ID
	remaining uint        // generations of ancestry still to expand below this commit.
	expect    object.Kind // kind the link that led here claims this object has.
}

/*
	Begin resolving a query against a store.

	No lookups happen until the first call to Next.
*/
func Resolve(query api.WantQuery, s store.Store) *Resolver {
	r := &Resolver{
		store:   s,
		query:   query,
		visited: make(map[object.ID]struct{}),
	}
	if err := query.Validate(); err != nil {
		r.err = err
		return r
	}
	seed := pending{id: query.Base}
	switch query.Mode {
	case api.Mode_CommitAncestry:
		seed.remaining, seed.expect = query.Depth, object.KindCommit
	case api.Mode_PeelTree:
		seed.expect = object.KindTree
	case api.Mode_PeelBlob:
		seed.expect = object.KindBlob
	}
	r.frontier = append(r.frontier, seed)
	return r
}

/*
	Produce the next object.

	Returns io.EOF when the sequence is exhausted.
	Any other error is terminal: it is returned from this call and every call after.

	May return errors of category:

	  - `webodb.ErrNotFound` -- if an object the query needs is missing from the store
	  - `webodb.ErrTypeMismatch` -- if an object isn't the kind the query step requires
	  - anything else the store returns
*/
func (r *Resolver) Next() (object.Object, error) {
	if r.err != nil {
		return nil, r.err
	}
	for len(r.frontier) > 0 {
		item := r.pop()
		if _, seen := r.visited[item.id]; seen {
			continue
		}
		obj, err := r.store.Lookup(item.id)
		if err != nil {
			return nil, r.fail(err)
		}
		if obj.Kind() != item.expect {
			return nil, r.fail(store.ErrorTypeMismatch(item.id, item.expect, obj.Kind()))
		}
		r.visited[item.id] = struct{}{}
		r.expand(item, obj)
		return obj, nil
	}
	r.err = io.EOF
	return nil, r.err
}

func (r *Resolver) fail(err error) error {
	r.err = err
	r.frontier = nil
	return err
}

func (r *Resolver) pop() pending {
	var item pending
	switch r.query.Mode {
	case api.Mode_PeelTree:
		last := len(r.frontier) - 1
		item, r.frontier = r.frontier[last], r.frontier[:last]
	default:
		item, r.frontier = r.frontier[0], r.frontier[1:]
	}
	return item
}

// Queue up whatever the object links to, per the query's fan-out rule.
// Only ids and kinds are kept; the object itself is not retained.
func (r *Resolver) expand(item pending, obj object.Object) {
	switch obj := obj.(type) {
	case *object.Commit:
		if r.query.Mode != api.Mode_CommitAncestry || item.remaining == 0 {
			return
		}
		// Every parent, in declared order.  Following only the first parent would drop merge history.
		for _, parent := range obj.Parents {
			r.frontier = append(r.frontier, pending{
				id:        parent,
				remaining: item.remaining - 1,
				expect:    object.KindCommit,
			})
		}
	case *object.Tree:
		if r.query.Mode != api.Mode_PeelTree {
			return
		}
		// Pushed in reverse, so the stack pops them in declared order.
		for i := len(obj.Entries) - 1; i >= 0; i-- {
			entry := obj.Entries[i]
			switch entry.Kind {
			case object.KindTree, object.KindBlob:
				r.frontier = append(r.frontier, pending{id: entry.ID, expect: entry.Kind})
			default:
				// gitlinks name commits in other repos; not ours to push.
			}
		}
	}
}

/*
	Drain a resolver.

	Returns every object produced, in order.  If resolution fails,
	the objects produced before the failure are returned along with the error.
*/
func All(r *Resolver) ([]object.Object, error) {
	var objs []object.Object
	for {
		obj, err := r.Next()
		if err == io.EOF {
			return objs, nil
		}
		if err != nil {
			return objs, err
		}
		objs = append(objs, obj)
	}
}
