package resolve

import (
	"io"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/api"
	"github.com/polydawn/webodb/object"
	"github.com/polydawn/webodb/store"
	"github.com/polydawn/webodb/store/gitstore"
	"github.com/polydawn/webodb/testutil"
)

// Wraps a store and counts lookups, so we can see the resolver is lazy.
type countingStore struct {
	store.Store
	lookups int
}

func (s *countingStore) Lookup(id object.ID) (object.Object, error) {
	s.lookups++
	return s.Store.Lookup(id)
}

func ids(objs []object.Object) []object.ID {
	result := make([]object.ID, len(objs))
	for i, obj := range objs {
		result[i] = obj.ID()
	}
	return result
}

func summaries(objs []object.Object) []string {
	result := make([]string, len(objs))
	for i, obj := range objs {
		result[i] = obj.(*object.Commit).Summary()
	}
	return result
}

func TestCommitAncestry(t *testing.T) {
	Convey("Commit ancestry:", t, func() {
		repo := testutil.NewMemRepo()
		st := gitstore.New(repo.Storer)
		h := repo.ExchangeHistory()

		Convey("depth zero pushes just the base", func() {
			objs, err := All(Resolve(api.FromID(h.Root), st))
			So(err, ShouldBeNil)
			So(summaries(objs), ShouldResemble, []string{"commit message"})
		})
		Convey("depth zero on a commit with parents still pushes just the base", func() {
			objs, err := All(Resolve(api.FromID(h.Merge), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{h.Merge})
		})
		Convey("depth one pushes the sole parent", func() {
			objs, err := All(Resolve(api.FromID(h.Second).WithAncestry(1), st))
			So(err, ShouldBeNil)
			So(summaries(objs), ShouldResemble, []string{"commit 2", "commit message"})
		})
		Convey("depth one on a merge pushes every parent in declared order", func() {
			objs, err := All(Resolve(api.FromID(h.Merge).WithAncestry(1), st))
			So(err, ShouldBeNil)
			So(summaries(objs), ShouldResemble, []string{
				"Merge branch 'test' into HEAD",
				"commit in other branch",
				"commit 2",
			})
		})
		Convey("the common ancestor of a merge is pushed once", func() {
			objs, err := All(Resolve(api.FromID(h.Merge).WithAncestry(2), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{h.Merge, h.Other, h.Second, h.Root})
		})
		Convey("a root ends its branch quietly, however much depth is left", func() {
			objs, err := All(Resolve(api.FromID(h.Second).WithAncestry(50), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{h.Second, h.Root})

			objs, err = All(Resolve(api.FromID(h.Root).WithAncestry(3), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{h.Root})
		})
	})

	Convey("Commit ancestry over a diamond:", t, func() {
		repo := testutil.NewMemRepo()
		st := gitstore.New(repo.Storer)
		d := repo.Commit("D")
		b := repo.Commit("B", d)
		c := repo.Commit("C", d)
		a := repo.Commit("A", b, c)

		Convey("depth two yields A, B, C, D with D exactly once", func() {
			objs, err := All(Resolve(api.FromID(a).WithAncestry(2), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{a, b, c, d})
		})
		Convey("depth one stops above the shared ancestor", func() {
			objs, err := All(Resolve(api.FromID(a).WithAncestry(1), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{a, b, c})
		})
		Convey("a commit reached at two depths is pushed and expanded only at first visit", func() {
			// e -> (a, d): d is reachable directly at depth 1, and again via a at depth 3.
			e := repo.Commit("E", a, d)
			objs, err := All(Resolve(api.FromID(e).WithAncestry(3), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{e, a, d, b, c})
		})
	})

	Convey("Commit ancestry bounds:", t, func() {
		repo := testutil.NewMemRepo()
		st := gitstore.New(repo.Storer)
		// A linear chain of five commits.
		chain := []object.ID{repo.Commit("c0")}
		for i := 1; i < 5; i++ {
			chain = append(chain, repo.Commit("c", chain[i-1]))
		}
		tip := chain[4]
		for depth := uint(0); depth < 7; depth++ {
			objs, err := All(Resolve(api.FromID(tip).WithAncestry(depth), st))
			So(err, ShouldBeNil)
			So(objs[0].ID(), ShouldEqual, tip)
			expected := int(depth) + 1
			if expected > len(chain) {
				expected = len(chain)
			}
			So(len(objs), ShouldEqual, expected)
		}
	})
}

func TestPeelTree(t *testing.T) {
	Convey("Tree peeling:", t, func() {
		repo := testutil.NewMemRepo()
		st := gitstore.New(repo.Storer)
		shared := repo.Blob("shared\n")
		inner := repo.Blob("inner\n")
		subtree := repo.Tree(
			testutil.File("inner", inner),
			testutil.File("shared", shared),
		)

		Convey("a tree with one subtree and one blob pushes everything once, in pre-order", func() {
			root := repo.Tree(
				testutil.Dir("sub", subtree),
				testutil.File("top", shared),
			)
			objs, err := All(Resolve(api.FromID(root).AsTreePeel(), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{root, subtree, inner, shared})
		})
		Convey("a subtree referenced twice is pushed and walked once", func() {
			root := repo.Tree(
				testutil.Dir("a", subtree),
				testutil.Dir("b", subtree),
				testutil.File("c", shared),
			)
			objs, err := All(Resolve(api.FromID(root).AsTreePeel(), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{root, subtree, inner, shared})
		})
		Convey("nesting has no depth limit", func() {
			deepest := repo.Blob("deep\n")
			tree := repo.Tree(testutil.File("leaf", deepest))
			expected := []object.ID{deepest, tree}
			for i := 0; i < 20; i++ {
				tree = repo.Tree(testutil.Dir("d", tree))
				expected = append(expected, tree)
			}
			objs, err := All(Resolve(api.FromID(tree).AsTreePeel(), st))
			So(err, ShouldBeNil)
			So(len(objs), ShouldEqual, len(expected))
			So(objs[0].ID(), ShouldEqual, tree)
			So(objs[len(objs)-1].ID(), ShouldEqual, deepest)
		})
		Convey("an empty tree pushes just itself", func() {
			empty := repo.Tree()
			objs, err := All(Resolve(api.FromID(empty).AsTreePeel(), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{empty})
		})
		Convey("gitlinks are not followed", func() {
			elsewhere := object.MustParseID("1111111111111111111111111111111111111111")
			root := repo.Tree(
				testutil.Link("module", elsewhere),
				testutil.File("top", shared),
			)
			objs, err := All(Resolve(api.FromID(root).AsTreePeel(), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{root, shared})
		})
		Convey("an entry that lies about its kind fails with a type mismatch", func() {
			root := repo.Tree(
				testutil.File("a", shared),
				testutil.File("b", subtree),
			)
			r := Resolve(api.FromID(root).AsTreePeel(), st)
			objs, err := All(r)
			So(err, errcat.ErrorShouldHaveCategory, webodb.ErrTypeMismatch)
			So(ids(objs), ShouldResemble, []object.ID{root, shared})
			So(err.(errcat.Error).Details()["id"], ShouldEqual, subtree.String())
			So(err.(errcat.Error).Details()["expected"], ShouldEqual, "blob")
			So(err.(errcat.Error).Details()["actual"], ShouldEqual, "tree")
		})
		Convey("peeling a commit fails with a type mismatch", func() {
			commit := repo.CommitTree("c", subtree)
			objs, err := All(Resolve(api.FromID(commit).AsTreePeel(), st))
			So(err, errcat.ErrorShouldHaveCategory, webodb.ErrTypeMismatch)
			So(objs, ShouldBeEmpty)
		})
	})
}

func TestPeelBlob(t *testing.T) {
	Convey("Blob peeling:", t, func() {
		repo := testutil.NewMemRepo()
		st := gitstore.New(repo.Storer)
		blob := repo.Blob("payload")

		Convey("pushes exactly the blob", func() {
			objs, err := All(Resolve(api.FromID(blob).AsBlobPeel(), st))
			So(err, ShouldBeNil)
			So(ids(objs), ShouldResemble, []object.ID{blob})
			So(string(objs[0].(*object.Blob).Payload), ShouldEqual, "payload")
		})
		Convey("a commit is a type mismatch, not a missing object", func() {
			commit := repo.Commit("not a blob")
			objs, err := All(Resolve(api.FromID(commit).AsBlobPeel(), st))
			So(err, errcat.ErrorShouldHaveCategory, webodb.ErrTypeMismatch)
			So(objs, ShouldBeEmpty)
		})
	})
}

func TestResolverFailures(t *testing.T) {
	Convey("Resolver failures:", t, func() {
		repo := testutil.NewMemRepo()
		st := gitstore.New(repo.Storer)
		missing := object.MustParseID("ffffffffffffffffffffffffffffffffffffffff")

		for _, q := range []api.WantQuery{
			api.FromID(missing),
			api.FromID(missing).WithAncestry(3),
			api.FromID(missing).AsTreePeel(),
			api.FromID(missing).AsBlobPeel(),
		} {
			Convey("a missing base fails with not found for "+q.String(), func() {
				objs, err := All(Resolve(q, st))
				So(err, errcat.ErrorShouldHaveCategory, webodb.ErrNotFound)
				So(err.(errcat.Error).Details()["id"], ShouldEqual, missing.String())
				So(objs, ShouldBeEmpty)
			})
		}

		Convey("a missing parent fails after everything before it was yielded", func() {
			orphan := repo.Commit("orphan", missing)
			r := Resolve(api.FromID(orphan).WithAncestry(1), st)
			obj, err := r.Next()
			So(err, ShouldBeNil)
			So(obj.ID(), ShouldEqual, orphan)
			_, err = r.Next()
			So(err, errcat.ErrorShouldHaveCategory, webodb.ErrNotFound)
			Convey("and the failure is sticky", func() {
				_, err2 := r.Next()
				So(err2, errcat.ErrorShouldHaveCategory, webodb.ErrNotFound)
				So(err2.Error(), ShouldEqual, err.Error())
			})
		})
		Convey("a tree in commit ancestry is a type mismatch", func() {
			tree := repo.Tree()
			objs, err := All(Resolve(api.FromID(tree), st))
			So(err, errcat.ErrorShouldHaveCategory, webodb.ErrTypeMismatch)
			So(objs, ShouldBeEmpty)
		})
		Convey("an unknown mode is a usage error, and nothing is looked up", func() {
			counting := &countingStore{Store: st}
			objs, err := All(Resolve(api.WantQuery{Base: missing, Mode: "bogus"}, counting))
			So(err, errcat.ErrorShouldHaveCategory, webodb.ErrUsage)
			So(objs, ShouldBeEmpty)
			So(counting.lookups, ShouldEqual, 0)
		})
	})
}

func TestResolverLaziness(t *testing.T) {
	Convey("Resolvers do work only when pulled:", t, func() {
		repo := testutil.NewMemRepo()
		h := repo.ExchangeHistory()
		counting := &countingStore{Store: gitstore.New(repo.Storer)}

		r := Resolve(api.FromID(h.Merge).WithAncestry(2), counting)
		So(counting.lookups, ShouldEqual, 0)
		_, err := r.Next()
		So(err, ShouldBeNil)
		So(counting.lookups, ShouldEqual, 1)
		_, err = r.Next()
		So(err, ShouldBeNil)
		So(counting.lookups, ShouldEqual, 2)

		Convey("duplicates in the frontier cost no lookups", func() {
			objs, err := All(r)
			So(err, ShouldBeNil)
			So(len(objs), ShouldEqual, 2) // second, root
			So(counting.lookups, ShouldEqual, 4)
			_, err = r.Next()
			So(err, ShouldEqual, io.EOF)
		})
	})
}
