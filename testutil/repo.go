package testutil

import (
	"io"
	"os"
	"path/filepath"
	"time"

	srcd_osfs "gopkg.in/src-d/go-billy.v4/osfs"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/cache"
	"gopkg.in/src-d/go-git.v4/plumbing/filemode"
	srcd_object "gopkg.in/src-d/go-git.v4/plumbing/object"
	"gopkg.in/src-d/go-git.v4/plumbing/storer"
	"gopkg.in/src-d/go-git.v4/storage/filesystem"
	"gopkg.in/src-d/go-git.v4/storage/memory"

	"github.com/polydawn/webodb/object"
)

/*
	Builds fixture objects into go-git storage.

	All the methods panic on error; these are for test setup only.
	Timestamps are fixed, so the same sequence of calls always yields
	the same object ids.
*/
type Repo struct {
	Storer storer.EncodedObjectStorer
	clock  time.Time
}

// A fixture repo held in memory.
func NewMemRepo() *Repo {
	return NewRepo(memory.NewStorage())
}

/*
	A fixture repo written as loose objects under `path`, which is laid out
	as a bare repository.  Pass `path/.git` to get a non-bare layout instead.
*/
func NewDiskRepo(path string) *Repo {
	if err := os.MkdirAll(filepath.Join(path, "objects", "pack"), 0755); err != nil {
		panic(err)
	}
	return NewRepo(filesystem.NewStorage(srcd_osfs.New(path), cache.NewObjectLRUDefault()))
}

func NewRepo(s storer.EncodedObjectStorer) *Repo {
	return &Repo{
		Storer: s,
		clock:  time.Date(2019, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}

type Entry struct {
	Name string
	ID   object.ID
	Mode filemode.FileMode
}

func File(name string, id object.ID) Entry { return Entry{name, id, filemode.Regular} }
func Dir(name string, id object.ID) Entry  { return Entry{name, id, filemode.Dir} }
func Link(name string, id object.ID) Entry { return Entry{name, id, filemode.Submodule} }

func (r *Repo) Blob(content string) object.ID {
	obj := r.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		panic(err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return r.store(obj)
}

// Entries are stored in the order given.
func (r *Repo) Tree(entries ...Entry) object.ID {
	tree := &srcd_object.Tree{}
	for _, e := range entries {
		tree.Entries = append(tree.Entries, srcd_object.TreeEntry{
			Name: e.Name,
			Mode: e.Mode,
			Hash: plumbing.Hash(e.ID),
		})
	}
	obj := r.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		panic(err)
	}
	return r.store(obj)
}

// Commit with an empty tree.  Each call ticks the fixture clock by a minute.
func (r *Repo) Commit(message string, parents ...object.ID) object.ID {
	return r.CommitTree(message, r.Tree(), parents...)
}

func (r *Repo) CommitTree(message string, tree object.ID, parents ...object.ID) object.ID {
	r.clock = r.clock.Add(time.Minute)
	sig := srcd_object.Signature{Name: "webodb", Email: "webodb@example.com", When: r.clock}
	commit := &srcd_object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   message,
		TreeHash:  plumbing.Hash(tree),
	}
	for _, p := range parents {
		commit.ParentHashes = append(commit.ParentHashes, plumbing.Hash(p))
	}
	obj := r.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		panic(err)
	}
	return r.store(obj)
}

// An annotated tag pointing at the given commit.
func (r *Repo) Tag(name string, target object.ID) object.ID {
	r.clock = r.clock.Add(time.Minute)
	tag := &srcd_object.Tag{
		Name:       name,
		Tagger:     srcd_object.Signature{Name: "webodb", Email: "webodb@example.com", When: r.clock},
		Message:    name + "\n",
		TargetType: plumbing.CommitObject,
		Target:     plumbing.Hash(target),
	}
	obj := r.Storer.NewEncodedObject()
	if err := tag.Encode(obj); err != nil {
		panic(err)
	}
	return r.store(obj)
}

func (r *Repo) store(obj plumbing.EncodedObject) object.ID {
	h, err := r.Storer.SetEncodedObject(obj)
	if err != nil {
		panic(err)
	}
	return object.ID(h)
}

/*
	The history from the original exchange fixtures:

		merge ("Merge branch 'test' into HEAD")
		 |  \
		 |   other ("commit in other branch")
		 |    |
		 second ("commit 2")
		 |  /
		 root ("commit message")

	Merge's parents are declared other-first, then second,
	matching the fixture repo's parent order.
*/
type History struct {
	Root, Second, Other, Merge object.ID
}

func (r *Repo) ExchangeHistory() History {
	var h History
	h.Root = r.Commit("commit message")
	h.Second = r.Commit("commit 2", h.Root)
	h.Other = r.Commit("commit in other branch", h.Root)
	h.Merge = r.Commit("Merge branch 'test' into HEAD", h.Other, h.Second)
	return h
}
