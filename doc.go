/*
	webodb enumerates objects out of a content-addressed version-control
	object store in answer to a client's "want" queries.

	A client asks for a base object plus a traversal mode -- N generations of
	commit ancestry, a full tree peel, or a single blob -- and the server answers
	with a deduplicated, ordered sequence of pushed objects.

	The packages are layered leaf-first:

	  - `object` -- ids, kinds, and the commit/tree/blob model.
	  - `store` and `store/gitstore` -- read-only object lookup, backed by go-git storage.
	  - `resolve` -- the traversal engine; a lazy cursor per query.
	  - `api` -- the command algebra (ClientCommand, WantQuery, ServerCommand) and monitor events.
	  - `session` -- dispatches a ClientCommand into a stream of ServerCommands.
	  - `pack` -- writes a set of pushed objects as a git packfile.
	  - `cmd/webodb` -- the CLI.

	This package itself only holds the error categories and exit codes that all
	the others share.
*/
package webodb
