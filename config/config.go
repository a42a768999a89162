/*
	Helpers for loading contextual config.

	Config for webodb means "things that are the host machine operator's concerns":
	where repositories live and how much memory to spend caching objects.
	Everything about *what* to serve arrives in commands, never in config.
*/
package config

import (
	"os"
	"strconv"

	. "github.com/warpfork/go-errcat"
	"gopkg.in/src-d/go-git.v4/plumbing/cache"

	"github.com/polydawn/webodb"
)

/*
	Return the path of the repository to serve from when none is given.

	The default value is `"."`;
	this can be overriden by the `WEBODB_REPO` environment variable.
*/
func GetRepoPath() string {
	pth := os.Getenv("WEBODB_REPO")
	if pth == "" {
		return "."
	}
	return pth
}

/*
	Return the size of the in-memory object cache used when reading repositories.

	The default is go-git's default object cache size;
	this can be overriden by the `WEBODB_OBJECT_CACHE` environment variable,
	which is a whole number of MiB.
*/
func GetObjectCacheSize() (cache.FileSize, error) {
	str := os.Getenv("WEBODB_OBJECT_CACHE")
	if str == "" {
		return cache.DefaultMaxSize, nil
	}
	mib, err := strconv.ParseUint(str, 10, 32)
	if err != nil || mib == 0 {
		return 0, Errorf(webodb.ErrUsage, "WEBODB_OBJECT_CACHE must be a positive number of MiB, not %q", str)
	}
	return cache.FileSize(mib) * cache.MiByte, nil
}
