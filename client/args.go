package client

import (
	"fmt"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/api"
)

/*
	Marshal a want into the argument list for a `webodb` process.

	Output is always requested in json, since that's the format the client parses.
*/
func WantArgs(repo string, query api.WantQuery) ([]string, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if repo == "" {
		return nil, Errorf(webodb.ErrUsage, "repository path must be set")
	}
	args := []string{
		"--format=json",
		"--repo=" + repo,
		"want",
		query.Base.String(),
	}
	switch query.Mode {
	case api.Mode_CommitAncestry:
		args = append(args, fmt.Sprintf("--ancestry=%d", query.Depth))
	case api.Mode_PeelTree:
		args = append(args, "--tree")
	case api.Mode_PeelBlob:
		args = append(args, "--blob")
	}
	return args, nil
}
