package testutil

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

type ConveyRequirement struct {
	Name      string
	Predicate func() bool
}

/*
	Require that the tests are not running with the "short" flag enabled.
*/
var RequiresLongRun = ConveyRequirement{"run long tests", func() bool { return !testing.Short() }}

/*
	Require than an env var *not* be set.

	We use this for things like `RequiresEnvBlank(WEBODB_TEST_SKIP_DISK)`.
*/
func RequiresEnvBlank(key string) ConveyRequirement {
	return ConveyRequirement{
		fmt.Sprintf("env %q must not be set", key),
		func() bool { return os.Getenv(key) == "" },
	}
}

/*
	Require that an env var be set.

	We use this for tests against fixtures that live outside the source tree,
	like `RequiresEnvSet("WEBODB_TEST_REPO")`.
*/
func RequiresEnvSet(key string) ConveyRequirement {
	return ConveyRequirement{
		fmt.Sprintf("env %q must be set", key),
		func() bool { return os.Getenv(key) != "" },
	}
}

/*
	Wrap a goconvey body so it only runs when every requirement holds.

	Arguments are any number of ConveyRequirement values followed by the body
	(a `func()` or `func(convey.C)`), the same shape `Convey` takes.
	When something is unmet, the body is replaced by a stub that prints
	which requirements failed and registers a skipped block.
*/
func Requires(items ...interface{}) func(c convey.C) {
	body := items[len(items)-1]
	var unmet []string
	var report bytes.Buffer
	for _, it := range items[:len(items)-1] {
		req := it.(ConveyRequirement)
		ok := req.Predicate()
		if !ok {
			unmet = append(unmet, req.Name)
		}
		fmt.Fprintf(&report, "requires %q: %v\n", req.Name, ok)
	}

	if len(unmet) > 0 {
		return func(c convey.C) {
			// A nil body makes goconvey list the block as skipped.
			convey.Convey("Unmet: "+strings.Join(unmet, ", "), nil)
			c.Println()
			c.Print(report.String())
		}
	}
	return func(c convey.C) {
		switch body := body.(type) {
		case func():
			body()
		case func(c convey.C):
			body(c)
		default:
			panic(fmt.Sprintf("testutil.Requires: unusable test body %T", body))
		}
	}
}
