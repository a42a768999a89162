/*
	Runs wants against a `webodb` process, rather than in-process.

	The child is run with json output; each push it emits is decoded and
	both collected and forwarded to the monitor, and its final result message
	becomes the returned error (if any).
*/
package client

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
	"github.com/polydawn/webodb/api"
)

// Name of the binary looked up on $PATH.
var Binary = "webodb"

/*
	Resolve a want by running `webodb want` against the repository at `repo`.

	Returns the pushes in the order the process sent them.  If the process
	fails part way, the pushes received before the failure are returned
	along with the error.

	Cancelling the context interrupts the child (then kills it, if it
	lingers) and yields a `webodb.ErrCancelled` error.
*/
func Want(
	ctx context.Context, // Long-running call.  Cancellable.
	repo string, // Repository the child process should serve from.
	query api.WantQuery, // What to want.
	monitor api.Monitor, // Optionally: receives each push as it's decoded.
) ([]api.Event_Push, error) {
	args, err := WantArgs(repo, query)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, Errorf(webodb.ErrCancelled, "cancelled before start: %s", ctx.Err())
	}

	// Spawn process.
	cmd := exec.Command(Binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, Errorf(webodb.ErrRPCBreakdown, "fork webodb: failed to start: %s", err)
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	if err = cmd.Start(); err != nil {
		return nil, Errorf(webodb.ErrRPCBreakdown, "fork webodb: failed to start: %s", err)
	}

	// Set up reaction to ctx.done: send a sig to the child proc.
	//  The exited channel keeps this goroutine from outliving a graceful exit.
	exited := make(chan struct{})
	defer close(exited)
	go func() {
		select {
		case <-ctx.Done():
			cmd.Process.Signal(os.Interrupt)
			time.Sleep(100 * time.Millisecond)
			cmd.Process.Signal(os.Kill)
		case <-exited:
		}
	}()

	pushes, result, parseErr := ReadEvents(ctx, stdout, monitor)

	// Wait for process complete.
	//  The exit code SHOULD be redundant with the result we SHOULD have already
	//  deserialized... but we check that it all matches up.
	code, err := waitFor(cmd)
	if ctx.Err() != nil && (err != nil || parseErr != nil || code != webodb.ExitSuccess) {
		// We asked it to die; however it ended, that's a cancellation, not a breakdown.
		return pushes, Errorf(webodb.ErrCancelled, "cancelled after %d pushes: %s", len(pushes), ctx.Err())
	}
	if err != nil {
		return pushes, Errorf(webodb.ErrRPCBreakdown, "fork webodb: wait error: %s (stderr: %q)", err, stderrBuf.String())
	}
	if parseErr != nil {
		return pushes, parseErr
	}
	return pushes, CheckResult(code, result, stderrBuf.String())
}

/*
	Decode events from a `webodb --format=json` stream until its result message.

	Pushes are collected and forwarded to the monitor (if it has a channel).
	A nil result means the stream ended without one.
*/
func ReadEvents(ctx context.Context, r io.Reader, monitor api.Monitor) ([]api.Event_Push, *api.Event_Result, error) {
	var pushes []api.Event_Push
	unmarshaller := refmt.NewUnmarshallerAtlased(json.DecodeOptions{}, r, api.Atlas)
	for {
		// Peel off a message.
		var msg api.Event
		if err := unmarshaller.Unmarshal(&msg); err != nil {
			if err == io.EOF {
				// Most likely the child failed before serving anything;
				//  the exit code and stderr will say more than we can here.
				return pushes, nil, nil
			}
			return pushes, nil, Errorf(webodb.ErrRPCBreakdown, "fork webodb: API parse error: %s", err)
		}

		// If it's the final "result" message, we're done.
		if msg.Result != nil {
			return pushes, msg.Result, nil
		}
		if msg.Push == nil {
			continue
		}
		pushes = append(pushes, *msg.Push)
		if monitor.Chan != nil {
			select {
			case <-ctx.Done():
			case monitor.Chan <- msg:
			}
		}
	}
}

/*
	Reconcile a child's exit code with the result message it sent (if any),
	yielding the error the want should return.
*/
func CheckResult(code webodb.ExitCode, result *api.Event_Result, stderr string) error {
	if code == webodb.ExitSuccess {
		// If the exit code was success, we'd sure better have gotten the rightly formatted result message.
		if result == nil {
			return Errorf(webodb.ErrRPCBreakdown, "fork webodb: exited zero, but no clear result?! (stderr: %q)", stderr)
		}
		if result.Error != nil {
			return Errorf(webodb.ErrRPCBreakdown, "fork webodb: exited zero, but result had error, category=%s: %s", result.Error.Category, result.Error.Message)
		}
		return nil // This is the happy path return!
	}
	// For non-zero exits: Check match for sanity.
	exitCategory := webodb.CategoryForExitCode(code)
	if result == nil || result.Error == nil {
		return Errorf(exitCategory, "no message available (stderr: %q)", stderr)
	}
	if webodb.ErrorCategory(result.Error.Category) != exitCategory {
		return Errorf(exitCategory, "exit code %d disagrees with result category %q (stderr: %q)", code, result.Error.Category, stderr)
	}
	return ErrorDetailed(exitCategory, result.Error.Message, result.Error.Details) // This is the clean error path!
}
