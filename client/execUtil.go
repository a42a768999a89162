package client

import (
	"errors"
	"os/exec"
	"syscall"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/webodb"
)

// Wait for the child and turn how it ended into an exit code.
// Death by signal is always a breakdown; we never send one except on cancel.
func waitFor(cmd *exec.Cmd) (webodb.ExitCode, error) {
	err := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return webodb.ExitSuccess, nil
	case !errors.As(err, &exitErr):
		return webodb.ExitUnknown, Errorf(webodb.ErrRPCBreakdown, "fork webodb: wait failed: %s", err)
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return webodb.ExitCode(code), nil
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return webodb.ExitCode(128 + int(ws.Signal())), Errorf(webodb.ErrRPCBreakdown, "fork webodb: child killed by %s", ws.Signal())
	}
	return webodb.ExitUnknown, Errorf(webodb.ErrRPCBreakdown, "fork webodb: child ended abnormally: %s", exitErr.ProcessState)
}
