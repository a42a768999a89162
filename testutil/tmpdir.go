package testutil

import (
	"os"
	"path/filepath"
)

/*
	Creates a temp dir, calls fn with its absolute path, and removes it after.
*/
func WithTmpdir(fn func(tmpDir string)) {
	tmpBase := "/tmp/webodb-test"
	if err := os.MkdirAll(tmpBase, 0755); err != nil {
		panic(err)
	}
	tmpDir, err := os.MkdirTemp(tmpBase, "")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)
	tmpDir, err = filepath.Abs(tmpDir)
	if err != nil {
		panic(err)
	}
	fn(tmpDir)
}
