package sandbox

import (
	"os"
	"path/filepath"
	"testing"
)

// writeStub writes an executable shell script standing in for the compiler.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub-compiler")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing stub compiler: %v", err)
	}
	return path
}

// echoEntryStub prints the value passed with -e, without a trailing newline.
const echoEntryStub = `while [ $# -gt 0 ]; do
  if [ "$1" = "-e" ]; then printf '%s' "$2"; fi
  shift
done`

func directSandbox(t *testing.T, compiler string) (*Sandbox, string) {
	t.Helper()
	root := t.TempDir()
	sb := NewWithBuilder(&DirectBuilder{Compiler: compiler}, 0, root, nil)
	return sb, root
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	if len(entries) != 0 {
		t.Errorf("expected %s to be empty, found %d entries (first %q)", dir, len(entries), entries[0].Name())
	}
}

func dirExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
