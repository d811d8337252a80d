//go:build basic || database || integration

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedMergespotPath holds the path to a shared mergespot binary built once for all tests.
	sharedMergespotPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getMergespotBinary returns the path to the mergespot binary, building it once if needed.
func getMergespotBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "mergespot-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "mergespot")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build mergespot: %v", err))
		}

		sharedMergespotPath = binPath
	})

	return sharedMergespotPath
}

// git runs a git command inside dir and fails the test on error.
// Merge conflicts are expected by some callers, so those pass allowFail.
func git(t *testing.T, dir string, allowFail bool, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Merge Tester", "GIT_AUTHOR_EMAIL=tester@example.com",
		"GIT_COMMITTER_NAME=Merge Tester", "GIT_COMMITTER_EMAIL=tester@example.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil && !allowFail {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newConflictRepo creates a repository whose history holds one merge that
// conflicted on store.go. The resolution rewrites line 2, so the merge commit
// owns exactly that line.
func newConflictRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	git(t, dir, false, "init", "-q", "-b", "main")
	writeFile(t, dir, "store.go", "package store\nvar x = 1\n")
	writeFile(t, dir, "README.md", "# demo\n")
	git(t, dir, false, "add", ".")
	git(t, dir, false, "commit", "-q", "-m", "initial")

	git(t, dir, false, "checkout", "-q", "-b", "feature")
	writeFile(t, dir, "store.go", "package store\nvar x = 3\n")
	git(t, dir, false, "commit", "-q", "-am", "feature change")

	git(t, dir, false, "checkout", "-q", "main")
	writeFile(t, dir, "store.go", "package store\nvar x = 2\n")
	git(t, dir, false, "commit", "-q", "-am", "main change")

	git(t, dir, true, "merge", "-q", "feature")
	writeFile(t, dir, "store.go", "package store\nvar x = 23\n")
	git(t, dir, false, "add", "store.go")
	git(t, dir, false, "commit", "-q", "-m", "merge feature")
	return dir
}

// runMergespot runs the shared binary with HOME pointed at home so SQLite
// databases stay inside the test sandbox.
func runMergespot(t *testing.T, home string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getMergespotBinary(), args...)
	cmd.Env = append(append(os.Environ(), "HOME="+home), env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}
