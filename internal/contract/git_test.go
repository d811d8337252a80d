package contract

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// repoRootOrSkip returns the enclosing repository root, skipping when the tests
// are not run from inside a Git checkout.
func repoRootOrSkip(t *testing.T, client *LocalGitClient) string {
	t.Helper()
	skipIfGitNotAvailable(t)
	root, err := client.GetRepoRoot(context.Background(), ".")
	if err != nil {
		t.Skipf("not inside a git repository: %v", err)
	}
	return root
}

// TestMockGitClient_Run ensures the mock correctly records and returns
// expected values when its Run method is called.
func TestMockGitClient_Run(t *testing.T) {
	// 1. Setup the Mock
	mockClient := new(MockGitClient)

	// Define the expected input arguments for the mock's 'Run' method.
	const expectedRepoPath = "/path/to/repo"
	expectedArgs := []string{"log", "-1", "--oneline"}

	// Define the expected output values.
	expectedOutput := []byte("a1b2c3d commit message")
	expectedError := errors.New("mocked git error")

	// The `Run` method implementation in MockGitClient converts the inputs
	// (repoPath string, args ...string) into a single []interface{} array
	// for `m.Called()`. We must match this structure in `.On()`.

	// Prepare the exact arguments that will be passed to m.Called() inside MockGitClient.Run()
	var calledArgs []any
	ctx := context.Background()
	calledArgs = append(calledArgs, ctx, expectedRepoPath)
	for _, arg := range expectedArgs {
		calledArgs = append(calledArgs, arg)
	}

	// 2. Program the Mock Behavior
	mockClient.
		On("Run", calledArgs...).              // Expect a call with these arguments.
		Return(expectedOutput, expectedError). // Program the values to return.
		Once()                                 // Expect the call to happen exactly once.

	// 3. Execute the Code Under Test (i.e., call the mock method)
	actualOutput, actualError := mockClient.Run(ctx, expectedRepoPath, expectedArgs...)

	// 4. Assertions

	// Verify that the returned values match the programmed values.
	assert.Equal(t, expectedOutput, actualOutput, "Run should return the programmed output")
	assert.Equal(t, expectedError, actualError, "Run should return the programmed error")

	// Verify that the expected method call actually occurred.
	// This confirms that the logic within MockGitClient.Run correctly called m.Called()
	// with the expected arguments, matching the .On() setup.
	mockClient.AssertExpectations(t)
}

// TestNewLocalGitClient tests the constructor for LocalGitClient.
func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client, "NewLocalGitClient should return a non-nil client")
	assert.IsType(t, &LocalGitClient{}, client, "NewLocalGitClient should return a LocalGitClient instance")
}

// TestMockGitClient_GetMergeLog ensures the typed mock passes the window through.
func TestMockGitClient_GetMergeLog(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mockClient.On("GetMergeLog", ctx, "/repo", since, time.Time{}).Return([]byte("commit abc\n"), nil).Once()
	mockClient.On("GetBlame", ctx, "/repo", "a.go").Return(nil, errors.New("no such path")).Once()

	out, err := mockClient.GetMergeLog(ctx, "/repo", since, time.Time{})
	assert.NoError(t, err)
	assert.Equal(t, "commit abc\n", string(out))

	out, err = mockClient.GetBlame(ctx, "/repo", "a.go")
	assert.Error(t, err)
	assert.Nil(t, out)

	mockClient.AssertExpectations(t)
}

// TestLocalGitClient_Run tests the Run method with various scenarios.
func TestLocalGitClient_Run(t *testing.T) {
	client := NewLocalGitClient()
	ctx := context.Background()
	repoRoot := repoRootOrSkip(t, client)

	tests := []struct {
		name        string
		repoPath    string
		args        []string
		expectError bool
	}{
		{
			name:        "invalid repo path",
			repoPath:    "/nonexistent/path",
			args:        []string{"status"},
			expectError: true,
		},
		{
			name:        "invalid git command",
			repoPath:    repoRoot,
			args:        []string{"invalid-command"},
			expectError: true,
		},
		{
			name:     "valid command",
			repoPath: repoRoot,
			args:     []string{"rev-parse", "--is-inside-work-tree"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Run(ctx, tt.repoPath, tt.args...)
			if tt.expectError {
				assert.Error(t, err, "Run should return an error for %s", tt.name)
			} else {
				assert.NoError(t, err, "Run should not return an error for %s", tt.name)
			}
		})
	}
}

// TestLocalGitClient_GetRepoRoot tests the GetRepoRoot method.
func TestLocalGitClient_GetRepoRoot(t *testing.T) {
	client := NewLocalGitClient()
	ctx := context.Background()
	root := repoRootOrSkip(t, client)

	root2, err := client.GetRepoRoot(ctx, root)
	assert.NoError(t, err, "GetRepoRoot should not return an error for absolute path")
	assert.Equal(t, root, root2, "GetRepoRoot should return the same root for absolute path")

	_, err = client.GetRepoRoot(ctx, "/nonexistent/path")
	assert.Error(t, err, "GetRepoRoot should return an error for non-git directory")
}

// TestLocalGitClient_GetRepoHash tests the GetRepoHash method.
func TestLocalGitClient_GetRepoHash(t *testing.T) {
	client := NewLocalGitClient()
	root := repoRootOrSkip(t, client)

	hash, err := client.GetRepoHash(context.Background(), root)
	if err != nil {
		t.Skipf("repository has no commits: %v", err)
	}
	assert.Len(t, hash, 40)
}

// TestLocalGitClient_GetMergeLog tests the GetMergeLog method.
func TestLocalGitClient_GetMergeLog(t *testing.T) {
	client := NewLocalGitClient()
	ctx := context.Background()
	root := repoRootOrSkip(t, client)

	// The log may be empty if there are no merges in range, but should not error
	_, err := client.GetMergeLog(ctx, root, time.Now().AddDate(0, -1, 0), time.Now())
	assert.NoError(t, err, "GetMergeLog should not return an error")

	_, err = client.GetMergeLog(ctx, root, time.Time{}, time.Time{})
	assert.NoError(t, err, "GetMergeLog should not return an error with zero times")
}

// TestLocalGitClient_GetBlame tests the GetBlame method.
func TestLocalGitClient_GetBlame(t *testing.T) {
	client := NewLocalGitClient()
	ctx := context.Background()
	root := repoRootOrSkip(t, client)

	_, err := client.GetBlame(ctx, root, "definitely-nonexistent-file-12345.txt")
	assert.Error(t, err, "GetBlame should return an error for a missing file")
}
