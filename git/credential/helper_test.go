package credential

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	platformerrors "github.com/light-tech/MiniGit/errors"
	"github.com/light-tech/MiniGit/exec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit answers git credential invocations with canned output.
type fakeGit struct {
	stdout string
	err    error

	args  [][]string
	input []string
	stdin io.Reader
}

func (f *fakeGit) WithEnv(map[string]string) exec.Executor   { return f }
func (f *fakeGit) WithDir(string) exec.Executor              { return f }
func (f *fakeGit) WithContext(context.Context) exec.Executor { return f }
func (f *fakeGit) WithTimeout(time.Duration) exec.Executor   { return f }
func (f *fakeGit) WithInheritEnv() exec.Executor             { return f }
func (f *fakeGit) Clone() exec.Executor                      { return f }

func (f *fakeGit) WithStdin(r io.Reader) exec.Executor {
	f.stdin = r
	return f
}

func (f *fakeGit) Run(args ...string) (*exec.Result, error) {
	f.args = append(f.args, args)
	if f.stdin != nil {
		data, _ := io.ReadAll(f.stdin)
		f.input = append(f.input, string(data))
		f.stdin = nil
	}
	return &exec.Result{Stdout: f.stdout}, f.err
}

func TestHelper_Fill(t *testing.T) {
	fake := &fakeGit{stdout: "protocol=https\nhost=github.com\nusername=octocat\npassword=s3cr=t\n"}
	helper := NewHelper(fake)

	cred, err := helper.Fill("https://github.com/acme/app.git")
	require.NoError(t, err)

	assert.True(t, cred.IsUsernamePasswordMethod())
	assert.Equal(t, "octocat", cred.UserName())
	assert.Equal(t, "s3cr=t", cred.Password())

	require.Len(t, fake.args, 1)
	assert.Equal(t, []string{"credential", "fill"}, fake.args[0])
	assert.Equal(t, "url=https://github.com/acme/app.git\n\n", fake.input[0])
}

func TestHelper_FillWithoutPassword(t *testing.T) {
	helper := NewHelper(&fakeGit{stdout: "protocol=https\nhost=github.com\n"})

	cred, err := helper.Fill("https://github.com/acme/app.git")
	assert.Nil(t, cred)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
}

func TestHelper_FillCommandFails(t *testing.T) {
	helper := NewHelper(&fakeGit{err: errors.New("exit status 128")})

	_, err := helper.Fill("https://github.com/acme/app.git")
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeExecutionFailed, platformerrors.GetCode(err))
}

func TestHelper_ApproveAndReject(t *testing.T) {
	fake := &fakeGit{}
	helper := NewHelper(fake)
	cred := githubEntry()

	require.NoError(t, helper.Approve("https://github.com/acme/app.git", cred))
	require.NoError(t, helper.Reject("https://github.com/acme/app.git", cred))

	require.Len(t, fake.args, 2)
	assert.Equal(t, []string{"credential", "approve"}, fake.args[0])
	assert.Equal(t, []string{"credential", "reject"}, fake.args[1])

	want := "url=https://github.com/acme/app.git\nusername=octocat\npassword=hunter2\n\n"
	assert.Equal(t, []string{want, want}, fake.input)
}

func TestParseAttributes(t *testing.T) {
	attrs := parseAttributes("username=a\r\npassword=b\n\nignored=c\n")
	assert.Equal(t, map[string]string{"username": "a", "password": "b"}, attrs)
}
