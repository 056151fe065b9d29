package credential

import (
	"bufio"
	"strings"

	platformerrors "github.com/light-tech/MiniGit/errors"
	"github.com/light-tech/MiniGit/exec"
	"github.com/light-tech/MiniGit/git"
)

// Helper talks to the credential helpers configured for git through
// `git credential fill|approve|reject`.
//
// Example:
//
//	helper := credential.NewHelper(nil)
//	cred, err := helper.Fill("https://github.com/user/repo")
//	if err != nil {
//	    return err
//	}
//	// ... use cred, then
//	_ = helper.Approve("https://github.com/user/repo", cred)
type Helper struct {
	git exec.Executor
}

// NewHelper returns a Helper running commands through executor, which must
// already be bound to the git binary. A nil executor runs git from PATH
// with the parent environment and terminal prompts disabled.
func NewHelper(executor exec.Executor) *Helper {
	if executor == nil {
		executor = exec.NewWrapper(exec.New(
			exec.WithInheritEnv(),
			exec.WithEnv(map[string]string{"GIT_TERMINAL_PROMPT": "0"}),
		), "git")
	}
	return &Helper{git: executor}
}

// Fill asks the helpers for the credential of url.
func (h *Helper) Fill(url string) (git.Credential, error) {
	out, err := h.run("fill", request(url, nil))
	if err != nil {
		return nil, err
	}

	attrs := parseAttributes(out)
	if attrs["password"] == "" {
		return nil, platformerrors.Newf(platformerrors.CodeNotFound, "no credential available for %s", url)
	}
	return Entry{
		ID:        url,
		Kind:      KindPassword,
		TargetURL: url,
		User:      attrs["username"],
		Secret:    attrs["password"],
	}, nil
}

// Approve tells the helpers cred worked for url so they can store it.
func (h *Helper) Approve(url string, cred git.Credential) error {
	_, err := h.run("approve", request(url, cred))
	return err
}

// Reject tells the helpers cred was refused for url so they can forget it.
func (h *Helper) Reject(url string, cred git.Credential) error {
	_, err := h.run("reject", request(url, cred))
	return err
}

func (h *Helper) run(action, input string) (string, error) {
	result, err := h.git.WithStdin(strings.NewReader(input)).Run("credential", action)
	if err != nil {
		return "", platformerrors.Wrapf(err, platformerrors.CodeExecutionFailed, "git credential %s failed", action)
	}
	return result.Stdout, nil
}

// request encodes the key=value lines of the credential protocol,
// terminated by a blank line.
func request(url string, cred git.Credential) string {
	var b strings.Builder
	b.WriteString("url=" + url + "\n")
	if cred != nil && cred.IsUsernamePasswordMethod() {
		b.WriteString("username=" + cred.UserName() + "\n")
		b.WriteString("password=" + cred.Password() + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// parseAttributes reads key=value lines up to the first blank line.
func parseAttributes(out string) map[string]string {
	attrs := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, "=")
		if ok {
			attrs[key] = value
		}
	}
	return attrs
}
