// Package exec runs local commands behind a small, mockable interface.
//
// The repository layer uses it to talk to external git tooling that go-git
// does not replace, most notably `git credential`, which speaks a line
// protocol over stdin and stdout.
//
// # Basic Usage
//
//	e := exec.New()
//	result, err := e.Run("git", "--version")
//	if err != nil {
//		return err
//	}
//	fmt.Println(result.Stdout)
//
// # Configuration
//
// Options passed to New are global and apply to every run. The fluent With*
// methods are local to the next Run and are cleared afterwards; local values
// override global ones:
//
//	e := exec.New(exec.WithInheritEnv(), exec.WithEnv(map[string]string{"GIT_TERMINAL_PROMPT": "0"}))
//
//	result, err := e.
//		WithStdin(strings.NewReader("protocol=https\nhost=example.com\n\n")).
//		WithTimeout(10 * time.Second).
//		Run("git", "credential", "fill")
//
// # Command Wrappers
//
// NewWrapper prepends a fixed command name to every Run call:
//
//	git := exec.NewWrapper(exec.New(), "git")
//	result, err := git.Run("credential", "fill")
//
// # Errors
//
// A command that cannot start or exits non-zero returns an *ExecError along
// with whatever output was captured.
package exec
