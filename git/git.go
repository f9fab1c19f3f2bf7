package git

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Root returns the top level of the work tree containing dir. ok is false when
// dir is not inside a repository or git is not installed.
func Root(dir string) (root string, ok bool, err error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || errors.Is(err, exec.ErrNotFound) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to run git in %s", dir)
	}
	return strings.TrimSpace(string(output)), true, nil
}
