// Package git wraps the git operations the bootstrap needs: cloning a
// manager or plugin repository and fast-forwarding an existing checkout.
package git

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
)

// IsRepo reports whether dir is a git checkout (has a .git directory).
func IsRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// Clone clones url to dest. Output is streamed to the terminal and stdin is
// connected to support interactive authentication.
func Clone(ctx context.Context, runner execx.Runner, env *envctx.Env, url, dest string) error {
	if err := runner.Run(ctx, env, "git", "clone", url, dest); err != nil {
		return errors.Wrapf(err, "cloning %s", url)
	}
	return nil
}

// Pull performs a fast-forward-only pull in dir. A checkout with local
// changes or a diverged branch fails rather than being force-updated.
func Pull(ctx context.Context, runner execx.Runner, env *envctx.Env, dir string) error {
	if err := runner.Run(ctx, env, "git", "-C", dir, "pull", "--ff-only"); err != nil {
		return errors.Wrapf(err, "updating %s", dir)
	}
	return nil
}

// CloneOrPull clones url to dest, or fast-forwards dest when it is already
// a checkout. A dest that exists but is not a git repository is an error:
// forcing over unknown content is never safe.
func CloneOrPull(ctx context.Context, runner execx.Runner, env *envctx.Env, url, dest string) error {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return Clone(ctx, runner, env, url, dest)
	}
	if !IsRepo(dest) {
		return errors.Newf("%s exists but is not a git repository", dest)
	}
	return Pull(ctx, runner, env, dest)
}
