// Package workspace locates the enclosing git checkout. Toolchains install
// next to it, in the checkout's parent directory.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"
)

var ErrNotAGitRepo = errors.New("not a git repository")

type Workspace struct {
	// Root is the worktree toplevel.
	Root string
	// Prefix is the start directory relative to Root with a trailing slash,
	// empty at the toplevel.
	Prefix string
}

// Open finds the repository containing dir, searching parent directories.
func Open(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotAGitRepo)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	root := resolve(worktree.Filesystem.Root())
	rel, err := filepath.Rel(root, resolve(abs))
	if err != nil {
		return nil, err
	}
	prefix := ""
	if rel != "." && !strings.HasPrefix(rel, "..") {
		prefix = filepath.ToSlash(rel) + "/"
	}
	log.Debug().Str("op", "workspace/workspace").Msgf("toplevel %s prefix %q", root, prefix)
	return &Workspace{Root: root, Prefix: prefix}, nil
}

// InstallDir is where downloaded toolchains go: the toplevel's parent.
func (w *Workspace) InstallDir() string {
	return filepath.Dir(w.Root)
}

// DefaultInstallDir returns the install directory for dir, or dir itself when
// it is not inside a repository.
func DefaultInstallDir(dir string) string {
	w, err := Open(dir)
	if err != nil {
		log.Debug().Str("op", "workspace/workspace").Err(err).Msg("falling back to the working directory")
		return dir
	}
	return w.InstallDir()
}

func resolve(path string) string {
	if r, err := filepath.EvalSymlinks(path); err == nil {
		return r
	}
	return path
}
