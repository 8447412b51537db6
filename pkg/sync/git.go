package sync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// GitManager commits and pushes log changes for vaults kept under git.
type GitManager struct {
	RepoPath   string
	SSHKeyPath string
}

// NewGitManager creates a new GitManager. keyPath may be empty, in which
// case ~/.ssh/id_rsa is tried.
func NewGitManager(repoPath, keyPath string) *GitManager {
	if keyPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			keyPath = filepath.Join(home, ".ssh", "id_rsa")
		}
	}
	return &GitManager{RepoPath: repoPath, SSHKeyPath: keyPath}
}

// Sync commits all changes and pushes to the remote. A clean worktree and
// an up-to-date remote are not errors.
func (g *GitManager) Sync(message string) error {
	r, err := git.PlainOpen(g.RepoPath)
	if err != nil {
		return fmt.Errorf("failed to open repo: %w", err)
	}

	w, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	if _, err := w.Add("."); err != nil {
		return fmt.Errorf("failed to add changes: %w", err)
	}

	if message == "" {
		message = fmt.Sprintf("Update work logs %s", time.Now().Format("2006-01-02 15:04"))
	}
	_, err = w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Worklog Pilot",
			Email: "pilot@worklog.local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	err = r.Push(&git.PushOptions{Auth: g.auth()})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

func (g *GitManager) auth() transport.AuthMethod {
	if g.SSHKeyPath == "" {
		return nil
	}
	keys, err := ssh.NewPublicKeysFromFile("git", g.SSHKeyPath, "")
	if err != nil {
		// An HTTPS remote or an ssh-agent setup can still work without it.
		return nil
	}
	return keys
}
