// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// authFor picks credentials for the first remote URL: the SSH agent or a
// default key for ssh remotes, a token from the environment for https.
func authFor(urls []string) transport.AuthMethod {
	if len(urls) == 0 {
		return nil
	}
	ep, err := transport.NewEndpoint(urls[0])
	if err != nil {
		return nil
	}
	switch ep.Protocol {
	case "ssh":
		return sshAuth(ep.User)
	case "http", "https":
		return httpAuth()
	default:
		return nil
	}
}

func sshAuth(user string) transport.AuthMethod {
	if user == "" {
		user = "git"
	}
	if os.Getenv("SSH_AUTH_SOCK") != "" {
		if auth, err := ssh.NewSSHAgentAuth(user); err == nil {
			return auth
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(homeDir, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile(user, keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func httpAuth() transport.AuthMethod {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "x-access-token", Password: token}
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "oauth2", Password: token}
	}
	if token := os.Getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "git", Password: token}
	}
	return nil
}
