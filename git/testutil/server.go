package testutil

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/light-tech/MiniGit/git"
	"github.com/stretchr/testify/require"
)

// Server serves repositories over the file:// scheme from memory, so clone,
// fetch and push run the real protocol without touching the disk.
//
// Installing a Server replaces the process-wide file transport until the
// test ends. Tests using it must not run in parallel.
type Server struct {
	loader server.MapLoader
}

// NewServer installs an in-process file transport and restores the
// previous one when the test finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{loader: server.MapLoader{}}
	previous, installed := client.Protocols["file"]
	client.InstallProtocol("file", server.NewClient(s.loader))

	t.Cleanup(func() {
		if installed {
			client.InstallProtocol("file", previous)
			return
		}
		client.InstallProtocol("file", nil)
	})
	return s
}

// Add serves the storage of repo at url and returns url.
func (s *Server) Add(t testing.TB, url string, repo *git.Repository) string {
	t.Helper()
	return s.serve(t, url, repo.Underlying().Storer)
}

// AddEmpty serves a repository without any commit at url.
func (s *Server) AddEmpty(t testing.TB, url string) string {
	t.Helper()
	return s.serve(t, url, memory.NewStorage())
}

func (s *Server) serve(t testing.TB, url string, sto storer.Storer) string {
	t.Helper()

	ep, err := transport.NewEndpoint(url)
	require.NoError(t, err)
	s.loader[ep.String()] = sto
	return url
}
