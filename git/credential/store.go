// Package credential provides sources of credentials for network operations
// of a git.Repository: a YAML file of saved credentials and a bridge to the
// `git credential` helpers configured on the machine.
//
// Values returned by both sources satisfy git.Credential, so a RemoteProgress
// can hand them straight to a clone, fetch or push:
//
//	store := credential.NewStore(path)
//	if err := store.Load(); err != nil {
//	    return err
//	}
//
//	func (p *progress) GetCredential() git.Credential {
//	    if entry, ok := p.store.ForURL(p.url); ok {
//	        return entry
//	    }
//	    return nil
//	}
package credential

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	platformerrors "github.com/light-tech/MiniGit/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the location of the store relative to the XDG config home.
const DefaultFile = "minigit/credentials.yaml"

// Kind is the authentication method of an entry.
type Kind string

const (
	// KindPassword entries carry a username and password.
	KindPassword Kind = "password"
	// KindSSH entries carry a key pair. They are stored but cannot be used
	// for authentication yet.
	KindSSH Kind = "ssh"
)

// Entry is one saved credential. It applies to every remote URL that starts
// with TargetURL.
type Entry struct {
	ID        string `yaml:"id"`
	Kind      Kind   `yaml:"kind"`
	TargetURL string `yaml:"target_url"`

	User   string `yaml:"username,omitempty"`
	Secret string `yaml:"password,omitempty"`

	PublicKey  string `yaml:"public_key,omitempty"`
	PrivateKey string `yaml:"private_key,omitempty"`
}

func (e Entry) IsUsernamePasswordMethod() bool {
	return e.Kind == KindPassword
}

func (e Entry) UserName() string {
	return e.User
}

func (e Entry) Password() string {
	return e.Secret
}

// Store is a list of entries persisted as a YAML file. Lookups go through
// the in-memory list; every change is written back immediately.
//
// A Store is not safe for concurrent use.
type Store struct {
	fs      billy.Filesystem
	path    string
	entries []Entry
}

// StoreOption configures a Store created with NewStore.
type StoreOption func(*Store)

// WithFilesystem sets the filesystem the store file lives on. If not
// provided, defaults to the local filesystem.
func WithFilesystem(fs billy.Filesystem) StoreOption {
	return func(s *Store) {
		s.fs = fs
	}
}

// NewStore returns an empty store backed by the file at path. Call Load to
// read existing entries.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = osfs.New("/")
	}
	return s
}

// DefaultPath returns $XDG_CONFIG_HOME/minigit/credentials.yaml, creating
// the parent directory when needed.
func DefaultPath() (string, error) {
	path, err := xdg.ConfigFile(DefaultFile)
	if err != nil {
		return "", platformerrors.Wrap(err, platformerrors.CodeInvalidConfig,
			"failed to resolve credential store location")
	}
	return path, nil
}

// Path returns the location of the store file.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory entries with the content of the file. A
// missing file is an empty store.
func (s *Store) Load() error {
	data, err := util.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.entries = nil
		return nil
	}
	if err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to read %s", s.path)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "failed to parse %s", s.path)
	}

	s.entries = entries
	return nil
}

// Save writes the entries to the file, readable by the owner only.
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to encode credentials")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to create %s", dir)
		}
	}
	if err := util.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to write %s", s.path)
	}
	return nil
}

// Entries returns a copy of the entries in insertion order.
func (s *Store) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Add appends e and saves the store. The ID must be set and unique.
func (s *Store) Add(e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	if s.index(e.ID) >= 0 {
		return platformerrors.Newf(platformerrors.CodeAlreadyExists, "credential %q already exists", e.ID)
	}

	s.entries = append(s.entries, e)
	return s.Save()
}

// Update replaces the entry with the given ID by e, keeping its position,
// and saves the store. e may carry a new ID as long as it stays unique.
func (s *Store) Update(id string, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	i := s.index(id)
	if i < 0 {
		return platformerrors.Newf(platformerrors.CodeNotFound, "credential %q not found", id)
	}
	if j := s.index(e.ID); j >= 0 && j != i {
		return platformerrors.Newf(platformerrors.CodeAlreadyExists, "credential %q already exists", e.ID)
	}

	s.entries[i] = e
	return s.Save()
}

// Remove deletes the entry with the given ID and saves the store.
func (s *Store) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return platformerrors.Newf(platformerrors.CodeNotFound, "credential %q not found", id)
	}

	s.entries = slices.Delete(s.entries, i, i+1)
	return s.Save()
}

// ForURL returns the first entry whose target URL is a prefix of url.
func (s *Store) ForURL(url string) (Entry, bool) {
	for _, e := range s.entries {
		if strings.HasPrefix(url, e.TargetURL) {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool {
		return e.ID == id
	})
}

func validate(e Entry) error {
	switch {
	case e.ID == "":
		return platformerrors.New(platformerrors.CodeInvalidInput, "credential ID must not be empty")
	case e.Kind != KindPassword && e.Kind != KindSSH:
		return platformerrors.Newf(platformerrors.CodeInvalidInput, "unknown credential kind %q", e.Kind)
	}
	return nil
}
