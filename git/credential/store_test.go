package credential

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	platformerrors "github.com/light-tech/MiniGit/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storePath = "/home/user/.config/minigit/credentials.yaml"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(storePath, WithFilesystem(memfs.New()))
	require.NoError(t, store.Load())
	return store
}

func githubEntry() Entry {
	return Entry{
		ID:        "github",
		Kind:      KindPassword,
		TargetURL: "https://github.com/",
		User:      "octocat",
		Secret:    "hunter2",
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	assert.Empty(t, store.Entries())
}

func TestStore_AddPersists(t *testing.T) {
	fs := memfs.New()
	store := NewStore(storePath, WithFilesystem(fs))
	require.NoError(t, store.Add(githubEntry()))

	reloaded := NewStore(storePath, WithFilesystem(fs))
	require.NoError(t, reloaded.Load())
	require.Len(t, reloaded.Entries(), 1)
	assert.Equal(t, githubEntry(), reloaded.Entries()[0])

	data, err := util.ReadFile(fs, storePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "target_url: https://github.com/")
	assert.Contains(t, string(data), "username: octocat")
}

func TestStore_AddValidation(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		code  platformerrors.ErrorCode
	}{
		{
			name:  "empty id",
			entry: Entry{Kind: KindPassword, TargetURL: "https://example.com/"},
			code:  platformerrors.CodeInvalidInput,
		},
		{
			name:  "unknown kind",
			entry: Entry{ID: "x", Kind: "token", TargetURL: "https://example.com/"},
			code:  platformerrors.CodeInvalidInput,
		},
		{
			name:  "duplicate id",
			entry: githubEntry(),
			code:  platformerrors.CodeAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			require.NoError(t, store.Add(githubEntry()))

			err := store.Add(tt.entry)
			require.Error(t, err)
			assert.Equal(t, tt.code, platformerrors.GetCode(err))
			assert.Len(t, store.Entries(), 1)
		})
	}
}

func TestStore_Update(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add(githubEntry()))
	require.NoError(t, store.Add(Entry{ID: "gitlab", Kind: KindPassword, TargetURL: "https://gitlab.com/"}))

	updated := githubEntry()
	updated.Secret = "new-token"
	require.NoError(t, store.Update("github", updated))

	entries := store.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "github", entries[0].ID)
	assert.Equal(t, "new-token", entries[0].Password())

	t.Run("unknown id", func(t *testing.T) {
		err := store.Update("bitbucket", updated)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})

	t.Run("renaming onto another id", func(t *testing.T) {
		renamed := githubEntry()
		renamed.ID = "gitlab"
		err := store.Update("github", renamed)
		assert.Equal(t, platformerrors.CodeAlreadyExists, platformerrors.GetCode(err))
	})
}

func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add(githubEntry()))

	require.NoError(t, store.Remove("github"))
	assert.Empty(t, store.Entries())

	err := store.Remove("github")
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
}

func TestStore_ForURL(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add(Entry{ID: "org", Kind: KindPassword, TargetURL: "https://github.com/acme/", User: "acme"}))
	require.NoError(t, store.Add(githubEntry()))

	tests := []struct {
		name   string
		url    string
		wantID string
	}{
		{name: "first matching prefix wins", url: "https://github.com/acme/app.git", wantID: "org"},
		{name: "broader prefix", url: "https://github.com/other/app.git", wantID: "github"},
		{name: "no match", url: "https://gitlab.com/acme/app.git"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := store.ForURL(tt.url)
			if tt.wantID == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, entry.ID)
		})
	}
}

func TestStore_LoadInvalidYAML(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, storePath, []byte("id: [unterminated"), 0o600))

	err := NewStore(storePath, WithFilesystem(fs)).Load()
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))
}

func TestEntry_Credential(t *testing.T) {
	entry := githubEntry()
	assert.True(t, entry.IsUsernamePasswordMethod())
	assert.Equal(t, "octocat", entry.UserName())
	assert.Equal(t, "hunter2", entry.Password())

	ssh := Entry{ID: "ssh", Kind: KindSSH, TargetURL: "git@github.com:"}
	assert.False(t, ssh.IsUsernamePasswordMethod())
}
