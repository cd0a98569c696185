package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkapoor/esshub/internal/models"
)

func TestNewStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		sessDir := filepath.Join(tmpDir, "sessions")

		store, err := NewStore(sessDir)
		require.NoError(t, err)
		assert.NotNil(t, store)

		info, err := os.Stat(sessDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("starts unauthenticated", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		assert.False(t, store.IsAuthenticated())
		_, ok := store.Token()
		assert.False(t, ok)
		_, ok = store.EmployeeID()
		assert.False(t, ok)
		_, ok = store.Profile()
		assert.False(t, ok)
	})
}

func TestStore_Save(t *testing.T) {
	t.Run("writes only provided fields", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		employeeID := "20240101000001"
		require.NoError(t, store.Save(Update{EmployeeID: &employeeID}))

		// Employee id is stored before any token exists.
		got, ok := store.EmployeeID()
		require.True(t, ok)
		assert.Equal(t, employeeID, got)
		assert.False(t, store.IsAuthenticated())

		token := "session-token"
		require.NoError(t, store.Save(Update{Token: &token}))

		// The earlier employee id survives the later partial save.
		got, ok = store.EmployeeID()
		require.True(t, ok)
		assert.Equal(t, employeeID, got)
		assert.True(t, store.IsAuthenticated())
	})

	t.Run("stores and returns the profile snapshot", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		profile := &models.UserProfile{
			EmployeeID: "20240101000001",
			FirstName:  "Rajesh",
			LastName:   "Kumar",
			Department: "Finance",
		}
		require.NoError(t, store.Save(Update{Profile: profile}))

		got, ok := store.Profile()
		require.True(t, ok)
		assert.Equal(t, profile, got)
	})

	t.Run("file permissions are restrictive", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewStore(dir)
		require.NoError(t, err)

		token := "secret"
		require.NoError(t, store.Save(Update{Token: &token}))

		info, err := os.Stat(filepath.Join(dir, "session.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("persists across store instances", func(t *testing.T) {
		dir := t.TempDir()

		store, err := NewStore(dir)
		require.NoError(t, err)
		token := "session-token"
		employeeID := "20240101000001"
		require.NoError(t, store.Save(Update{Token: &token, EmployeeID: &employeeID}))

		reopened, err := NewStore(dir)
		require.NoError(t, err)
		assert.True(t, reopened.IsAuthenticated())
		got, ok := reopened.EmployeeID()
		require.True(t, ok)
		assert.Equal(t, employeeID, got)
	})
}

func TestStore_Clear(t *testing.T) {
	t.Run("removes token, employee id and profile together", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		token := "session-token"
		employeeID := "20240101000001"
		require.NoError(t, store.Save(Update{
			Token:      &token,
			EmployeeID: &employeeID,
			Profile:    &models.UserProfile{EmployeeID: employeeID},
		}))

		require.NoError(t, store.Clear())

		assert.False(t, store.IsAuthenticated())
		_, ok := store.EmployeeID()
		assert.False(t, ok)
		_, ok = store.Profile()
		assert.False(t, ok)
	})

	t.Run("clear on an empty store succeeds", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.Clear())
	})
}
