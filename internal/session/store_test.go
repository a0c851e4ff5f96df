package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"blinddate/backend/internal/models"
	"blinddate/backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestStoreStartsIdleWithoutFile(t *testing.T) {
	store := session.NewStore(snapshotPath(t))

	snap := store.Snapshot()
	assert.Empty(t, snap.ID)
	assert.Equal(t, session.StatusIdle, snap.Status)
}

// TestStorePersistenceRoundTrip перевіряє, що новий Store з того ж файлу
// відновлює сесію після "перезапуску".
func TestStorePersistenceRoundTrip(t *testing.T) {
	path := snapshotPath(t)

	store := session.NewStore(path)
	store.Register(&models.User{
		ID:           "u-1",
		Name:         "Alex",
		Age:          24,
		Gender:       models.GenderMale,
		TargetGender: models.GenderFemale,
		InstagramID:  "@alex",
		Interests:    []string{"music"},
	})
	store.SetMatch("p-1")

	reloaded := session.NewStore(path)
	snap := reloaded.Snapshot()
	assert.Equal(t, "u-1", snap.ID)
	assert.Equal(t, "Alex", snap.Name)
	assert.Equal(t, session.StatusPaired, snap.Status)
	assert.Equal(t, "p-1", snap.PartnerID)
	assert.Equal(t, []string{"music"}, snap.Interests)
}

func TestStoreCorruptSnapshotStartsFresh(t *testing.T) {
	path := snapshotPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := session.NewStore(path)
	snap := store.Snapshot()
	assert.Empty(t, snap.ID)
	assert.Equal(t, session.StatusIdle, snap.Status)
}

// TestStoreSnapshotWithoutIdentityForcedIdle: статус без ID не має сенсу.
func TestStoreSnapshotWithoutIdentityForcedIdle(t *testing.T) {
	path := snapshotPath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"status":"matched","partner_id":"p-1"}`), 0o600))

	store := session.NewStore(path)
	snap := store.Snapshot()
	assert.Equal(t, session.StatusIdle, snap.Status)
	assert.Empty(t, snap.PartnerID)
}

func TestSetMatchWithoutIdentityIsNoOp(t *testing.T) {
	store := session.NewStore("")

	store.SetMatch("p-1")

	snap := store.Snapshot()
	assert.Equal(t, session.StatusIdle, snap.Status)
	assert.Empty(t, snap.PartnerID)
}

func TestClearMatchReturnsToIdle(t *testing.T) {
	store := session.NewStore("")
	store.Register(&models.User{ID: "u-1", Name: "Alex"})
	store.SetMatch("p-1")

	store.ClearMatch()

	snap := store.Snapshot()
	assert.Equal(t, "u-1", snap.ID, "identity survives leaving a chat")
	assert.Equal(t, session.StatusIdle, snap.Status)
	assert.Empty(t, snap.PartnerID)
}

func TestResetDropsIdentity(t *testing.T) {
	path := snapshotPath(t)
	store := session.NewStore(path)
	store.Register(&models.User{ID: "u-1", Name: "Alex"})

	store.Reset()

	assert.Empty(t, store.Snapshot().ID)

	// Після перезапуску ми так само незареєстровані.
	reloaded := session.NewStore(path)
	assert.Empty(t, reloaded.Snapshot().ID)
	assert.Equal(t, session.StatusIdle, reloaded.Snapshot().Status)
}

func TestSetProfileMergesNonZeroFields(t *testing.T) {
	store := session.NewStore("")
	store.Register(&models.User{ID: "u-1", Name: "Alex", Age: 24, InstagramID: "@alex"})

	store.SetProfile("", 25, "", "", "")

	snap := store.Snapshot()
	assert.Equal(t, "Alex", snap.Name, "empty name leaves the old value")
	assert.Equal(t, 25, snap.Age)
	assert.Equal(t, "@alex", snap.InstagramID)
}
