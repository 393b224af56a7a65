package persist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanmccall/pokerclock/go/internal/push"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	device := uuid.New()
	override := int64((25 * time.Minute).Milliseconds())
	recs := []Record{{
		RoomID:      uuid.New(),
		Created:     time.Now().Add(-time.Hour).UTC(),
		Structure:   "Nightly NLHE",
		Level:       4,
		Paused:      false,
		RemainingMS: (13 * time.Minute).Milliseconds(),
		AsOf:        time.Now().UTC(),
		OverrideMS:  &override,
		Subscriptions: map[uuid.UUID]push.Subscription{
			device: {Endpoint: "https://push.example/a", Keys: push.Keys{Auth: "x", P256dh: "y"}},
		},
	}}

	require.NoError(t, Save(dir, recs))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, recs[0].RoomID, got.RoomID)
	assert.Equal(t, "Nightly NLHE", got.Structure)
	assert.Equal(t, 4, got.Level)
	assert.Equal(t, 13*time.Minute, got.Remaining())
	require.NotNil(t, got.Override())
	assert.Equal(t, 25*time.Minute, *got.Override())
	assert.Equal(t, "https://push.example/a", got.Subscriptions[device].Endpoint)
}

func TestLoadMovesFileAside(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, []Record{{RoomID: uuid.New(), Structure: "Nightly TOC", Level: 1}}))

	_, err := Load(dir)
	require.NoError(t, err)

	// second load sees nothing; the original file became the backup
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = os.Stat(filepath.Join(dir, FileName+".backup"))
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	recs, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestLoadCorruptFileIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644))

	recs, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// the bad file is still moved aside
	_, statErr := os.Stat(filepath.Join(dir, FileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveNothingWritesNothing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, nil))

	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.True(t, os.IsNotExist(err))
}
