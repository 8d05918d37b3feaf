package honeycomb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *FileStore) {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	clock := &stubClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]ManagerOption{WithManagerClock(clock)}, opts...)
	return NewManager(store, []byte("test_secret"), opts...), store
}

func TestWriteRead_RoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, map[string]any{
		"broadcast_status": "live",
		"alerts":           []any{"low_treasury"},
	}, "dj_bee"))

	state, err := m.Read(ctx)
	require.NoError(t, err)
	assert.False(t, state.Unverified)
	assert.False(t, state.Legacy)
	assert.Equal(t, "live", state.Data["broadcast_status"])

	meta, ok := state.Data["_meta"].(map[string]any)
	require.True(t, ok, "write must stamp _meta")
	assert.Equal(t, "dj_bee", meta["last_updated_by"])
	assert.Equal(t, "2026-03-01T12:00:00Z", meta["last_updated"])
}

func TestRead_MissingArtifactIsEmpty(t *testing.T) {
	m, _ := newTestManager(t)

	state, err := m.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Data)
	assert.False(t, state.Unverified)
}

func TestRead_CorruptArtifactIsEmpty(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, StateDocument, []byte("{not json at all")))

	state, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Data)
}

func TestRead_LegacyUnsignedDocument(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, StateDocument, []byte(`{"broadcast_status":"off_air"}`)))

	state, err := m.Read(ctx)
	require.NoError(t, err)
	assert.True(t, state.Legacy)
	assert.True(t, state.Unverified)
	assert.Equal(t, "off_air", state.Data["broadcast_status"])
}

func TestRead_TamperedSignature_FailOpenFlagsUnverified(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, map[string]any{"broadcast_status": "live"}, "dj_bee"))

	// Flip a byte of the stored signature.
	raw, err := store.Read(ctx, StateDocument)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	sig := []byte(env.Signature)
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}
	env.Signature = string(sig)
	tampered, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, StateDocument, tampered))

	state, err := m.Read(ctx)
	require.NoError(t, err)
	assert.True(t, state.Unverified, "mismatch must be detected and flagged")
	assert.Equal(t, "live", state.Data["broadcast_status"])
}

func TestRead_TamperedData_FailClosedRefuses(t *testing.T) {
	m, store := newTestManager(t, FailClosed())
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, map[string]any{"treasury": 100.0}, "treasurer_bee"))

	// Edit the data without re-signing.
	raw, err := store.Read(ctx, StateDocument)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	env.Data["treasury"] = 1000000.0
	tampered, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, StateDocument, tampered))

	_, err = m.Read(ctx)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestSign_IndependentOfFieldOrder(t *testing.T) {
	m, _ := newTestManager(t)

	a, err := m.sign(map[string]any{"alpha": 1.0, "beta": "two", "gamma": true})
	require.NoError(t, err)
	b, err := m.sign(map[string]any{"gamma": true, "alpha": 1.0, "beta": "two"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWrite_DoesNotMutateCallerMap(t *testing.T) {
	m, _ := newTestManager(t)

	doc := map[string]any{"broadcast_status": "live"}
	require.NoError(t, m.Write(context.Background(), doc, "dj_bee"))
	_, stamped := doc["_meta"]
	assert.False(t, stamped)
}

func TestWrite_ReplacesWholeDocument(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, map[string]any{"first": true}, "a_bee"))
	require.NoError(t, m.Write(ctx, map[string]any{"second": true}, "b_bee"))

	state, err := m.Read(ctx)
	require.NoError(t, err)
	_, hasFirst := state.Data["first"]
	assert.False(t, hasFirst, "writes replace the whole document")
	assert.Equal(t, true, state.Data["second"])
}

func TestEnvelope_CarriesVersion(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, map[string]any{}, "bee"))

	raw, err := store.Read(ctx, StateDocument)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, EnvelopeVersion, env.Ver)
	assert.NotEmpty(t, env.Signature)
}

func TestFileStore_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), "state.json", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestFileStore_ReadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read(context.Background(), "state.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_RoundTripBytes(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	payload := []byte(`{"hello":"world"}`)
	require.NoError(t, store.Write(ctx, "doc.json", payload))

	got, err := store.Read(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Writing into a nested path component is not supported; names are flat.
	_, err = os.Stat(filepath.Join(store.Dir(), "doc.json"))
	assert.NoError(t, err)
}
