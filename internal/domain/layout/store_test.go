package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptodesk/backend/internal/shared/types"
)

func testLayout(w, h, x, y int) types.WindowLayout {
	return types.WindowLayout{
		Size:     types.Size{Width: w, Height: h},
		Position: types.Position{X: x, Y: y},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryKV(), nil)

	saved := testLayout(500, 400, 10, 20)
	store.Save("swap", saved)

	got := store.Load("swap", testLayout(440, 460, 20, 20))
	assert.Equal(t, saved, got)
}

func TestStoreFallbackWhenAbsent(t *testing.T) {
	store := NewStore(NewMemoryKV(), nil)

	fallback := testLayout(440, 460, 20, 20)
	assert.Equal(t, fallback, store.Load("swap", fallback))
}

func TestStoreFallbackOnMalformedData(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv, nil)
	fallback := testLayout(440, 460, 20, 20)

	require.NoError(t, kv.Set("term_v1_layout_swap", "{not json"))
	assert.Equal(t, fallback, store.Load("swap", fallback))

	// Structurally invalid but well-formed JSON is also treated as absent.
	require.NoError(t, kv.Set("term_v1_layout_swap", `{"size":{"width":0,"height":0},"position":{"x":1,"y":1}}`))
	assert.Equal(t, fallback, store.Load("swap", fallback))
}

func TestStoreWindowsIndependent(t *testing.T) {
	store := NewStore(NewMemoryKV(), nil)

	a := testLayout(300, 300, 0, 0)
	b := testLayout(600, 500, 100, 100)
	store.Save("a", a)
	store.Save("b", b)

	assert.Equal(t, a, store.Load("a", testLayout(1, 1, 1, 1)))
	assert.Equal(t, b, store.Load("b", testLayout(1, 1, 1, 1)))
}

type failingKV struct{}

func (failingKV) Get(string) (string, bool, error) { return "", false, errors.New("backend gone") }
func (failingKV) Set(string, string) error         { return errors.New("backend gone") }

type recordingReporter struct {
	kinds []types.NotificationKind
}

func (r *recordingReporter) PushKind(kind types.NotificationKind, _ string) string {
	r.kinds = append(r.kinds, kind)
	return "id"
}

func TestStoreDegradedBackend(t *testing.T) {
	reporter := &recordingReporter{}
	store := NewStore(failingKV{}, nil).WithReporter(reporter)

	fallback := testLayout(440, 460, 20, 20)

	// Load falls back; Save is best-effort and must not panic or error.
	assert.Equal(t, fallback, store.Load("swap", fallback))
	store.Save("swap", testLayout(500, 400, 0, 0))

	assert.NotEmpty(t, reporter.kinds)
	for _, k := range reporter.kinds {
		assert.Equal(t, types.NoteStorageUnavailable, k)
	}
}

func TestFileKVRoundTrip(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	_, found, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set("k", "v1"))
	require.NoError(t, kv.Set("k", "v2"))

	got, found, err := kv.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", got)
}
