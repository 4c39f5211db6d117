package journal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/engine"
	"github.com/hupe1980/fetchmesh/extension"
	"github.com/hupe1980/fetchmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ Store = (*InMemoryStore)(nil)

type failingStore struct{ err error }

func (f failingStore) Append(Entry) error        { return f.err }
func (f failingStore) Entries() ([]Entry, error) { return nil, f.err }

func TestExtension_RecordsFailedFetch(t *testing.T) {
	store := NewInMemoryStore(0)
	boom := errors.New("connection refused")
	tr := &testutil.RecordingTransmitter{
		Respond: func(*http.Request) (*http.Response, error) { return nil, boom },
	}

	ext := NewExtension(store)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ext.now = func() time.Time { return fixed }

	e := engine.New(func(o *engine.Options) { o.Transmitter = tr })
	e.Register(
		ext,
		&extension.Funcs{OnRequestWillFetch: func(ctx context.Context, _ core.RequestWillFetchParams) (*http.Request, error) {
			return core.NewRequest(ctx, "https://mirror.example.com/a")
		}},
	)

	_, err := e.Fetch(context.Background(), engine.FetchParams{
		URL:   "https://example.com/a",
		Event: &core.FetchEvent{ClientID: "client-1"},
	})
	assert.Same(t, boom, err)

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "https://mirror.example.com/a", got.URL)
	assert.Equal(t, "https://example.com/a", got.OriginalURL)
	assert.Equal(t, "client-1", got.ClientID)
	assert.Equal(t, "connection refused", got.Error)
	assert.Equal(t, fixed, got.RecordedAt)
}

func TestExtension_SuccessIsNotRecorded(t *testing.T) {
	store := NewInMemoryStore(0)
	e := engine.New(func(o *engine.Options) { o.Transmitter = &testutil.RecordingTransmitter{} })
	e.Register(NewExtension(store))

	_, err := e.FetchURL(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestExtension_StoreErrorSupersedes(t *testing.T) {
	storeErr := errors.New("disk full")
	tr := &testutil.RecordingTransmitter{
		Respond: func(*http.Request) (*http.Response, error) { return nil, errors.New("refused") },
	}
	e := engine.New(func(o *engine.Options) { o.Transmitter = tr })
	e.Register(NewExtension(failingStore{err: storeErr}))

	_, err := e.FetchURL(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, storeErr)
}

func TestInMemoryStore_MaxEntries(t *testing.T) {
	store := NewInMemoryStore(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(Entry{ID: fmt.Sprint(i)}))
	}

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].ID)
	assert.Equal(t, "4", entries[1].ID)

	entries[0].ID = "mutated"
	again, _ := store.Entries()
	assert.Equal(t, "3", again[0].ID)

	store.Clear()
	assert.Equal(t, 0, store.Len())
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	store := NewInMemoryStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(Entry{ID: fmt.Sprint(i)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Entries()
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, store.Len())
}
