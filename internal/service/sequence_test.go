package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serigen/serigen/internal/model"
	"github.com/serigen/serigen/internal/repository"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()

	store, err := repository.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func seedAdmin(t *testing.T, store *repository.Store) *model.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), "Admin", "$argon2id$stub", true)
	require.NoError(t, err)
	return user
}

func TestAllocateNext_EmptyPrefixStartsAtOne(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store)
	svc := NewSequenceService(store)

	code, err := svc.AllocateNext(context.Background(), "V20240106", admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "V20240106.1", code.Code)
	assert.Equal(t, "Admin", code.UserName)
}

func TestAllocateNext_ContinuesSequence(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store)
	svc := NewSequenceService(store)
	ctx := context.Background()

	// Prior codes up to .7; the next four allocations must yield
	// .8 .9 .10 .11 (unpadded scheme).
	base := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		_, err := store.InsertCode(ctx, fmt.Sprintf("V20240106.%d", i), admin.ID, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	for _, want := range []string{"V20240106.8", "V20240106.9", "V20240106.10", "V20240106.11"} {
		code, err := svc.AllocateNext(ctx, "V20240106", admin.ID)
		require.NoError(t, err)
		assert.Equal(t, want, code.Code)
		assert.Equal(t, "Admin", code.UserName)
	}
}

func TestAllocateNext_IsolatedPerPrefix(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store)
	svc := NewSequenceService(store)
	ctx := context.Background()

	_, err := store.InsertCode(ctx, "V20240101.3", admin.ID, time.Now().UTC())
	require.NoError(t, err)

	// Another day's bucket starts fresh.
	code, err := svc.AllocateNext(ctx, "V20240106", admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "V20240106.1", code.Code)
}

func TestAllocateNext_MalformedSuffix(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store)
	svc := NewSequenceService(store)
	ctx := context.Background()

	_, err := store.InsertCode(ctx, "V20240106.banana", admin.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.AllocateNext(ctx, "V20240106", admin.ID)

	var parseErr *SuffixParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "V20240106.banana", parseErr.Value)
}

func TestAllocateNext_DuplicateSurfaces(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store)
	svc := NewSequenceService(store)
	ctx := context.Background()

	// Simulate losing the race: the code the engine will compute next
	// already exists under a timestamp the LIKE read sorts below.
	_, err := store.InsertCode(ctx, "V20240106.2", admin.ID, time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = store.InsertCode(ctx, "V20240106.1", admin.ID, time.Date(2024, 1, 6, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = svc.AllocateNext(ctx, "V20240106", admin.ID)

	var dup *repository.DuplicateCodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "V20240106.2", dup.Code)
}

func TestAllocateNext_ConcurrentCallersWithRetry(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store)
	svc := NewSequenceService(store)
	ctx := context.Background()

	const callers = 20

	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The engine never retries; the caller re-invokes on
			// the duplicate outcome.
			for {
				_, err := svc.AllocateNext(ctx, "V20240106", admin.ID)
				var dup *repository.DuplicateCodeError
				if errors.As(err, &dup) {
					continue
				}
				errs <- err
				return
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Exactly N distinct codes survive; the unique constraint let no
	// duplicate through.
	codes, err := store.ListRecentCodes(ctx, callers*2)
	require.NoError(t, err)
	require.Len(t, codes, callers)

	seen := make(map[string]bool, callers)
	for _, c := range codes {
		assert.False(t, seen[c.Code], "duplicate persisted code %s", c.Code)
		seen[c.Code] = true
	}
}

func TestTodayPrefix(t *testing.T) {
	svc := NewSequenceService(nil)
	svc.now = func() time.Time {
		return time.Date(2024, 1, 6, 15, 30, 0, 0, time.Local)
	}

	assert.Equal(t, "V20240106", svc.TodayPrefix())
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	admin := seedAdmin(t, store)
	svc := NewSequenceService(store)
	ctx := context.Background()

	_, err := svc.AllocateNext(ctx, "V20240106", admin.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))

	codes, err := svc.Recent(ctx)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestParseSuffix(t *testing.T) {
	cases := []struct {
		code    string
		want    int64
		wantErr bool
	}{
		{"V20240106.7", 7, false},
		{"V20240106.10", 10, false},
		{"V20240106.0", 0, false},
		{"V20240106.", 0, true},
		{"V20240106", 0, true},
		{"V20240106.x", 0, true},
		{"V20240106.-3", 0, true},
	}

	for _, tc := range cases {
		got, err := parseSuffix(tc.code)
		if tc.wantErr {
			var parseErr *SuffixParseError
			assert.ErrorAs(t, err, &parseErr, "code %q", tc.code)
			continue
		}
		require.NoError(t, err, "code %q", tc.code)
		assert.Equal(t, tc.want, got, "code %q", tc.code)
	}
}
