package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leaflens/domain"
	"leaflens/entities"
	"leaflens/internal/utils/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	user = "ana@example.com"

	idA = "0b6a1d52-5c1e-4f7a-9a53-0d0f3b1c2a01"
	idB = "0b6a1d52-5c1e-4f7a-9a53-0d0f3b1c2a02"
	idC = "0b6a1d52-5c1e-4f7a-9a53-0d0f3b1c2a03"
)

type fixture struct {
	service *historyService
	store   storage.ImageStore
	repo    HistoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entities.History{}))

	store, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	repo := NewHistoryRepository(db)
	svc := NewHistoryService(repo, store, nil, zap.NewNop()).(*historyService)

	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return &fixture{service: svc, store: store, repo: repo}
}

func entry(id, name string) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:         id,
		PlantName:  name,
		Confidence: 0.9,
		Info:       domain.PlantRecord{ScientificName: name + " sp."}.Info(),
	}
}

func names(history []domain.HistoryEntry) []string {
	out := make([]string, len(history))
	for i, e := range history {
		out[i] = e.PlantName
	}
	return out
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	history, err := f.service.Save(ctx, user, entry("", "Neem"))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotEmpty(t, history[0].ID)
	assert.Equal(t, "2025-01-01T00:01:00.000Z", history[0].Timestamp)

	history, err = f.service.Save(ctx, user, entry(strings.ToUpper(idA), "Tulasi"))
	require.NoError(t, err)
	assert.Equal(t, idA, history[0].ID, "client ids are kept in canonical form")
}

func TestSaveRejectsNonUUIDIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"client-id", "feedback_1234", "../" + idA} {
		_, err := f.service.Save(ctx, user, entry(id, "Neem"))
		assert.ErrorIs(t, err, domain.ErrInvalidHistoryID, id)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, id)
	}

	_, found, err := f.repo.GetHistory(ctx, user)
	require.NoError(t, err)
	assert.False(t, found, "rejected saves leave no history behind")
}

func TestSaveReplacesByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Save(ctx, user, entry(idA, "Neem"))
	require.NoError(t, err)
	_, err = f.service.Save(ctx, user, entry(idB, "Mint"))
	require.NoError(t, err)

	history, err := f.service.Save(ctx, user, entry(idA, "Tulasi"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Tulasi", "Mint"}, names(history))
	assert.Equal(t, idA, history[0].ID)
}

func TestSaveReplacesByPlantName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Save(ctx, user, entry(idA, "Neem"))
	require.NoError(t, err)
	_, err = f.service.Save(ctx, user, entry(idB, "Mint"))
	require.NoError(t, err)

	history, err := f.service.Save(ctx, user, entry("", "Neem"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Neem", "Mint"}, names(history))
	assert.NotEqual(t, idA, history[0].ID, "a name match does not carry the old id over")
}

func TestSaveDropsBothIDAndNameMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Save(ctx, user, entry(idA, "Neem"))
	require.NoError(t, err)
	_, err = f.service.Save(ctx, user, entry(idB, "Mint"))
	require.NoError(t, err)
	_, err = f.service.Save(ctx, user, entry(idC, "Rose"))
	require.NoError(t, err)

	history, err := f.service.Save(ctx, user, entry(idA, "Mint"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mint", "Rose"}, names(history))
}

func TestGetSortsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.SaveHistory(ctx, user, []domain.HistoryEntry{
		{ID: "1", PlantName: "Old", Timestamp: "2024-01-01T10:00:00Z"},
		{ID: "2", PlantName: "Undated"},
		{ID: "3", PlantName: "New", Timestamp: "2025-03-01T10:00:00.000Z"},
		{ID: "4", PlantName: "Naive", Timestamp: "2024-06-01T10:00:00.123456"},
	}))

	history, err := f.service.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"New", "Naive", "Old", "Undated"}, names(history))
}

func TestGetWithoutHistory(t *testing.T) {
	f := newFixture(t)

	history, err := f.service.Get(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestDeleteEntryRemovesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Save(ctx, user, entry("", "Neem"))
	require.NoError(t, err)
	id := first[0].ID
	require.NoError(t, f.store.UploadFile(ctx, id+".jpeg", []byte("img")))
	_, err = f.service.Save(ctx, user, entry("", "Mint"))
	require.NoError(t, err)

	history, err := f.service.DeleteEntry(ctx, user, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mint"}, names(history))

	exists, err := f.store.FileExists(ctx, id+".jpeg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteEntryErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.DeleteEntry(ctx, user, "missing")
	assert.ErrorIs(t, err, domain.ErrHistoryNotFound)

	_, err = f.service.Save(ctx, user, entry(idA, "Neem"))
	require.NoError(t, err)

	// another user's image must survive a delete aimed at an id we don't own
	require.NoError(t, f.store.UploadFile(ctx, "foreign.png", []byte("img")))
	_, err = f.service.DeleteEntry(ctx, user, "foreign")
	assert.ErrorIs(t, err, domain.ErrHistoryEntryNotFound)
	exists, _ := f.store.FileExists(ctx, "foreign.png")
	assert.True(t, exists)
}

func TestDeleteLeavesUploadsWithForeignKeysAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// entries written before ids were validated can still carry arbitrary ids
	require.NoError(t, f.repo.SaveHistory(ctx, user, []domain.HistoryEntry{
		{ID: "feedback_1234", PlantName: "Neem"},
		{ID: "feedback_5678", PlantName: "Mint"},
	}))
	require.NoError(t, f.store.UploadFile(ctx, "feedback_1234.png", []byte("screenshot")))
	require.NoError(t, f.store.UploadFile(ctx, "feedback_5678.png", []byte("screenshot")))

	history, err := f.service.DeleteEntry(ctx, user, "feedback_1234")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mint"}, names(history))
	exists, err := f.store.FileExists(ctx, "feedback_1234.png")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, f.service.DeleteAllForUser(ctx, user))
	exists, err = f.store.FileExists(ctx, "feedback_5678.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Save(ctx, user, entry("", "Neem"))
	require.NoError(t, err)
	require.NoError(t, f.service.Clear(ctx, user))

	history, err := f.service.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, found, err := f.repo.GetHistory(ctx, user)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteAllForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Neem", "Mint", "Rose"} {
		history, err := f.service.Save(ctx, user, entry("", name))
		require.NoError(t, err)
		require.NoError(t, f.store.UploadFile(ctx, history[0].ID+".png", []byte(name)))
	}
	current, err := f.service.Get(ctx, user)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteAllForUser(ctx, user))

	for _, e := range current {
		exists, err := f.store.FileExists(ctx, e.ID+".png")
		require.NoError(t, err)
		assert.False(t, exists, e.PlantName)
	}
	_, found, err := f.repo.GetHistory(ctx, user)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConcurrentSavesForOneUserAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Save(ctx, user, entry("", fmt.Sprintf("plant-%02d", i)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := f.service.Get(ctx, user)
	require.NoError(t, err)
	assert.Len(t, history, n, "no save may be lost")
	assert.Zero(t, f.service.locks.size())
}

func TestUsersDoNotShareHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Save(ctx, "a@example.com", entry("", "Neem"))
	require.NoError(t, err)
	_, err = f.service.Save(ctx, "b@example.com", entry("", "Neem"))
	require.NoError(t, err)

	a, err := f.service.Get(ctx, "a@example.com")
	require.NoError(t, err)
	b, err := f.service.Get(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
