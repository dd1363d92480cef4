package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/pkg/adapters/memory"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/aretw0/stepgrid/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, tmpl *domain.Template) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, tmpl)
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Template, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

const corridor = "START 1 1 END\n"

func newTemplate(layout string) *domain.Template {
	return &domain.Template{Layout: layout}
}

func TestManager_CreateBlank(t *testing.T) {
	mgr := session.NewManager(memory.NewStore(), session.WithDefaultSize(5, 4))
	ctx := context.Background()

	snap, err := mgr.Create(ctx, "blank", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Columns)
	assert.Equal(t, 4, snap.Rows)
	assert.Equal(t, domain.StatusIdle, snap.Status)

	_, err = mgr.Create(ctx, "blank", nil)
	assert.ErrorIs(t, err, domain.ErrSessionExists)
}

func TestManager_CreateChecksStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Template{ID: domain.CheckpointID("taken"), Layout: corridor}))

	_, err := session.NewManager(store).Create(ctx, "taken", nil)
	assert.ErrorIs(t, err, domain.ErrSessionExists)
}

func TestManager_SavedTemplatesAreNotSessions(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Template{ID: "maze", Layout: corridor}))

	mgr := session.NewManager(store)

	_, err := mgr.Snapshot(ctx, "maze")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = mgr.Create(ctx, "maze", nil)
	require.NoError(t, err, "a session may share its id with a saved template")

	require.NoError(t, mgr.Delete(ctx, "maze"))
	assert.ErrorIs(t, mgr.Delete(ctx, "maze"), domain.ErrSessionNotFound)

	tmpl, err := store.Load(ctx, "maze")
	require.NoError(t, err, "deleting a session leaves the saved template alone")
	assert.Equal(t, corridor, tmpl.Layout)

	_, err = store.Load(ctx, domain.CheckpointID("maze"))
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestManager_CreateRejectsBadTemplate(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())

	_, err := mgr.Create(context.Background(), "bad", newTemplate("START\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	_, err = mgr.Create(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)
}

func TestManager_StepToCompletion(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Create(ctx, "s", newTemplate(corridor))
	require.NoError(t, err)

	snap, err := mgr.Step(ctx, "s", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Steps, "n <= 0 takes one step")
	assert.Equal(t, domain.StatusRunning, snap.Status)

	snap, err = mgr.Step(ctx, "s", 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPathDone, snap.Status)
	assert.Equal(t, 6, snap.Steps, "stepping stops at the terminal status")
	assert.Len(t, snap.Path, 4)

	again, err := mgr.Snapshot(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestManager_StepLimit(t *testing.T) {
	mgr := session.NewManager(nil, session.WithMaxSteps(10))
	ctx := context.Background()
	_, err := mgr.Create(ctx, "s", nil)
	require.NoError(t, err)

	_, err = mgr.Step(ctx, "s", 11)
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)
}

func TestManager_SerializesSteps(t *testing.T) {
	mgr := session.NewManager(SlowStore{memory.NewStore()}, session.WithDefaultSize(30, 30))
	ctx := context.Background()
	_, err := mgr.Create(ctx, "race", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Step(ctx, "race", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := mgr.Snapshot(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Steps)
}

func TestManager_ConcurrentCreate(t *testing.T) {
	mgr := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, exists := 0, 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Create(ctx, "atomic-init", nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else {
				assert.ErrorIs(t, err, domain.ErrSessionExists)
				exists++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 4, exists)
}

func TestManager_ApplyCheckpointsAndRestores(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := session.NewManager(store)
	_, err := first.Create(ctx, "shared", newTemplate("START 1 1\n1 1 1\n1 1 END\n"))
	require.NoError(t, err)

	_, err = first.Apply(ctx, "shared", domain.Command{Type: domain.CommandToggleCell, Cell: &domain.Coord{Col: 1, Row: 1}, State: domain.StateBarrier})
	require.NoError(t, err)
	_, err = first.Apply(ctx, "shared", domain.Command{Type: domain.CommandSelectAlgorithm, Algorithm: "dijkstra"})
	require.NoError(t, err)
	_, err = first.Step(ctx, "shared", 3)
	require.NoError(t, err)

	second := session.NewManager(store)
	snap, err := second.Snapshot(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, snap.Status, "passes in flight are not persisted")
	assert.Equal(t, domain.AlgorithmDijkstra, snap.Algorithm)
	assert.Equal(t, domain.StateBarrier, snap.StateAt(domain.Coord{Col: 1, Row: 1}))

	tmpl, err := second.Template(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "shared", tmpl.ID)
	assert.Equal(t, "START 1 1\n1 # 1\n1 1 END\n", tmpl.Layout)
}

func TestManager_ApplyError(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()
	_, err := mgr.Create(ctx, "s", newTemplate(corridor))
	require.NoError(t, err)

	_, err = mgr.Apply(ctx, "s", domain.Command{Type: domain.CommandSetWeight, Cell: &domain.Coord{Col: 1}, Weight: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidWeight)

	_, err = mgr.Apply(ctx, "missing", domain.Command{Type: domain.CommandReset})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_DeleteAndList(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Template{ID: domain.CheckpointID("parked"), Layout: corridor}))

	mgr := session.NewManager(store)
	_, err := mgr.Create(ctx, "live", nil)
	require.NoError(t, err)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "parked"}, ids)

	require.NoError(t, mgr.Delete(ctx, "live"))
	require.NoError(t, mgr.Delete(ctx, "parked"), "stored sessions can be deleted without restoring them")
	assert.ErrorIs(t, mgr.Delete(ctx, "live"), domain.ErrSessionNotFound)

	_, err = mgr.Snapshot(ctx, "live")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err = mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_MemoryOnly(t *testing.T) {
	mgr := session.NewManager(nil)
	ctx := context.Background()

	_, err := mgr.Snapshot(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = mgr.Create(ctx, "s", newTemplate(corridor))
	require.NoError(t, err)
	_, err = mgr.Apply(ctx, "s", domain.Command{Type: domain.CommandClear})
	require.NoError(t, err)
	assert.Nil(t, mgr.Store())
}

func TestManager_EngineOptionsAndHooks(t *testing.T) {
	var steps int
	mgr := session.NewManager(nil,
		session.WithEngineOptions(stepgrid.WithAlgorithm(domain.AlgorithmAStar)),
		session.WithLifecycleHooks(domain.LifecycleHooks{OnStep: func(*domain.StepEvent) { steps++ }}),
	)
	ctx := context.Background()

	snap, err := mgr.Create(ctx, "s", newTemplate(corridor))
	require.NoError(t, err)
	assert.Equal(t, domain.AlgorithmAStar, snap.Algorithm)

	_, err = mgr.Step(ctx, "s", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, steps)
}

func TestManager_Subscribe(t *testing.T) {
	mgr := session.NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := mgr.Create(ctx, "s", newTemplate(corridor))
	require.NoError(t, err)

	diffs, err := mgr.Subscribe(ctx, "s")
	require.NoError(t, err)

	initial := <-diffs
	require.NotNil(t, initial)
	assert.Len(t, initial.Cells, 4, "the first diff describes every cell")

	_, err = mgr.Step(ctx, "s", 2)
	require.NoError(t, err)

	first := <-diffs
	assert.Equal(t, 1, first.Steps)
	require.NotNil(t, first.Status)
	assert.Equal(t, domain.StatusRunning, *first.Status)
	second := <-diffs
	assert.Equal(t, 2, second.Steps)

	require.NoError(t, mgr.Delete(ctx, "s"))
	_, open := <-diffs
	assert.False(t, open, "deleting the session closes the stream")

	_, err = mgr.Subscribe(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// recordingLocker counts distributed lock round trips.
type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := session.NewManager(nil, session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	_, err := mgr.Create(ctx, "s", nil)
	require.NoError(t, err)
	_, err = mgr.Step(ctx, "s", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"s", "s"}, locker.locked)
	assert.Equal(t, 2, locker.unlocked)
}
