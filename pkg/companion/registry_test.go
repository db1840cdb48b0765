package companion

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kokoro/pkg/memory"
	"kokoro/pkg/persona"
)

func newTestRegistry(store memory.Store) *Registry {
	return NewRegistry(
		store,
		persona.NewEngine(persona.DefaultLearningRate),
		persona.NewDrifter(rand.New(rand.NewSource(1)), persona.DefaultEnergyJitter),
		nil,
		Options{},
	)
}

func closeRegistry(t *testing.T, r *Registry) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
}

func TestRegistry_SelectDefaultsWhenAbsent(t *testing.T) {
	r := newTestRegistry(newRecordingStore())
	defer closeRegistry(t, r)

	require.NoError(t, r.Select("alice"))
	state, err := r.State("alice")
	require.NoError(t, err)
	assert.Equal(t, persona.DefaultState(), state)
}

func TestRegistry_SelectLoadsPersisted(t *testing.T) {
	store := newRecordingStore()
	saved := persona.DefaultState()
	saved.Emotion = persona.Playful
	saved.BondingLevel = 55
	store.states["alice"] = saved

	r := newTestRegistry(store)
	defer closeRegistry(t, r)

	state, err := r.State("alice")
	require.NoError(t, err)
	assert.Equal(t, saved, state)
}

func TestRegistry_LoadFailureFallsBackToDefaults(t *testing.T) {
	store := new(MockStore)
	store.On("LoadState", "alice").Return(nil, errors.New("db down"))
	store.On("SaveState", "alice", mock.Anything).Return(errors.New("db down"))
	store.On("AppendMemory", "alice", mock.Anything).Return(errors.New("db down"))

	r := newTestRegistry(store)

	state, err := r.ProcessInteraction("alice", "I love you, you are amazing!")
	require.NoError(t, err, "persistence failures must not reach the caller")
	assert.Equal(t, persona.Loving, state.Emotion)

	closeRegistry(t, r)

	// in-memory state stays authoritative after the failed save
	store.AssertCalled(t, "SaveState", "alice", state)
	store.AssertNumberOfCalls(t, "LoadState", 1)
}

func TestRegistry_ProcessInteractionPersists(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())
	r := newTestRegistry(store)

	state, err := r.ProcessInteraction("alice", "shut up, you are stupid")
	require.NoError(t, err)
	assert.Equal(t, persona.Sad, state.Emotion)

	closeRegistry(t, r)

	saved, err := store.LoadState("alice")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, state, *saved)
}

func TestRegistry_SavesFollowMutationOrder(t *testing.T) {
	store := newRecordingStore()
	r := newTestRegistry(store)

	inputs := []string{"hello", "I love you!", "haha lol", "shut up, stupid", "who are you?", "thanks, great"}
	var want []persona.CompanionState
	for i, text := range inputs {
		state, err := r.ProcessInteractionWithQuality("alice", text, float64(i)/10)
		require.NoError(t, err)
		want = append(want, state)

		state, err = r.AdvanceTime("alice", 2)
		require.NoError(t, err)
		want = append(want, state)
	}
	closeRegistry(t, r)

	saves := store.opsFor("alice", opSave)
	require.Len(t, saves, len(want))
	for i := range want {
		assert.Equal(t, want[i], saves[i].state, "save %d out of order", i)
	}
}

func TestRegistry_ConcurrentInteractionsDoNotLoseUpdates(t *testing.T) {
	store := newRecordingStore()
	r := newTestRegistry(store)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ProcessInteraction("alice", "I love you")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	engine := persona.NewEngine(persona.DefaultLearningRate)
	analysis := persona.Analyze("I love you")
	want := persona.DefaultState()
	for i := 0; i < n; i++ {
		want = engine.Apply(want, analysis, persona.DefaultInteractionQuality)
	}

	got, err := r.State("alice")
	require.NoError(t, err)
	assert.InDelta(t, want.BondingLevel, got.BondingLevel, 1e-9)
	for _, trait := range persona.AllTraits {
		assert.InDelta(t, want.Traits[trait], got.Traits[trait], 1e-9, "trait %s", trait)
	}

	closeRegistry(t, r)

	// pending saves may coalesce, but the newest state is always written last
	saves := store.opsFor("alice", opSave)
	require.NotEmpty(t, saves)
	assert.LessOrEqual(t, len(saves), n)
	assert.Equal(t, got, saves[len(saves)-1].state)
}

func TestRegistry_IdentitiesAreIndependent(t *testing.T) {
	r := newTestRegistry(newRecordingStore())
	defer closeRegistry(t, r)

	_, err := r.ProcessInteraction("alice", "shut up, you are stupid")
	require.NoError(t, err)

	bob, err := r.State("bob")
	require.NoError(t, err)
	assert.Equal(t, persona.DefaultState(), bob)
	assert.ElementsMatch(t, []string{"alice", "bob"}, r.Identities())
}

func TestRegistry_SignificantInteractionsAreRemembered(t *testing.T) {
	store := newRecordingStore()
	r := newTestRegistry(store)

	_, err := r.ProcessInteraction("alice", "ok")
	require.NoError(t, err)
	_, err = r.ProcessInteraction("alice", "I love you, you are amazing!")
	require.NoError(t, err)
	closeRegistry(t, r)

	appends := store.opsFor("alice", opAppend)
	require.Len(t, appends, 1)
	m := appends[0].memory
	assert.Equal(t, persona.MemoryInteraction, m.Type)
	assert.InDelta(t, 0.6, m.Importance, 1e-9)
	assert.Contains(t, m.Content, "I love you")
	assert.Contains(t, m.Context, "emotion=loving")
	assert.NotEmpty(t, m.ID)

	// the memory is written after the save produced by the same interaction
	all := store.opsFor("alice", "")
	require.Len(t, all, 3)
	assert.Equal(t, opSave, all[1].op)
	assert.Equal(t, opAppend, all[2].op)
}

func TestRegistry_StageChangeIsAMilestone(t *testing.T) {
	store := newRecordingStore()
	start := persona.DefaultState()
	start.BondingLevel = 24.8
	store.states["alice"] = start

	r := newTestRegistry(store)
	_, err := r.ProcessInteraction("alice", "ok")
	require.NoError(t, err)
	closeRegistry(t, r)

	appends := store.opsFor("alice", opAppend)
	require.Len(t, appends, 1)
	assert.Equal(t, persona.MemoryMilestone, appends[0].memory.Type)
	assert.Equal(t, 0.8, appends[0].memory.Importance)
	assert.Contains(t, appends[0].memory.Content, `"stage_after":"acquaintance"`)
}

func TestRegistry_Reset(t *testing.T) {
	store := newRecordingStore()
	r := newTestRegistry(store)

	_, err := r.ProcessInteraction("alice", "I love you!")
	require.NoError(t, err)

	state, err := r.Reset("alice")
	require.NoError(t, err)
	assert.Equal(t, persona.DefaultState(), state)

	closeRegistry(t, r)

	ops := store.opsFor("alice", "")
	require.NotEmpty(t, ops)
	assert.Equal(t, opDelete, ops[len(ops)-1].op)
	_, ok := store.states["alice"]
	assert.False(t, ok)
}

func TestRegistry_PresentationAccessors(t *testing.T) {
	store := newRecordingStore()
	s := persona.DefaultState()
	s.Emotion = persona.Happy
	s.EnergyLevel = 0.9
	s.Traits[persona.Humor] = 0.8
	s.BondingLevel = 80
	store.states["alice"] = s

	r := newTestRegistry(store)
	defer closeRegistry(t, r)

	anim, err := r.GetAvatarAnimationState("alice")
	require.NoError(t, err)
	assert.Equal(t, persona.AnimationHappyBounce, anim)

	prompt, err := r.GetPersonalityPrompt("alice")
	require.NoError(t, err)
	assert.Contains(t, prompt, "witty with a good sense of humor")
	assert.Contains(t, prompt, "very close companions")

	mods, err := r.GetResponseStyleModifiers("alice")
	require.NoError(t, err)
	assert.Equal(t, 0.8, mods[persona.StyleHumorFrequency])
}

func TestRegistry_DriftAll(t *testing.T) {
	store := newRecordingStore()
	s := persona.DefaultState()
	s.Traits = persona.NewTraitVector(0)
	store.states["alice"] = s

	r := newTestRegistry(store)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Select("alice"))
	now = now.Add(10 * time.Hour)
	r.DriftAll()

	got, err := r.State("alice")
	require.NoError(t, err)
	assert.InDelta(t, 0.5*10*0.001, got.Traits[persona.Empathy], 1e-12)
	assert.InDelta(t, 0.8, got.MoodStability, 1e-9)

	// no time passed since the last tick
	r.DriftAll()
	again, err := r.State("alice")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	closeRegistry(t, r)
}

func TestRegistry_RunDriftLoopStopsOnCancel(t *testing.T) {
	r := newTestRegistry(newRecordingStore())
	defer closeRegistry(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunDriftLoop(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drift loop did not stop")
	}
}

func TestRegistry_Closed(t *testing.T) {
	r := newTestRegistry(newRecordingStore())
	closeRegistry(t, r)

	_, err := r.ProcessInteraction("alice", "hi")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, r.Close(context.Background()), "second close is a no-op")
}

func TestRegistry_EmptyIdentity(t *testing.T) {
	r := newTestRegistry(newRecordingStore())
	defer closeRegistry(t, r)

	_, err := r.ProcessInteraction("", "hi")
	assert.ErrorIs(t, err, ErrEmptyIdentity)
}

func TestRegistry_FullQueueNeverBlocksInteractions(t *testing.T) {
	store := newRecordingStore()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	defer close(store.block)

	r := NewRegistry(store, nil, nil, nil, Options{SaveQueueSize: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			_, err := r.ProcessInteraction("alice", "hello there")
			assert.NoError(t, err)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("interactions blocked behind a stalled store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	closed := make(chan error, 1)
	go func() { closed <- r.Close(ctx) }()

	select {
	case err := <-closed:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("Close ignored its deadline")
	}
}

func TestRegistry_FullQueueCoalescesSaves(t *testing.T) {
	store := newRecordingStore()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	r := NewRegistry(store, nil, nil, nil, Options{SaveQueueSize: 1})

	first, err := r.ProcessInteraction("alice", "hello")
	require.NoError(t, err)
	<-store.entered

	var last persona.CompanionState
	for i := 0; i < 4; i++ {
		last, err = r.AdvanceTime("alice", 1)
		require.NoError(t, err)
	}
	close(store.block)
	closeRegistry(t, r)

	saves := store.opsFor("alice", opSave)
	require.Len(t, saves, 2)
	assert.Equal(t, first, saves[0].state)
	assert.Equal(t, last, saves[1].state)
}

func TestRegistry_CloseAbandonsOnDeadline(t *testing.T) {
	store := newRecordingStore()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	r := newTestRegistry(store)

	_, err := r.ProcessInteraction("alice", "hello")
	require.NoError(t, err)
	<-store.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = r.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// unblock the writer so it can exit
	close(store.block)
}
