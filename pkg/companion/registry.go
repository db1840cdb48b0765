// Package companion owns live companion state and serializes every mutation
// per identity.
package companion

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"kokoro/pkg/memory"
	"kokoro/pkg/metrics"
	"kokoro/pkg/persona"
)

var (
	ErrClosed        = errors.New("companion registry is closed")
	ErrEmptyIdentity = errors.New("companion identity is empty")
)

// Options tunes a Registry. Zero values fall back to defaults.
type Options struct {
	DefaultQuality      float64
	ImportanceThreshold float64
	SaveQueueSize       int
}

func (o Options) withDefaults() Options {
	if o.DefaultQuality <= 0 || o.DefaultQuality > 1 {
		o.DefaultQuality = persona.DefaultInteractionQuality
	}
	if o.ImportanceThreshold <= 0 {
		o.ImportanceThreshold = 0.5
	}
	if o.SaveQueueSize <= 0 {
		o.SaveQueueSize = 64
	}
	return o
}

// Registry holds the in-memory state of every selected companion identity.
// Mutations for one identity never interleave; different identities proceed
// independently.
type Registry struct {
	store   memory.Store
	engine  *persona.Engine
	drifter *persona.Drifter
	metrics *metrics.Manager
	opts    Options
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	writers sync.WaitGroup
	abandon chan struct{}
}

type entry struct {
	mu        sync.Mutex
	state     persona.CompanionState
	lastDrift time.Time

	queue *jobQueue
}

// NewRegistry wires a registry. A nil metrics manager disables metrics.
func NewRegistry(store memory.Store, engine *persona.Engine, drifter *persona.Drifter, m *metrics.Manager, opts Options) *Registry {
	if m == nil {
		m = metrics.NewManager(metrics.Config{Enabled: false})
	}
	if engine == nil {
		engine = persona.NewEngine(persona.DefaultLearningRate)
	}
	if drifter == nil {
		drifter = persona.NewDrifter(nil, persona.DefaultEnergyJitter)
	}
	return &Registry{
		store:   store,
		engine:  engine,
		drifter: drifter,
		metrics: m,
		opts:    opts.withDefaults(),
		now:     time.Now,
		entries: make(map[string]*entry),
		abandon: make(chan struct{}),
	}
}

// acquire returns the entry for identity with its lock held, loading it from
// the store on first use.
func (r *Registry) acquire(identity string) (*entry, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := r.entries[identity]
	if ok {
		r.mu.Unlock()
		e.mu.Lock()
		if e.queue.isClosed() {
			e.mu.Unlock()
			return nil, ErrClosed
		}
		return e, nil
	}

	e = &entry{queue: newJobQueue(r.opts.SaveQueueSize)}
	e.mu.Lock()
	r.entries[identity] = e
	loaded := len(r.entries)
	r.writers.Add(1)
	go r.runWriter(identity, e.queue)
	r.mu.Unlock()

	r.metrics.SetLoaded(loaded)
	e.state = r.load(identity)
	e.lastDrift = r.now()
	return e, nil
}

// load returns the persisted state or a fresh default. Read failures are soft.
func (r *Registry) load(identity string) persona.CompanionState {
	start := time.Now()
	state, err := r.store.LoadState(identity)
	r.metrics.RecordPersist(opLoad, time.Since(start), err)
	if err != nil {
		log.Printf("[Companion] Failed to load state for %s, using defaults: %v", identity, err)
		return persona.DefaultState()
	}
	if state == nil {
		log.Printf("[Companion] No stored state for %s, starting fresh", identity)
		return persona.DefaultState()
	}
	return state.Normalize()
}

// snapshot returns a copy of the current state for identity.
func (r *Registry) snapshot(identity string) (persona.CompanionState, error) {
	e, err := r.acquire(identity)
	if err != nil {
		return persona.CompanionState{}, err
	}
	defer e.mu.Unlock()
	return e.state.Clone(), nil
}

// Select loads identity (or creates its default state) and keeps it in memory.
func (r *Registry) Select(identity string) error {
	e, err := r.acquire(identity)
	if err != nil {
		return err
	}
	e.mu.Unlock()
	return nil
}

// State returns a snapshot of the companion state for identity.
func (r *Registry) State(identity string) (persona.CompanionState, error) {
	return r.snapshot(identity)
}

// ProcessInteraction analyzes text with the default interaction quality and
// applies it to the companion.
func (r *Registry) ProcessInteraction(identity, text string) (persona.CompanionState, error) {
	return r.ProcessInteractionWithQuality(identity, text, r.opts.DefaultQuality)
}

// ProcessInteractionWithQuality performs analyze, apply and persist for one
// utterance and returns the post-update state.
func (r *Registry) ProcessInteractionWithQuality(identity, text string, quality float64) (persona.CompanionState, error) {
	analysis := persona.Analyze(text)

	e, err := r.acquire(identity)
	if err != nil {
		return persona.CompanionState{}, err
	}
	defer e.mu.Unlock()

	before := e.state
	e.state = r.engine.Apply(before, analysis, quality)
	after := e.state.Clone()

	r.metrics.RecordInteraction(identity, before.Emotion.String(), after.Emotion.String(), after.BondingLevel)
	r.enqueue(identity, e, persistJob{op: opSave, state: after})

	if m, ok := r.memoryFor(text, analysis, before, after); ok {
		r.enqueue(identity, e, persistJob{op: opAppend, memory: m})
	}
	return after, nil
}

// AdvanceTime applies hoursElapsed of drift to identity.
func (r *Registry) AdvanceTime(identity string, hoursElapsed float64) (persona.CompanionState, error) {
	e, err := r.acquire(identity)
	if err != nil {
		return persona.CompanionState{}, err
	}
	defer e.mu.Unlock()

	return r.drift(identity, e, hoursElapsed), nil
}

// drift applies a tick to a locked entry.
func (r *Registry) drift(identity string, e *entry, hoursElapsed float64) persona.CompanionState {
	e.state = r.drifter.Tick(e.state, hoursElapsed)
	e.lastDrift = r.now()
	after := e.state.Clone()

	r.metrics.RecordDrift(identity, after.EnergyLevel)
	r.enqueue(identity, e, persistJob{op: opSave, state: after})
	return after
}

// Reset discards the companion's state and memories and starts over from defaults.
func (r *Registry) Reset(identity string) (persona.CompanionState, error) {
	e, err := r.acquire(identity)
	if err != nil {
		return persona.CompanionState{}, err
	}
	defer e.mu.Unlock()

	e.state = persona.DefaultState()
	e.lastDrift = r.now()
	r.metrics.ForgetIdentity(identity)
	r.enqueue(identity, e, persistJob{op: opDelete})
	log.Printf("[Companion] Reset state for %s", identity)
	return e.state.Clone(), nil
}

// Identities lists the identities currently held in memory.
func (r *Registry) Identities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// GetPersonalityPrompt renders the conditioning prompt for identity.
func (r *Registry) GetPersonalityPrompt(identity string) (string, error) {
	state, err := r.snapshot(identity)
	if err != nil {
		return "", err
	}
	return persona.RenderPrompt(state), nil
}

// GetResponseStyleModifiers returns the style knobs for identity.
func (r *Registry) GetResponseStyleModifiers(identity string) (map[string]float64, error) {
	state, err := r.snapshot(identity)
	if err != nil {
		return nil, err
	}
	return persona.StyleModifiers(state), nil
}

// GetAvatarAnimationState returns the animation identifier for identity.
func (r *Registry) GetAvatarAnimationState(identity string) (string, error) {
	state, err := r.snapshot(identity)
	if err != nil {
		return persona.AnimationDefault, err
	}
	return persona.AnimationFor(state), nil
}

// GetMemories returns the newest stored memories for identity.
func (r *Registry) GetMemories(identity string, limit int) ([]persona.InteractionMemory, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	return r.store.GetMemories(identity, limit)
}

// Close stops accepting mutations and waits for queued saves. If ctx ends
// first the remaining saves are abandoned and ctx.Err() is returned; a store
// call already in flight is left to finish in the background.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	// entry locks are not taken here; a writer may be stuck in the store
	for _, e := range entries {
		e.queue.close()
	}

	done := make(chan struct{})
	go func() {
		r.writers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		close(r.abandon)
		log.Printf("[Companion] Shutdown deadline reached, abandoning pending saves")
		return ctx.Err()
	}
}
