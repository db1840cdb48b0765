package memory

import (
	"context"
	"encoding/json"
	"log"

	"kokoro/pkg/cache"
	"kokoro/pkg/persona"
)

// recentMemoryLimit is how many memories per identity are mirrored in Redis.
const recentMemoryLimit = 20

// CachedStore puts a Redis read-through cache in front of another Store.
type CachedStore struct {
	Store
	cache *cache.Cache
}

func NewCachedStore(store Store, cache *cache.Cache) *CachedStore {
	return &CachedStore{
		Store: store,
		cache: cache,
	}
}

func (c *CachedStore) stateKey(identity string) string {
	return c.cache.Key("companion_state", identity)
}

func (c *CachedStore) memoriesKey(identity string) string {
	return c.cache.Key("recent_memories", identity)
}

func (c *CachedStore) LoadState(identity string) (*persona.CompanionState, error) {
	ctx := context.Background()

	var cached persona.CompanionState
	if err := c.cache.GetJSON(ctx, c.stateKey(identity), &cached); err == nil {
		state := cached.Normalize()
		return &state, nil
	} else if !cache.IsMiss(err) {
		log.Printf("[Store] Cache read failed for %s: %v", identity, err)
	}

	state, err := c.Store.LoadState(identity)
	if err != nil || state == nil {
		return state, err
	}

	_ = c.cache.SetJSON(ctx, c.stateKey(identity), state, cache.CompanionStateTTL)
	return state, nil
}

func (c *CachedStore) SaveState(identity string, state persona.CompanionState) error {
	if err := c.Store.SaveState(identity, state); err != nil {
		return err
	}

	ctx := context.Background()
	if err := c.cache.SetJSON(ctx, c.stateKey(identity), state, cache.CompanionStateTTL); err != nil {
		// a stale cached copy would shadow the store, drop it
		_ = c.cache.Delete(ctx, c.stateKey(identity))
	}
	return nil
}

func (c *CachedStore) AppendMemory(identity string, m persona.InteractionMemory) error {
	if err := c.Store.AppendMemory(identity, m); err != nil {
		return err
	}

	ctx := context.Background()
	key := c.memoriesKey(identity)

	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	_ = c.cache.PushCapped(ctx, key, string(data), recentMemoryLimit, cache.RecentMemoriesTTL)
	return nil
}

func (c *CachedStore) GetMemories(identity string, limit int) ([]persona.InteractionMemory, error) {
	ctx := context.Background()
	key := c.memoriesKey(identity)

	if limit > 0 && limit <= recentMemoryLimit {
		data, err := c.cache.Head(ctx, key, int64(limit))
		if err == nil && len(data) == limit {
			memories := make([]persona.InteractionMemory, 0, len(data))
			for _, d := range data {
				var m persona.InteractionMemory
				if err := json.Unmarshal([]byte(d), &m); err != nil {
					continue
				}
				memories = append(memories, m)
			}
			if len(memories) == limit {
				return memories, nil
			}
		}
	}

	// the store is read while the cached list is watched, so an append that
	// lands in between invalidates the refill instead of being overwritten
	var memories []persona.InteractionMemory
	var storeErr error
	loaded := false
	err := c.cache.RefillList(ctx, key, cache.RecentMemoriesTTL, func() ([]string, error) {
		loaded = true
		memories, storeErr = c.Store.GetMemories(identity, limit)
		if storeErr != nil {
			return nil, storeErr
		}
		return encodeMemories(memories)
	})
	if !loaded {
		if err != nil {
			log.Printf("[Store] Redis unavailable for %s memories: %v", identity, err)
		}
		memories, storeErr = c.Store.GetMemories(identity, limit)
	}
	if storeErr != nil {
		return nil, storeErr
	}
	return memories, nil
}

// encodeMemories serializes the newest memories for the cached list.
func encodeMemories(memories []persona.InteractionMemory) ([]string, error) {
	n := min(len(memories), recentMemoryLimit)
	values := make([]string, 0, n)
	for _, m := range memories[:n] {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		values = append(values, string(data))
	}
	return values, nil
}

func (c *CachedStore) DeleteState(identity string) error {
	if err := c.Store.DeleteState(identity); err != nil {
		return err
	}
	_ = c.cache.Delete(context.Background(), c.stateKey(identity), c.memoriesKey(identity))
	return nil
}
