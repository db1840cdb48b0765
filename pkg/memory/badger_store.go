package memory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"kokoro/pkg/persona"
)

// BadgerConfig holds configuration for BadgerStore.
type BadgerConfig struct {
	Path       string
	SyncWrites bool
	InMemory   bool
}

// BadgerStore is an embedded Store backed by Badger.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database at cfg.Path.
func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Key generation functions
func stateKey(identity string) []byte {
	return []byte("state:" + escapeIdentity(identity))
}

func memoryPrefix(identity string) []byte {
	return []byte("memory:" + escapeIdentity(identity) + ":")
}

func memoryKey(identity string, m persona.InteractionMemory) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", memoryPrefix(identity), m.CreatedAt, m.ID))
}

func (b *BadgerStore) LoadState(identity string) (*persona.CompanionState, error) {
	var state *persona.CompanionState

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey(identity))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeState(val)
			if err != nil {
				return err
			}
			state = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (b *BadgerStore) SaveState(identity string, state persona.CompanionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode companion state: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey(identity), data)
	})
}

func (b *BadgerStore) AppendMemory(identity string, m persona.InteractionMemory) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode memory: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memoryKey(identity, m), data)
	})
}

func (b *BadgerStore) GetMemories(identity string, limit int) ([]persona.InteractionMemory, error) {
	memories := []persona.InteractionMemory{}
	prefix := memoryPrefix(identity)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// reverse iteration starts from the largest key under the prefix
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(memories) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var m persona.InteractionMemory
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				memories = append(memories, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return memories, nil
}

func (b *BadgerStore) DeleteState(identity string) error {
	prefix := memoryPrefix(identity)
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(stateKey(identity)); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerStore) ListIdentities() ([]string, error) {
	identities := []string{}
	prefix := []byte("state:")

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			identity, err := unescapeIdentity(key[len(prefix):])
			if err != nil {
				continue
			}
			identities = append(identities, identity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identities, nil
}

// Close closes the underlying database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
