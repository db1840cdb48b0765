package memory

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"kokoro/pkg/persona"
	"kokoro/pkg/surreal"
)

const (
	stateTable  = "companion_states"
	memoryTable = "interaction_memories"
)

type SurrealStore struct {
	client *surreal.Client
}

// SurrealMemoryItem is the row shape of interaction_memories.
type SurrealMemoryItem struct {
	Identity   string  `json:"identity"`
	MemoryID   string  `json:"memory_id"`
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Importance float64 `json:"importance"`
	Context    string  `json:"context"`
	CreatedAt  int64   `json:"created_at"`
}

func NewSurrealStore(client *surreal.Client) *SurrealStore {
	store := &SurrealStore{
		client: client,
	}
	if err := store.Init(); err != nil {
		// Schema may already exist or the DB may come up later
		log.Printf("[Store] Warning: failed to initialize SurrealDB schema: %v", err)
	}
	return store
}

func (s *SurrealStore) Init() error {
	query := `
		DEFINE TABLE IF NOT EXISTS companion_states SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS identity ON companion_states TYPE string;
		DEFINE FIELD IF NOT EXISTS traits ON companion_states FLEXIBLE TYPE object;
		DEFINE FIELD IF NOT EXISTS emotional_state ON companion_states TYPE string;
		DEFINE FIELD IF NOT EXISTS bonding_level ON companion_states TYPE number;
		DEFINE FIELD IF NOT EXISTS energy_level ON companion_states TYPE number;
		DEFINE FIELD IF NOT EXISTS mood_stability ON companion_states TYPE number;
		DEFINE FIELD IF NOT EXISTS last_updated ON companion_states TYPE int;

		DEFINE TABLE IF NOT EXISTS interaction_memories SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS identity ON interaction_memories TYPE string;
		DEFINE FIELD IF NOT EXISTS memory_id ON interaction_memories TYPE string;
		DEFINE FIELD IF NOT EXISTS type ON interaction_memories TYPE string;
		DEFINE FIELD IF NOT EXISTS content ON interaction_memories TYPE string;
		DEFINE FIELD IF NOT EXISTS importance ON interaction_memories TYPE number;
		DEFINE FIELD IF NOT EXISTS context ON interaction_memories TYPE string;
		DEFINE FIELD IF NOT EXISTS created_at ON interaction_memories TYPE int;
		DEFINE INDEX IF NOT EXISTS memory_identity_idx ON interaction_memories FIELDS identity, created_at;
	`
	_, err := s.client.Query(query, map[string]interface{}{})
	return err
}

func (s *SurrealStore) LoadState(identity string) (*persona.CompanionState, error) {
	row, err := s.client.SelectRecord(stateTable, identity)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil // Not found is not an error
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode state row: %w", err)
	}
	return decodeState(data)
}

func (s *SurrealStore) SaveState(identity string, state persona.CompanionState) error {
	content, err := stateContent(identity, state)
	if err != nil {
		return err
	}

	return s.client.UpsertRecord(stateTable, identity, content)
}

// stateContent flattens a state into the field map stored in companion_states.
func stateContent(identity string, state persona.CompanionState) (map[string]interface{}, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode companion state: %w", err)
	}
	content := map[string]interface{}{}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to encode companion state: %w", err)
	}
	content["identity"] = identity
	content["last_updated"] = time.Now().Unix()
	return content, nil
}

func (s *SurrealStore) AppendMemory(identity string, m persona.InteractionMemory) error {
	item := SurrealMemoryItem{
		Identity:   identity,
		MemoryID:   m.ID,
		Type:       m.Type,
		Content:    m.Content,
		Importance: m.Importance,
		Context:    m.Context,
		CreatedAt:  m.CreatedAt,
	}

	_, err := s.client.Create(memoryTable, item)
	return err
}

func (s *SurrealStore) GetMemories(identity string, limit int) ([]persona.InteractionMemory, error) {
	rows, err := s.client.SelectWhere(memoryTable, map[string]interface{}{
		"identity": identity,
	}, "created_at", limit)
	if err != nil {
		return nil, err
	}

	memories := make([]persona.InteractionMemory, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			continue
		}
		var item SurrealMemoryItem
		if err := json.Unmarshal(data, &item); err != nil {
			log.Printf("[Store] Skipping malformed memory row for %s: %v", identity, err)
			continue
		}
		memories = append(memories, persona.InteractionMemory{
			ID:         item.MemoryID,
			Type:       item.Type,
			Content:    item.Content,
			Importance: item.Importance,
			Context:    item.Context,
			CreatedAt:  item.CreatedAt,
		})
	}
	return memories, nil
}

func (s *SurrealStore) DeleteState(identity string) error {
	if err := s.client.DeleteWhere(memoryTable, map[string]interface{}{"identity": identity}); err != nil {
		return fmt.Errorf("failed to delete memories: %w", err)
	}
	return s.client.DeleteRecord(stateTable, identity)
}

func (s *SurrealStore) ListIdentities() ([]string, error) {
	query := `SELECT identity FROM companion_states;`
	result, err := s.client.Query(query, map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	rows, ok := result.([]interface{})
	if !ok {
		return []string{}, nil
	}

	identities := []string{}
	for _, row := range rows {
		if rowMap, ok := row.(map[string]interface{}); ok {
			if identity, ok := rowMap["identity"].(string); ok {
				identities = append(identities, identity)
			}
		}
	}
	return identities, nil
}
