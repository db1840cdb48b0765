package memory

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kokoro/pkg/persona"
)

const (
	stateFileSuffix  = ".state.json"
	memoryFileSuffix = ".memories.jsonl"
)

// FileStore keeps one JSON state file and one JSON-lines memory log per identity.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) statePath(identity string) string {
	return filepath.Join(f.dir, escapeIdentity(identity)+stateFileSuffix)
}

func (f *FileStore) memoryPath(identity string) string {
	return filepath.Join(f.dir, escapeIdentity(identity)+memoryFileSuffix)
}

func (f *FileStore) LoadState(identity string) (*persona.CompanionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.statePath(identity))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}

func (f *FileStore) SaveState(identity string, state persona.CompanionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode companion state: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}

	// write-then-rename keeps the previous state intact on failure
	path := f.statePath(identity)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FileStore) AppendMemory(identity string, m persona.InteractionMemory) error {
	line, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode memory: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(f.memoryPath(identity), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(append(line, '\n'))
	return err
}

func (f *FileStore) GetMemories(identity string, limit int) ([]persona.InteractionMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.memoryPath(identity))
	if errors.Is(err, os.ErrNotExist) {
		return []persona.InteractionMemory{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var memories []persona.InteractionMemory
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var m persona.InteractionMemory
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			continue
		}
		memories = append(memories, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// newest first
	for i, j := 0, len(memories)-1; i < j; i, j = i+1, j-1 {
		memories[i], memories[j] = memories[j], memories[i]
	}
	return truncate(memories, limit), nil
}

func (f *FileStore) DeleteState(identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, path := range []string{f.statePath(identity), f.memoryPath(identity)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (f *FileStore) ListIdentities() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	identities := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, stateFileSuffix) {
			continue
		}
		identity, err := unescapeIdentity(strings.TrimSuffix(name, stateFileSuffix))
		if err != nil {
			continue
		}
		identities = append(identities, identity)
	}
	return identities, nil
}
