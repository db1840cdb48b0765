package companion

import (
	"errors"
	"sync"

	"kokoro/pkg/persona"
)

// ErrNoIdentity is returned by Session calls made before SelectIdentity.
var ErrNoIdentity = errors.New("no companion identity selected")

// Session is a handle bound to one current identity at a time.
type Session struct {
	registry *Registry

	mu       sync.RWMutex
	identity string
}

// NewSession returns a handle with no identity selected.
func (r *Registry) NewSession() *Session {
	return &Session{registry: r}
}

// SelectIdentity loads identity (or its defaults) and makes it current.
func (s *Session) SelectIdentity(identity string) error {
	if err := s.registry.Select(identity); err != nil {
		return err
	}
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	return nil
}

// Identity returns the current identity, or "" when none is selected.
func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) current() (string, error) {
	identity := s.Identity()
	if identity == "" {
		return "", ErrNoIdentity
	}
	return identity, nil
}

func (s *Session) ProcessInteraction(text string) (persona.CompanionState, error) {
	identity, err := s.current()
	if err != nil {
		return persona.CompanionState{}, err
	}
	return s.registry.ProcessInteraction(identity, text)
}

func (s *Session) ProcessInteractionWithQuality(text string, quality float64) (persona.CompanionState, error) {
	identity, err := s.current()
	if err != nil {
		return persona.CompanionState{}, err
	}
	return s.registry.ProcessInteractionWithQuality(identity, text, quality)
}

func (s *Session) AdvanceTime(hoursElapsed float64) (persona.CompanionState, error) {
	identity, err := s.current()
	if err != nil {
		return persona.CompanionState{}, err
	}
	return s.registry.AdvanceTime(identity, hoursElapsed)
}

func (s *Session) Reset() (persona.CompanionState, error) {
	identity, err := s.current()
	if err != nil {
		return persona.CompanionState{}, err
	}
	return s.registry.Reset(identity)
}

func (s *Session) State() (persona.CompanionState, error) {
	identity, err := s.current()
	if err != nil {
		return persona.CompanionState{}, err
	}
	return s.registry.State(identity)
}

func (s *Session) GetPersonalityPrompt() (string, error) {
	identity, err := s.current()
	if err != nil {
		return "", err
	}
	return s.registry.GetPersonalityPrompt(identity)
}

func (s *Session) GetResponseStyleModifiers() (map[string]float64, error) {
	identity, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.registry.GetResponseStyleModifiers(identity)
}

func (s *Session) GetAvatarAnimationState() (string, error) {
	identity, err := s.current()
	if err != nil {
		return persona.AnimationDefault, err
	}
	return s.registry.GetAvatarAnimationState(identity)
}
