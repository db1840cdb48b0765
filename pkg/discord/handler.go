// Package discord exposes companions to Discord users: every message a user
// sends is an interaction with their own companion.
package discord

import (
	"log"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"kokoro/pkg/companion"
)

type Handler struct {
	companions *companion.Registry

	mu    sync.RWMutex
	botID string
}

func NewHandler(companions *companion.Registry) *Handler {
	return &Handler{companions: companions}
}

func (h *Handler) SetBotID(id string) {
	h.mu.Lock()
	h.botID = id
	h.mu.Unlock()
}

func (h *Handler) getBotID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.botID
}

// MessageCreate is the discordgo event hook.
func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.HandleMessage(&DiscordSession{s}, m)
}

// HandleMessage feeds a user's message to their companion and reacts with the
// resulting emotion.
func (h *Handler) HandleMessage(s Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == h.getBotID() {
		return
	}
	if strings.TrimSpace(m.Content) == "" {
		return
	}

	identity := Identity(m.Author.ID)
	state, err := h.companions.ProcessInteraction(identity, m.Content)
	if err != nil {
		log.Printf("[Discord] Failed to process message from %s: %v", m.Author.ID, err)
		return
	}

	emoji := reactionFor(state.Emotion)
	if emoji == "" {
		return
	}
	if err := s.MessageReactionAdd(m.ChannelID, m.ID, emoji); err != nil {
		log.Printf("[Discord] Error adding reaction: %v", err)
	}
}
