package discord

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"kokoro/pkg/persona"
)

const memoryListLimit = 5

// SlashCommands defines all available slash commands
var SlashCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "status",
		Description: "See how your companion is feeling and how close you are",
	},
	{
		Name:        "personality",
		Description: "Show the personality prompt your companion is currently using",
	},
	{
		Name:        "memories",
		Description: "List the moments your companion remembers most recently",
	},
	{
		Name:        "reset",
		Description: "Permanently reset your companion to a stranger",
	},
}

// SlashCommandHandlers maps command names to their handler functions
var SlashCommandHandlers = map[string]func(h *Handler, s Session, i *discordgo.InteractionCreate, identity string){
	"status":      handleStatusCommand,
	"personality": handlePersonalityCommand,
	"memories":    handleMemoriesCommand,
	"reset":       handleResetCommand,
}

func respondEphemeral(s Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[Discord] Error responding to interaction: %v", err)
	}
}

func handleStatusCommand(h *Handler, s Session, i *discordgo.InteractionCreate, identity string) {
	state, err := h.companions.State(identity)
	if err != nil {
		log.Printf("[Discord] Error loading status for %s: %v", identity, err)
		respondEphemeral(s, i, "Something went wrong, try again later?")
		return
	}
	respondEphemeral(s, i, formatStatus(state))
}

func formatStatus(state persona.CompanionState) string {
	var b strings.Builder
	b.WriteString("**💭 Companion Status**\n\n")
	fmt.Fprintf(&b, "• Feeling: %s\n", state.Emotion)
	fmt.Fprintf(&b, "• Relationship: %s (bonding %.1f/100)\n", strings.ReplaceAll(string(state.Stage()), "_", " "), state.BondingLevel)
	fmt.Fprintf(&b, "• Energy: %.0f%%\n", state.EnergyLevel*100)
	fmt.Fprintf(&b, "• Animation: %s\n", persona.AnimationFor(state))
	fmt.Fprintf(&b, "• Personality: %s\n", persona.PersonalityDescription(state.Traits))
	return b.String()
}

func handlePersonalityCommand(h *Handler, s Session, i *discordgo.InteractionCreate, identity string) {
	prompt, err := h.companions.GetPersonalityPrompt(identity)
	if err != nil {
		log.Printf("[Discord] Error rendering prompt for %s: %v", identity, err)
		respondEphemeral(s, i, "Something went wrong, try again later?")
		return
	}
	respondEphemeral(s, i, "```\n"+prompt+"\n```")
}

func handleMemoriesCommand(h *Handler, s Session, i *discordgo.InteractionCreate, identity string) {
	memories, err := h.companions.GetMemories(identity, memoryListLimit)
	if err != nil {
		log.Printf("[Discord] Error fetching memories for %s: %v", identity, err)
		respondEphemeral(s, i, "Error fetching memories.")
		return
	}

	content := "**🧠 What Your Companion Remembers**\n\n"
	if len(memories) == 0 {
		content += "_Nothing stands out yet! Keep chatting._"
	} else {
		for _, m := range memories {
			content += fmt.Sprintf("• [%s, %.1f] %s\n", m.Type, m.Importance, m.Context)
		}
	}
	respondEphemeral(s, i, content)
}

func handleResetCommand(h *Handler, s Session, i *discordgo.InteractionCreate, identity string) {
	content := "Reset! We're strangers again. 💭✨"
	if _, err := h.companions.Reset(identity); err != nil {
		log.Printf("[Discord] Error resetting %s: %v", identity, err)
		content = "Ugh, something went wrong trying to reset... Try again later?"
	}
	respondEphemeral(s, i, content)
}

// InteractionCreate handles all slash command interactions
func (h *Handler) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.HandleInteraction(&DiscordSession{s}, i)
}

func (h *Handler) HandleInteraction(s Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	commandName := i.ApplicationCommandData().Name
	handler, ok := SlashCommandHandlers[commandName]
	if !ok {
		log.Printf("[Discord] Unknown slash command: %s", commandName)
		return
	}

	userID, _, err := getUserFromInteraction(i)
	if err != nil {
		log.Printf("[Discord] Error: %v", err)
		return
	}
	handler(h, s, i, Identity(userID))
}

// RegisterSlashCommands registers all slash commands with Discord
func RegisterSlashCommands(s *discordgo.Session, guildID string) ([]*discordgo.ApplicationCommand, error) {
	log.Println("[Discord] Registering slash commands...")

	registered := make([]*discordgo.ApplicationCommand, len(SlashCommands))
	for i, cmd := range SlashCommands {
		created, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd)
		if err != nil {
			log.Printf("[Discord] Cannot create '%s' command: %v", cmd.Name, err)
			return nil, err
		}
		registered[i] = created
		log.Printf("[Discord] Registered command: %s", cmd.Name)
	}
	return registered, nil
}

// UnregisterSlashCommands removes all registered slash commands
func UnregisterSlashCommands(s *discordgo.Session, guildID string, commands []*discordgo.ApplicationCommand) error {
	log.Println("[Discord] Unregistering slash commands...")

	for _, cmd := range commands {
		if err := s.ApplicationCommandDelete(s.State.User.ID, guildID, cmd.ID); err != nil {
			log.Printf("[Discord] Cannot delete '%s' command: %v", cmd.Name, err)
			return err
		}
	}
	return nil
}
