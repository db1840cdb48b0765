package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Session abstracts discordgo.Session for testing
type Session interface {
	MessageReactionAdd(channelID, messageID, emojiID string) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

// DiscordSession adapts discordgo.Session to the Session interface
type DiscordSession struct {
	*discordgo.Session
}

func (s *DiscordSession) MessageReactionAdd(channelID, messageID, emojiID string) error {
	return s.Session.MessageReactionAdd(channelID, messageID, emojiID)
}

func (s *DiscordSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return s.Session.InteractionRespond(interaction, resp)
}

// getUserFromInteraction extracts the user ID and name from an interaction.
// It handles both guild (Member) and DM (User) contexts.
func getUserFromInteraction(i *discordgo.InteractionCreate) (string, string, error) {
	if i.Member != nil && i.Member.User != nil {
		userName := i.Member.User.Username
		if i.Member.User.GlobalName != "" {
			userName = i.Member.User.GlobalName
		}
		return i.Member.User.ID, userName, nil
	}

	if i.User != nil {
		userName := i.User.Username
		if i.User.GlobalName != "" {
			userName = i.User.GlobalName
		}
		return i.User.ID, userName, nil
	}

	return "", "", fmt.Errorf("could not determine user from interaction")
}

// Identity maps a Discord user to a companion identity.
func Identity(userID string) string {
	return "discord:" + userID
}
