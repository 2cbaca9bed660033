// Package discord runs the bot that lets community members submit replays
// straight from the guild.
package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrCommandFailed   = errors.New("command failed")
	ErrSessionCreate   = errors.New("failed to create discord session")
	ErrSessionOpen     = errors.New("failed to open discord session")
	ErrCommandRegister = errors.New("failed to register discord commands")
	ErrDuplicateCmd    = errors.New("duplicate command handler")
)

type Cmd string

const (
	CmdRecord Cmd = "record"
)

type optionKey string

const (
	OptInput optionKey = "input"
)

// SlashCommandHandler is a handler for a single slash command. The returned
// embed is sent as the edit of the deferred interaction response.
type SlashCommandHandler func(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error)

type CommandOptions map[optionKey]*discordgo.ApplicationCommandInteractionDataOption

// OptionMap will take the recursive discord slash commands and flatten them into a simple
// map.
func OptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) CommandOptions {
	optionM := make(CommandOptions, len(options))
	for _, opt := range options {
		optionM[optionKey(opt.Name)] = opt
	}

	return optionM
}

func (opts CommandOptions) String(key optionKey) string {
	root, found := opts[key]
	if !found {
		return ""
	}

	val, ok := root.Value.(string)
	if !ok {
		return ""
	}

	return val
}
