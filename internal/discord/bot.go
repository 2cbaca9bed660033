package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gltp/captrack/pkg/log"
)

type Bot struct {
	session         *discordgo.Session
	appID           string
	guildID         string
	commands        []*discordgo.ApplicationCommand
	commandHandlers map[Cmd]SlashCommandHandler
}

func NewBot(token string, appID string, guildID string) (*Bot, error) {
	session, errSession := discordgo.New("Bot " + token)
	if errSession != nil {
		return nil, errors.Join(errSession, ErrSessionCreate)
	}

	session.UserAgent = "captrack (https://github.com/gltp/captrack)"
	session.Identify.Intents = discordgo.IntentsGuildMessages

	return &Bot{
		session:         session,
		appID:           appID,
		guildID:         guildID,
		commandHandlers: map[Cmd]SlashCommandHandler{},
	}, nil
}

// RegisterHandler binds a slash command definition to its handler. Must be
// called before Start.
func (bot *Bot) RegisterHandler(command *discordgo.ApplicationCommand, handler SlashCommandHandler) error {
	cmd := Cmd(command.Name)
	if _, found := bot.commandHandlers[cmd]; found {
		return fmt.Errorf("%w: %s", ErrDuplicateCmd, cmd)
	}

	bot.commands = append(bot.commands, command)
	bot.commandHandlers[cmd] = handler

	return nil
}

func (bot *Bot) Start() error {
	bot.session.AddHandler(bot.onReady)
	bot.session.AddHandler(bot.onDisconnect)
	bot.session.AddHandler(bot.onInteractionCreate)

	if errOpen := bot.session.Open(); errOpen != nil {
		return errors.Join(errOpen, ErrSessionOpen)
	}

	if _, errBulk := bot.session.ApplicationCommandBulkOverwrite(bot.appID, bot.guildID, bot.commands); errBulk != nil {
		return errors.Join(errBulk, ErrCommandRegister)
	}

	slog.Info("Registered discord commands", slog.Int("count", len(bot.commands)))

	return nil
}

func (bot *Bot) Shutdown() {
	if errClose := bot.session.Close(); errClose != nil {
		slog.Error("Failed to close discord session cleanly", log.ErrAttr(errClose))
	}
}

func (bot *Bot) onReady(_ *discordgo.Session, _ *discordgo.Ready) {
	slog.Info("Bot is connected & ready")
}

func (bot *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	slog.Info("Disconnected from session ws API")
}

// onInteractionCreate is called when a user initiates an application command.
// The interaction is acknowledged immediately with a deferred response since
// parsing a replay involves remote fetches that easily outlast discord's
// response window.
func (bot *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	data := interaction.ApplicationCommandData()

	handler, found := bot.commandHandlers[Cmd(data.Name)]
	if !found {
		return
	}

	initialResponse := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}

	if errRespond := session.InteractionRespond(interaction.Interaction, initialResponse); errRespond != nil {
		slog.Error("Failed to send pre-interaction response", log.ErrAttr(errRespond))

		return
	}

	commandCtx, cancelCommand := context.WithTimeout(context.Background(), time.Second*30)
	defer cancelCommand()

	response, errHandle := handler(commandCtx, session, interaction)
	if errHandle != nil {
		slog.Error("User command error", slog.String("command", data.Name), log.ErrAttr(errHandle))

		response = NewEmbed("Error").Embed().
			SetDescription(errHandle.Error()).
			SetColor(ColorError).
			MessageEmbed
	}

	if _, errEdit := session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{response},
	}); errEdit != nil {
		slog.Error("Failed to send interaction response", log.ErrAttr(errEdit))
	}
}
