package record

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/gltp/captrack/internal/discord"
	"github.com/gltp/captrack/pkg/replay"
)

// RegisterDiscordCommands binds the /record command so guild members can
// submit replays without touching the HTTP API.
func RegisterDiscordCommands(bot *discord.Bot, records Records) error {
	return bot.RegisterHandler(&discordgo.ApplicationCommand{
		Name:        string(discord.CmdRecord),
		Description: "Capture record tracking",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "parse",
				Description: "Parse a replay and submit the capture record",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        string(discord.OptInput),
						Description: "Replay uuid or share link",
						Required:    true,
					},
				},
			},
		},
	}, onRecordCommand(records))
}

func onRecordCommand(records Records) discord.SlashCommandHandler {
	return func(ctx context.Context, _ *discordgo.Session, interaction *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
		data := interaction.ApplicationCommandData()
		if len(data.Options) == 0 || data.Options[0].Name != "parse" {
			return nil, discord.ErrCommandFailed
		}

		opts := discord.OptionMap(data.Options[0].Options)

		result, errProcess := records.Process(ctx, opts.String(discord.OptInput), "discord")
		if errProcess != nil {
			return nil, discord.ErrCommandFailed
		}

		return NewResultMessage(result), nil
	}
}

// NewResultMessage renders a processing outcome as a discord embed.
func NewResultMessage(result Result) *discordgo.MessageEmbed {
	if !result.Ok {
		return discord.NewEmbed("Parse Failed").Embed().
			SetDescription(result.Error).
			SetColor(discord.ColorError).
			MessageEmbed
	}

	rec := result.Record

	if result.Upload != nil && result.Upload.Body.Status == StatusDuplicate {
		return discord.NewEmbed("Already Recorded").Embed().
			SetDescription(result.Summary).
			SetColor(discord.ColorWarn).
			MessageEmbed
	}

	if !rec.Completed() {
		title := "No Capture Found"
		if !rec.HasPlayers() {
			title = "No Players Found"
		}

		return discord.NewEmbed(title).Embed().
			SetDescription(result.Summary).
			SetColor(discord.ColorWarn).
			MessageEmbed
	}

	msg := discord.NewEmbed("New Record!").Embed().
		SetDescription(result.Summary).
		SetColor(discord.ColorSuccess).
		AddField("Map", rec.MapName).MakeFieldInline().
		AddField("Capper", *rec.CappingPlayer).MakeFieldInline().
		AddField("Time", replay.FormatRecordTime(*rec.RecordTime)).MakeFieldInline()

	if rec.CappingPlayerQuote != nil && *rec.CappingPlayerQuote != "" {
		msg = msg.AddField("Final Words", *rec.CappingPlayerQuote)
	}

	if rec.Started > 0 {
		msg = msg.AddField("Played", humanize.Time(time.UnixMilli(rec.Started)))
	}

	return msg.MessageEmbed
}
