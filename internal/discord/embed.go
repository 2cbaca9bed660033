package discord

import (
	"github.com/bwmarrin/discordgo"
	embed "github.com/leighmacdonald/discordgo-embed"
)

const providerName = "captrack"

const (
	ColorSuccess = 3066993
	ColorWarn    = 15105570
	ColorError   = 10038562
)

type Embed struct {
	emb *embed.Embed
}

// NewEmbed constructs a new discord embed message.
func NewEmbed(args ...string) *Embed {
	newEmbed := embed.
		NewEmbed().
		SetFooter(providerName)

	if len(args) == 2 {
		newEmbed = newEmbed.SetTitle(args[0]).
			SetDescription(args[1])
	} else if len(args) == 1 {
		newEmbed = newEmbed.SetTitle(args[0])
	}

	return &Embed{emb: newEmbed}
}

func (e *Embed) Embed() *embed.Embed {
	return e.emb
}

func (e *Embed) Message() *discordgo.MessageEmbed {
	return e.emb.MessageEmbed
}
