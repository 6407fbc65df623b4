package models

import "github.com/bwmarrin/discordgo"

// Embed is a Discord embed whose color is always serialized. discordgo tags
// Color omitempty, which would drop a black (0x000000) embed color.
type Embed struct {
	*discordgo.MessageEmbed
	Color int `json:"color"`
}

// WebhookMessage is the JSON body posted to a Discord webhook.
type WebhookMessage struct {
	Embeds []*Embed `json:"embeds"`
}
