package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kunena-discord/models"
	"kunena-discord/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const (
	// MaxPayloadBytes keeps a margin under Discord's 6000-character embed total.
	MaxPayloadBytes = 6000

	// FallbackContentLimit is the description budget once a payload is too large.
	FallbackContentLimit = 1000

	// OversizeDescription replaces the description when even the fallback is too large.
	OversizeDescription = "[Post too large for Discord - view on forum]"

	DefaultFooterText = "Kunena Forum"
	DefaultEmbedColor = 0x7289DA

	footerLimit = 2040

	// TimestampLayout is ISO-8601 with a numeric UTC offset.
	TimestampLayout = "2006-01-02T15:04:05-07:00"
)

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// PayloadOptions are the presentation settings of every embed.
type PayloadOptions struct {
	FooterText  string
	CustomColor string
	EmbedColor  string
}

// Builder turns notification records into webhook JSON bodies.
type Builder struct {
	footer string
	color  int
	log    zerolog.Logger
	now    func() time.Time
}

// NewBuilder resolves the footer and color once.
func NewBuilder(opts PayloadOptions, log zerolog.Logger) *Builder {
	footer := opts.FooterText
	if footer == "" {
		footer = DefaultFooterText
	}
	return &Builder{
		footer: utils.Truncate(footer, footerLimit),
		color:  ResolveColor(opts.CustomColor, opts.EmbedColor, log),
		log:    log,
		now:    time.Now,
	}
}

// Color returns the resolved embed color.
func (b *Builder) Color() int { return b.color }

// ResolveColor prefers a valid 6-digit custom color ("#" optional) and falls back
// to embedColor, then to Discord blurple.
func ResolveColor(custom, embedColor string, log zerolog.Logger) int {
	if custom = strings.TrimSpace(custom); custom != "" {
		trimmed := strings.TrimPrefix(custom, "#")
		if hexColor.MatchString(trimmed) {
			v, _ := strconv.ParseInt(trimmed, 16, 32)
			return int(v)
		}
		log.Warn().Str("custom_color", custom).Msg("invalid custom color format, using default")
	}

	v, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(embedColor), "#"), 16, 32)
	if err != nil || v < 0 || v > 0xFFFFFF {
		log.Warn().Str("embed_color", embedColor).Msg("invalid embed color, using blurple")
		return DefaultEmbedColor
	}
	return int(v)
}

// Build renders rec as a single-embed webhook message. Oversized payloads first
// get a shorter description, then a fixed placeholder; the last form is returned
// whatever its size.
func (b *Builder) Build(rec models.NotificationRecord) ([]byte, error) {
	embed := &discordgo.MessageEmbed{
		Title:       rec.Subject,
		Description: rec.Content,
		URL:         rec.URL,
		Author:      &discordgo.MessageEmbedAuthor{Name: rec.Author},
		Timestamp:   b.now().Format(TimestampLayout),
		Footer:      &discordgo.MessageEmbedFooter{Text: b.footer},
	}
	msg := models.WebhookMessage{Embeds: []*models.Embed{{MessageEmbed: embed, Color: b.color}}}

	data, err := encode(msg)
	if err != nil {
		return nil, err
	}
	b.log.Debug().
		Int("payload_bytes", len(data)).
		Str("color", fmt.Sprintf("#%06x", b.color)).
		Msg("payload built")

	if len(data) <= MaxPayloadBytes {
		return data, nil
	}

	b.log.Warn().Int("payload_bytes", len(data)).Msg("payload too large, emergency truncation")
	embed.Description = utils.Truncate(rec.Content, FallbackContentLimit)
	if data, err = encode(msg); err != nil {
		return nil, err
	}
	if len(data) <= MaxPayloadBytes {
		return data, nil
	}

	embed.Description = OversizeDescription
	return encode(msg)
}

// encode marshals without HTML escaping so the size check sees what Discord gets.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
