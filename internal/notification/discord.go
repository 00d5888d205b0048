package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

// embed colours per target bucket
var statusColors = map[domain.Status]int{
	domain.StatusWatchlist:   0x3498db,
	domain.StatusWatchLater:  0x9b59b6,
	domain.StatusWatching:    0xf1c40f,
	domain.StatusCompleted:   0x00ff00,
	domain.StatusDropped:     0xff0000,
	domain.StatusPlanToWatch: 0x1abc9c,
	domain.StatusUnlisted:    0x95a5a6,
}

// DiscordService posts tracking changes to a Discord webhook
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	client     *resty.Client
}

func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		client:     resty.New().SetTimeout(10 * time.Second),
	}
}

func (s *DiscordService) SendStatusChange(ctx context.Context, change domain.StatusChange) error {
	if s.webhookURL == "" {
		return nil
	}

	title := change.Title
	if title == "" {
		title = fmt.Sprintf("Anime ID: %d", change.AnimeID)
	}

	embed := discordEmbed{
		Title:       title,
		Description: describe(change),
		Color:       statusColors[change.To],
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []discordField{
			{Name: "From", Value: label(change.From), Inline: true},
			{Name: "To", Value: label(change.To), Inline: true},
			{Name: "Store", Value: change.Backend, Inline: true},
		},
	}
	if change.Image != "" && change.Image != domain.PlaceholderImage {
		embed.Thumbnail = &discordImage{URL: change.Image}
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func describe(c domain.StatusChange) string {
	switch {
	case c.To == domain.StatusUnlisted:
		return "Removed from all lists"
	case c.From == domain.StatusUnlisted:
		return fmt.Sprintf("Added to %s", label(c.To))
	default:
		return fmt.Sprintf("Moved to %s", label(c.To))
	}
}

// label renders a bucket the way the list tabs name it
func label(s domain.Status) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(string(s), "-", " ")
}

func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.webhookURL)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}

	if resp.IsError() {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode())
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Thumbnail   *discordImage  `json:"thumbnail,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordImage struct {
	URL string `json:"url"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
