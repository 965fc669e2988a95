package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/event"
)

// Identity the bot presents on every channel.
const (
	botUsername  = "sk8rgoose"
	botAvatarURL = "https://i.imgur.com/7OMGH86.png"
)

// Embed accent colors.
const (
	colorNew       = 65280    // green
	colorCancelled = 16711680 // red
	colorSchedule  = 1127128  // blue
)

type discordPayload struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url"`
	Embeds    []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Author    *discordAuthor `json:"author,omitempty"`
	Fields    []discordField `json:"fields,omitempty"`
	Color     int            `json:"color,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

type discordAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

type discordField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DiscordNotifier posts one webhook message per configured URL. The
// message leads with an author banner, follows with one embed per change
// block, and closes with the upcoming schedule for every configuration.
type DiscordNotifier struct {
	webhookURLs []string
	scheduleURL string
	loc         *time.Location
	client      *http.Client
	logger      *zap.Logger
}

// NewDiscord creates a Discord notifier for the given webhook URLs.
func NewDiscord(webhookURLs []string, scheduleURL string, loc *time.Location, logger *zap.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURLs: webhookURLs,
		scheduleURL: scheduleURL,
		loc:         loc,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

// Send posts the update to every webhook. A failed webhook is recorded
// and the rest are still attempted.
func (d *DiscordNotifier) Send(ctx context.Context, u Update) error {
	payload, err := d.buildPayload(u)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding discord payload: %w", err)
	}

	var derrs DeliveryErrors
	for _, webhookURL := range d.webhookURLs {
		if err := d.post(ctx, webhookURL, body); err != nil {
			d.logger.Error("discord delivery failed",
				zap.String("webhook_url", webhookURL),
				zap.String("run_id", u.RunID),
				zap.Error(err))
			derrs.Append(d.Name(), webhookURL, err)
		}
	}
	return derrs.ErrorOrNil()
}

func (d *DiscordNotifier) buildPayload(u Update) (*discordPayload, error) {
	ts := u.Now.Format(time.RFC3339)

	embeds := []discordEmbed{{
		Author: &discordAuthor{
			Name:    botUsername + " has an update!",
			IconURL: botAvatarURL,
		},
	}}

	// One embed per non-empty change block, additions before
	// cancellations.
	for _, item := range u.Items {
		cfg := item.Changes.Config
		for _, ct := range event.ChangeTypes {
			ranges := item.Changes.Ranges(ct)
			if len(ranges) == 0 {
				continue
			}
			lines, err := renderRanges(ranges, d.loc)
			if err != nil {
				return nil, err
			}
			color := colorNew
			if ct == event.ChangeCancelled {
				color = colorCancelled
			}
			embeds = append(embeds, discordEmbed{
				Fields: []discordField{{
					Name:  fmt.Sprintf("%s %s Sessions at %s", ct, cfg.EventName, cfg.FacilityName),
					Value: joinWithNewlines(lines),
				}},
				Color:     color,
				Timestamp: ts,
			})
		}
	}

	// One schedule embed per configuration, changed or not.
	for _, item := range u.Items {
		cfg := item.Changes.Config
		lines, err := renderEntries(item.Entries, d.loc)
		if err != nil {
			return nil, err
		}
		embeds = append(embeds, discordEmbed{
			Fields: []discordField{
				{
					Name:  fmt.Sprintf("%s sessions at %s in the next %d days", cfg.EventName, cfg.FacilityName, cfg.LookaheadDays),
					Value: joinWithNewlines(lines),
				},
				{
					Name:  "",
					Value: fmt.Sprintf("Check the [facility schedule](%s)", facilityScheduleURL(d.scheduleURL, cfg.FacilityID)),
				},
			},
			Color:     colorSchedule,
			Timestamp: ts,
		})
	}

	return &discordPayload{
		Username:  botUsername,
		AvatarURL: botAvatarURL,
		Embeds:    embeds,
	}, nil
}

// post delivers one webhook request. Discord answers a bare webhook POST
// with 204 No Content; anything else is a failure.
func (d *DiscordNotifier) post(ctx context.Context, webhookURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}

// joinWithNewlines renders lines with a newline after each one, matching
// how the embeds display multi-session lists.
func joinWithNewlines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
