package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/mzhao129/facility-notifier/internal/event"
	"github.com/mzhao129/facility-notifier/internal/store"
)

// sourceCodeURL is linked in the footer of every Telegram update.
const sourceCodeURL = "https://github.com/mzhao129/facility-notifier"

const welcomeMessage = "Hi there! I'm a bot that sends updates about UWaterloo facility schedules. To subscribe to updates, please send me `/subscribe`. To unsubscribe, please send me `/unsubscribe`. Send me `/help` to see this message again. I reply periodically instead of on-demand, so it might take a few minutes (depending on my deployment setting) for me to respond."

// TelegramNotifier broadcasts updates to subscribed chats and keeps the
// subscriber list current by draining the bot's pending commands each
// poll.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	state       *store.State
	scheduleURL string
	loc         *time.Location
	logger      *zap.Logger
}

// NewTelegram creates the Telegram channel. apiEndpoint overrides the
// Telegram API base for tests; pass "" in production. Construction
// verifies the token against the API.
func NewTelegram(token, apiEndpoint string, state *store.State, scheduleURL string, loc *time.Location, logger *zap.Logger) (*TelegramNotifier, error) {
	endpoint := tgbotapi.APIEndpoint
	if apiEndpoint != "" {
		endpoint = apiEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:         bot,
		state:       state,
		scheduleURL: scheduleURL,
		loc:         loc,
		logger:      logger,
	}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// RefreshSubscribers drains the bot's pending updates, applying subscribe
// and unsubscribe commands, and returns the resulting chat list. A chat
// the bot can no longer reach is dropped rather than failing the poll.
// The update cursor and subscriber list are persisted before returning.
func (t *TelegramNotifier) RefreshSubscribers(ctx context.Context) ([]int64, error) {
	lastID, err := t.state.LastUpdateID(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := t.state.Subscribers(ctx)
	if err != nil {
		return nil, err
	}

	offset := 0
	if lastID > 0 {
		offset = lastID + 1
	}
	updates, err := t.bot.GetUpdates(tgbotapi.UpdateConfig{Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("getting telegram updates: %w", err)
	}

	for _, update := range updates {
		if update.UpdateID > lastID {
			lastID = update.UpdateID
		}
		switch {
		case update.Message != nil:
			subs, err = t.handleMessage(update.Message, subs)
		case update.MyChatMember != nil:
			// The bot was added to (or re-enabled in) a chat; greet it.
			subs, err = t.reply(update.MyChatMember.Chat.ID, 0, welcomeMessage, subs)
		default:
			t.logger.Warn("unhandled telegram update type", zap.Int("update_id", update.UpdateID))
		}
		if err != nil {
			return nil, err
		}
	}

	if err := t.state.SaveLastUpdateID(ctx, lastID); err != nil {
		return nil, err
	}
	if err := t.state.SaveSubscribers(ctx, subs); err != nil {
		return nil, err
	}

	t.logger.Debug("telegram subscribers refreshed",
		zap.Int("updates", len(updates)),
		zap.Int("subscribers", len(subs)),
		zap.Int("last_update_id", lastID))
	return subs, nil
}

// handleMessage applies one inbound message to the subscriber list and
// answers it. Commands are matched as substrings of the lowercased text,
// unsubscribe before subscribe so the longer command wins.
func (t *TelegramNotifier) handleMessage(msg *tgbotapi.Message, subs []int64) ([]int64, error) {
	if msg.Chat == nil {
		t.logger.Warn("telegram message without chat", zap.Int("message_id", msg.MessageID))
		return subs, nil
	}
	if msg.Text == "" {
		// Media and service messages carry no text; nothing to answer.
		return subs, nil
	}

	chatID := msg.Chat.ID
	text := strings.ToLower(msg.Text)

	var reply string
	switch {
	case strings.Contains(text, "/unsubscribe"):
		subs = removeChat(subs, chatID)
		reply = "This chat has been unsubscribed from updates."
	case strings.Contains(text, "/subscribe"):
		subs = addChat(subs, chatID)
		reply = "This chat has been subscribed to updates!"
	case strings.Contains(text, "/start"), strings.Contains(text, "/help"):
		reply = welcomeMessage
	default:
		reply = "I don't understand this command. Please use `/help` to see a list of available commands."
	}
	return t.reply(chatID, msg.MessageID, reply, subs)
}

// reply answers one chat. When the chat has blocked or removed the bot it
// is dropped from subs; any other send failure is fatal.
func (t *TelegramNotifier) reply(chatID int64, replyTo int, text string, subs []int64) ([]int64, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}
	if _, err := t.bot.Send(msg); err != nil {
		if isUnreachableChat(err) {
			t.logger.Warn("chat unreachable, dropping from subscribers",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
			return removeChat(subs, chatID), nil
		}
		return subs, fmt.Errorf("replying to chat %d: %w", chatID, err)
	}
	return subs, nil
}

// Send broadcasts the combined update message to every subscriber. A chat
// that has blocked the bot is dropped from the persisted subscriber list;
// other failures are collected per chat.
func (t *TelegramNotifier) Send(ctx context.Context, u Update) error {
	subs, err := t.state.Subscribers(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	text, err := t.buildMessage(u)
	if err != nil {
		return err
	}

	var derrs DeliveryErrors
	for _, chatID := range subs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			if isUnreachableChat(err) {
				t.logger.Warn("chat unreachable, dropping from subscribers",
					zap.Int64("chat_id", chatID),
					zap.Error(err))
				if _, rerr := t.state.RemoveSubscriber(ctx, chatID); rerr != nil {
					return rerr
				}
				continue
			}
			derrs.Append(t.Name(), strconv.FormatInt(chatID, 10), err)
		}
	}
	return derrs.ErrorOrNil()
}

// buildMessage renders change blocks for every configuration with
// changes, then the upcoming schedule for every configuration, then the
// footer, joined by blank lines.
func (t *TelegramNotifier) buildMessage(u Update) (string, error) {
	var blocks []string

	for _, item := range u.Items {
		block, err := t.formatChanges(item.Changes)
		if err != nil {
			return "", err
		}
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	for _, item := range u.Items {
		block, err := t.formatSchedule(item.Changes.Config, item.Entries)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	blocks = append(blocks, "------------\n[Bot source code]("+sourceCodeURL+")")

	return strings.Join(blocks, "\n\n"), nil
}

func (t *TelegramNotifier) formatChanges(changes event.Changes) (string, error) {
	var b strings.Builder
	for _, ct := range event.ChangeTypes {
		ranges := changes.Ranges(ct)
		if len(ranges) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "*%s %s sessions*", ct, changes.Config.EventName)

		emoji := "✅"
		if ct == event.ChangeCancelled {
			emoji = "❌"
		}
		for _, r := range ranges {
			s, err := event.FormatTimeRange(r.Start, r.End, t.loc)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "\n%s %s", emoji, s)
		}
	}
	return b.String(), nil
}

func (t *TelegramNotifier) formatSchedule(cfg event.Config, entries event.Snapshot) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s sessions at %s in the next %d days*", cfg.EventName, cfg.FacilityName, cfg.LookaheadDays)
	for _, e := range entries {
		s, err := event.FormatTimeRange(e.Start, e.End, t.loc)
		if err != nil {
			return "", err
		}
		b.WriteByte('\n')
		b.WriteString(s)
	}
	fmt.Fprintf(&b, "\n[facility schedule](%s)", facilityScheduleURL(t.scheduleURL, cfg.FacilityID))
	return b.String(), nil
}

// isUnreachableChat reports whether err means the chat blocked or removed
// the bot, which the API answers with 403 or a 400 chat-not-found.
func isUnreachableChat(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.Code == http.StatusForbidden || tgErr.Code == http.StatusBadRequest
	}
	return false
}

func addChat(subs []int64, chatID int64) []int64 {
	if slices.Contains(subs, chatID) {
		return subs
	}
	return append(subs, chatID)
}

func removeChat(subs []int64, chatID int64) []int64 {
	i := slices.Index(subs, chatID)
	if i < 0 {
		return subs
	}
	return slices.Delete(subs, i, i+1)
}
