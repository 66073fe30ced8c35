// Package channel hosts alternative front ends for the question pipeline.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"webloom/internal/answer"
	"webloom/internal/domain"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

// answerer is the part of the pipeline the bot needs.
type answerer interface {
	Answer(ctx context.Context, question string, owner domain.OwnerFilter) (*domain.AnswerResult, error)
	RemoteAvailable() bool
}

// Telegram answers questions over a Telegram bot. Every plain message is
// treated as a question against the configured document scope.
type Telegram struct {
	token     string
	allowFrom []int64 // allowed user IDs (empty = allow all)
	owner     domain.OwnerFilter
	pipeline  answerer
	store     domain.DocumentStore
	logger    *slog.Logger

	bot *tgbotapi.BotAPI
}

type TelegramOptions struct {
	Token     string
	AllowFrom []string // user IDs as strings
	Owner     domain.OwnerFilter
	Pipeline  answerer
	Store     domain.DocumentStore
	Logger    *slog.Logger
}

func NewTelegram(opts TelegramOptions) *Telegram {
	var allowed []int64
	for _, s := range opts.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	return &Telegram{
		token:     opts.Token,
		allowFrom: allowed,
		owner:     opts.Owner,
		pipeline:  opts.Pipeline,
		store:     opts.Store,
		logger:    opts.Logger,
	}
}

// Start connects to Telegram and polls for updates until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram bot stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !t.isAllowed(userID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", userID,
			"username", update.Message.From.UserName,
		)
		t.sendMessage(chatID, "Unauthorized. Your user ID is not in the allow list.")
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	if update.Message.IsCommand() {
		t.handleCommand(ctx, chatID, update.Message)
		return
	}

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = t.bot.Send(typing)

	t.answerQuestion(ctx, chatID, text)
}

func (t *Telegram) answerQuestion(ctx context.Context, chatID int64, question string) {
	result, err := t.pipeline.Answer(ctx, question, t.owner)
	if err != nil {
		t.logger.Error("telegram question failed", "chat_id", chatID, "err", err)
		t.sendMessage(chatID, "Sorry, something went wrong answering that. Please try again.")
		return
	}

	t.sendMessage(chatID, formatAnswer(result))
}

// formatAnswer renders the answer plus a numbered reference list.
func formatAnswer(result *domain.AnswerResult) string {
	var sb strings.Builder
	sb.WriteString(result.Text)

	if len(result.References) > 0 {
		sb.WriteString("\n\nReferences:")
		for i, ref := range result.References {
			fmt.Fprintf(&sb, "\n%d. %s\n%s", i+1, ref.Title, ref.URL)
		}
	}
	return sb.String()
}

func (t *Telegram) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		t.sendMessage(chatID, "Hello! I answer questions from your WebLoom knowledge base.\n\nJust send me a question.\n\nCommands:\n/status - Bot and knowledge base status\n/help - Show this message")
	case "help":
		t.sendMessage(chatID, "Send me any question and I'll answer it from the page content you've captured with WebLoom.\n\nCommands:\n/status - Bot and knowledge base status")
	case "status":
		count, err := t.store.Count(ctx, t.owner)
		if err != nil {
			t.logger.Error("telegram status count failed", "err", err)
			t.sendMessage(chatID, "Could not read the knowledge base.")
			return
		}
		aiStatus := "enabled"
		if !t.pipeline.RemoteAvailable() {
			aiStatus = "disabled"
		}
		t.sendMessage(chatID, fmt.Sprintf("Bot: @%s\nStored documents: %d\nAI answering: %s", t.bot.Self.UserName, count, aiStatus))
	default:
		t.sendMessage(chatID, "Unknown command. Type /help for available commands.")
	}
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}

// sendMessage splits long answers to stay under Telegram's message limit,
// preferring to cut at a line break.
func (t *Telegram) sendMessage(chatID int64, text string) {
	for len(text) > 0 {
		chunk := text
		if len(chunk) > telegramMaxMsgLen {
			cutAt := strings.LastIndex(chunk[:telegramMaxMsgLen], "\n")
			if cutAt < telegramMaxMsgLen/2 {
				cutAt = telegramMaxMsgLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		t.sendChunk(chatID, chunk)
	}
}

// sendChunk sends one chunk with backoff on rate limits and transient
// errors.
func (t *Telegram) sendChunk(chatID int64, text string) {
	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		_, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
		if err == nil {
			return
		}

		errStr := err.Error()
		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off",
				"retry_after", retryAfter, "attempt", attempt+1,
			)
			time.Sleep(retryAfter)
			continue
		}

		if attempt < telegramMaxSendRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}

		t.logger.Error("telegram send failed after retries", "err", err, "attempts", telegramMaxSendRetries+1)
	}
}

// ensure the pipeline satisfies the bot's interface
var _ answerer = (*answer.Pipeline)(nil)
