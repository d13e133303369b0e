// Package bot is the Telegram practice front end. It shares the store with
// the HTTP API, so answers given in chat count towards the same statistics.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/korjavin/gkentei/models"
)

// Store is the persistence the bot needs. *database.DB implements it.
type Store interface {
	EnsureUser(ctx context.Context, username string) (models.User, error)
	NextQuestion(ctx context.Context, userID int64, category string) (models.Question, error)
	GetQuestion(ctx context.Context, id int64) (models.Question, error)
	CategoryNames(ctx context.Context) ([]string, error)
	SaveAnswer(ctx context.Context, in models.AnswerInput) (models.AnswerResult, error)
	GetUserStats(ctx context.Context, userID int64) (models.UserStats, error)
	GetCachedExplanation(ctx context.Context, questionID int64) (string, error)
	CacheExplanation(ctx context.Context, questionID int64, body string) error
}

// Explainer produces a study explanation for a question
type Explainer interface {
	ExplainQuestion(ctx context.Context, q models.Question) (string, error)
}

// client is the subset of *tgbotapi.BotAPI the bot uses
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot represents the Telegram bot
type Bot struct {
	api       client
	store     Store
	explainer Explainer

	// OnAnswer, if set, runs after every recorded answer.
	OnAnswer func()

	mu            sync.Mutex
	users         map[int64]int64 // telegram user id -> user id
	userQuestions map[int64]int64 // telegram user id -> current question id
}

const (
	cmdStart      = "start"
	cmdNext       = "next"
	cmdHelp       = "help"
	cmdStat       = "stat"
	cmdCategories = "categories"

	callbackPrefix = "answer:"
)

// New creates a new bot instance
func New(token string, debug bool, store Store, explainer Explainer) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = debug
	slog.Info("Authorized on Telegram", slog.String("account", botAPI.Self.UserName))
	return newBot(botAPI, store, explainer), nil
}

func newBot(api client, store Store, explainer Explainer) *Bot {
	return &Bot{
		api:           api,
		store:         store,
		explainer:     explainer,
		users:         make(map[int64]int64),
		userQuestions: make(map[int64]int64),
	}
}

// Run polls for updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("Starting bot polling")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	slog.Debug("Received message",
		slog.String("from", message.From.UserName),
		slog.Int64("telegram_id", message.From.ID),
		slog.String("text", message.Text))

	switch message.Command() {
	case cmdStart:
		b.handleStartCommand(ctx, message)
	case cmdNext:
		b.sendNextQuestion(ctx, message.Chat.ID, message.From.ID, strings.TrimSpace(message.CommandArguments()))
	case cmdHelp:
		b.handleHelpCommand(ctx, message)
	case cmdStat:
		b.handleStatCommand(ctx, message)
	case cmdCategories:
		b.handleCategoriesCommand(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /start to begin, /next for a new question, or /help for assistance.")
	}
}

func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) {
	welcomeText := `Welcome to the G-Kentei practice bot!

This bot will help you prepare for the JDLA Deep Learning for GENERAL exam.

Commands:
/start - Start the bot and get a question
/next [category] - Get another question, optionally from one category
/categories - List the available categories
/help - Get an explanation of the current question
/stat - View your statistics

Let's begin with your first question!`

	b.sendMessage(message.Chat.ID, welcomeText)
	b.sendNextQuestion(ctx, message.Chat.ID, message.From.ID, "")
}

func (b *Bot) handleCategoriesCommand(ctx context.Context, message *tgbotapi.Message) {
	names, err := b.store.CategoryNames(ctx)
	if err != nil {
		slog.Error("Failed to list categories", slog.Any("error", err))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't load the categories. Please try again later.")
		return
	}
	if len(names) == 0 {
		b.sendMessage(message.Chat.ID, "No questions available yet.")
		return
	}
	b.sendMessage(message.Chat.ID, "Categories:\n"+strings.Join(names, "\n")+"\n\nUse /next <category> to practice one of them.")
}

// handleHelpCommand explains the user's current question, generating and
// caching an explanation when none is stored
func (b *Bot) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) {
	b.mu.Lock()
	questionID, exists := b.userQuestions[message.From.ID]
	b.mu.Unlock()
	if !exists {
		b.sendMessage(message.Chat.ID, "Please use /start to get your first question before asking for help.")
		return
	}

	cached, err := b.store.GetCachedExplanation(ctx, questionID)
	if err != nil {
		slog.Warn("Failed to read cached explanation", slog.Int64("question_id", questionID), slog.Any("error", err))
	}
	if cached != "" {
		b.sendMessage(message.Chat.ID, "Here's some help with this question:\n\n"+cached)
		return
	}

	question, err := b.store.GetQuestion(ctx, questionID)
	if err != nil {
		slog.Error("Failed to load question", slog.Int64("question_id", questionID), slog.Any("error", err))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't find your current question. Please use /next to get a new question.")
		return
	}

	if b.explainer == nil {
		if question.Explanation != "" {
			b.sendMessage(message.Chat.ID, "Here's some help with this question:\n\n"+question.Explanation)
			return
		}
		b.sendMessage(message.Chat.ID, "Sorry, no explanation is available for this question.")
		return
	}

	b.sendMessage(message.Chat.ID, "Analyzing this question, please wait a moment...")
	response, err := b.explainer.ExplainQuestion(ctx, question)
	if err != nil {
		slog.Error("Failed to generate explanation", slog.Int64("question_id", questionID), slog.Any("error", err))
		if question.Explanation != "" {
			b.sendMessage(message.Chat.ID, "Here's some help with this question:\n\n"+question.Explanation)
			return
		}
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't analyze this question. Please try again later.")
		return
	}

	if err := b.store.CacheExplanation(ctx, questionID, response); err != nil {
		slog.Warn("Failed to cache explanation", slog.Int64("question_id", questionID), slog.Any("error", err))
	}
	b.sendMessage(message.Chat.ID, "Here's some help with this question:\n\n"+response)
}

func (b *Bot) handleStatCommand(ctx context.Context, message *tgbotapi.Message) {
	userID, err := b.userID(ctx, message.From)
	if err != nil {
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't retrieve your statistics. Please try again later.")
		return
	}
	stats, err := b.store.GetUserStats(ctx, userID)
	if err != nil {
		slog.Error("Failed to get user stats", slog.Int64("user_id", userID), slog.Any("error", err))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't retrieve your statistics. Please try again later.")
		return
	}

	statMessage := fmt.Sprintf(`📊 Your Statistics:

Total Questions Attempted: %d
Correct Answers: %d ✅
Incorrect Answers: %d ❌
Accuracy: %.1f%%`, stats.Total, stats.Correct, stats.Incorrect, stats.Accuracy)

	if len(stats.Hardest) > 0 {
		statMessage += "\n\nMost Challenging Questions:\n"
		for i, id := range stats.Hardest {
			q, err := b.store.GetQuestion(ctx, id)
			if err != nil {
				continue
			}
			statMessage += fmt.Sprintf("%d. Question #%d: %s\n", i+1, q.ID, shorten(q.Question, 50))
		}
	}

	b.sendMessage(message.Chat.ID, statMessage)
}

// handleCallback records an answer chosen from the inline keyboard
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	questionID, answerIdx, ok := parseCallback(callback.Data)
	if !ok {
		slog.Warn("Invalid callback data", slog.String("data", callback.Data))
		return
	}

	// Acknowledge immediately to prevent "query is too old" errors
	b.sendCallbackResponse(callback.ID, "Processing your answer...")

	chatID := callback.Message.Chat.ID
	userID, err := b.userID(ctx, callback.From)
	if err != nil {
		b.sendMessage(chatID, "Sorry, I couldn't record your answer. Please try again later.")
		return
	}

	res, err := b.store.SaveAnswer(ctx, models.AnswerInput{
		UserID:      userID,
		QuestionID:  questionID,
		AnswerIndex: answerIdx,
	})
	if err != nil {
		slog.Error("Failed to save answer",
			slog.Int64("user_id", userID),
			slog.Int64("question_id", questionID),
			slog.Any("error", err))
		b.sendMessage(chatID, "Sorry, this question is no longer available.")
		return
	}
	if b.OnAnswer != nil {
		b.OnAnswer()
	}

	var text string
	if res.Correct {
		text = "✅ Correct! Well done!"
	} else {
		correct := "Unknown"
		if q, err := b.store.GetQuestion(ctx, questionID); err == nil && res.CorrectAnswer < len(q.Options) {
			correct = q.Options[res.CorrectAnswer]
		}
		text = fmt.Sprintf("❌ Sorry, that's not correct. The right answer is: %s", correct)
	}
	if res.Explanation != "" {
		text += "\n\n" + res.Explanation
	}
	text += "\n\nUse /help to get more information about this question or /next for a new question."
	b.sendMessage(chatID, text)
}

func parseCallback(data string) (questionID int64, answerIdx int, ok bool) {
	rest, found := strings.CutPrefix(data, callbackPrefix)
	if !found {
		return 0, 0, false
	}
	q, a, found := strings.Cut(rest, ":")
	if !found {
		return 0, 0, false
	}
	questionID, err := strconv.ParseInt(q, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	answerIdx, err = strconv.Atoi(a)
	if err != nil {
		return 0, 0, false
	}
	return questionID, answerIdx, true
}

// userID maps a Telegram account onto a store user, creating it on first use
func (b *Bot) userID(ctx context.Context, from *tgbotapi.User) (int64, error) {
	b.mu.Lock()
	id, ok := b.users[from.ID]
	b.mu.Unlock()
	if ok {
		return id, nil
	}

	u, err := b.store.EnsureUser(ctx, "tg:"+strconv.FormatInt(from.ID, 10))
	if err != nil {
		slog.Error("Failed to ensure user", slog.Int64("telegram_id", from.ID), slog.Any("error", err))
		return 0, err
	}

	b.mu.Lock()
	b.users[from.ID] = u.ID
	b.mu.Unlock()
	return u.ID, nil
}

// sendNextQuestion sends the next practice question with an answer keyboard
func (b *Bot) sendNextQuestion(ctx context.Context, chatID, telegramID int64, category string) {
	userID, err := b.userID(ctx, &tgbotapi.User{ID: telegramID})
	if err != nil {
		b.sendMessage(chatID, "Sorry, something went wrong. Please try again later.")
		return
	}

	question, err := b.store.NextQuestion(ctx, userID, category)
	if err != nil {
		slog.Warn("No question available",
			slog.Int64("user_id", userID),
			slog.String("category", category),
			slog.Any("error", err))
		b.sendMessage(chatID, "No questions available. Please try again later.")
		return
	}

	b.mu.Lock()
	b.userQuestions[telegramID] = question.ID
	b.mu.Unlock()

	b.sendMessage(chatID, fmt.Sprintf("Question #%d [%s]: %s", question.ID, question.Category, question.Question))

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for i, option := range question.Options {
		data := fmt.Sprintf("%s%d:%d", callbackPrefix, question.ID, i)
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(option, data)))
	}

	msg := tgbotapi.NewMessage(chatID, "Please select your answer:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("Failed to send answers keyboard", slog.Any("error", err))
	}
}

// sendMessage sends text, trying MarkdownV2 first when the text looks like
// markdown and falling back to plain text
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if looksLikeMarkdown(text) {
		msg.Text = escapeMarkdown(text)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}

	if _, err := b.api.Send(msg); err != nil {
		slog.Warn("Failed to send message", slog.Any("error", err))
		if msg.ParseMode == tgbotapi.ModeMarkdownV2 {
			if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
				slog.Error("Plain text fallback also failed", slog.Any("error", err))
			}
		}
	}
}

func looksLikeMarkdown(text string) bool {
	return strings.Contains(text, "```") ||
		strings.Contains(text, "**") ||
		strings.Contains(text, "##") ||
		strings.Contains(text, "`")
}

// escapeMarkdown escapes special characters for Telegram's MarkdownV2 format
func escapeMarkdown(text string) string {
	// Characters that need escaping in MarkdownV2: _*[]()~`>#+-=|{}.!
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}

	// Leave code blocks alone
	parts := strings.Split(text, "```")
	for i := 0; i < len(parts); i += 2 {
		for _, char := range specialChars {
			parts[i] = strings.ReplaceAll(parts[i], char, "\\"+char)
		}
	}
	return strings.Join(parts, "```")
}

func (b *Bot) sendCallbackResponse(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		slog.Warn("Failed to answer callback", slog.Any("error", err))
	}
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
