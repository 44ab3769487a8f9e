package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/local/chatrelay/internal/auth"
	"github.com/local/chatrelay/internal/convo"
	"github.com/local/chatrelay/internal/openai"
	"github.com/local/chatrelay/internal/telegram"
)

// Sender delivers outbound messages to the chat platform.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// UsageClient queries the completion provider's credit consumption.
type UsageClient interface {
	Usage(ctx context.Context) (openai.Usage, error)
}

// Reply texts.
const (
	replyGreeting     = "Hi! Send me a message and I will reply. Commands: /clear, /history, /credits, /ping."
	replyPong         = "pong"
	replyCleared      = "History cleared."
	replyHistoryEmpty = "History is empty."
	replyNoUser       = "No user found."
	replyDenied       = "You are not authorized to use this bot."
	replyError        = "An error occurred, please try again later."
	replyUnknown      = "Unknown command."
)

type incoming struct {
	userID int64
	chatID int64
	text   string
}

type handlerFunc func(ctx context.Context, in incoming) error

// Bot routes authorized updates to command handlers or to the conversation
// orchestrator. Turns for the same user run one at a time; different users
// are independent.
type Bot struct {
	allow    auth.Allowlist
	store    convo.Store
	orch     *convo.Orchestrator
	sender   Sender
	usage    UsageClient
	logger   *slog.Logger
	locks    sync.Map // user id -> *sync.Mutex
	handlers map[string]handlerFunc
}

// New builds a Bot with its command dispatch table.
func New(allow auth.Allowlist, store convo.Store, orch *convo.Orchestrator, sender Sender, usage UsageClient, logger *slog.Logger) *Bot {
	b := &Bot{
		allow:  allow,
		store:  store,
		orch:   orch,
		sender: sender,
		usage:  usage,
		logger: logger,
	}
	b.handlers = map[string]handlerFunc{
		"start":   b.handleStart,
		"clear":   b.handleClear,
		"history": b.handleHistory,
		"credits": b.handleCredits,
		"ping":    b.handlePing,
	}
	return b
}

// Commands returns the command menu entries registered with the platform.
func Commands() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "start", Description: "Show the greeting"},
		{Command: "clear", Description: "Reset conversation history"},
		{Command: "history", Description: "Show conversation history"},
		{Command: "credits", Description: "Show API credit usage"},
		{Command: "ping", Description: "Check the bot is alive"},
	}
}

// HandleUpdate processes one inbound update end to end. Collaborator
// failures never escape: every failing path ends in a logged error and a
// generic user-facing reply.
func (b *Bot) HandleUpdate(ctx context.Context, upd telegram.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}

	if msg.From == nil {
		b.send(msg.Chat.ID, replyNoUser)
		return
	}
	if !b.allow.IsOwner(msg.From.Username) {
		b.logger.Warn("unauthorized update rejected", "update_id", upd.UpdateID, "username", msg.From.Username)
		b.send(msg.Chat.ID, replyDenied)
		return
	}

	in := incoming{userID: msg.From.ID, chatID: msg.Chat.ID, text: msg.Text}

	mu := b.userLock(in.userID)
	mu.Lock()
	defer mu.Unlock()

	if name, ok := commandName(in.text); ok {
		handler, known := b.handlers[name]
		if !known {
			b.send(in.chatID, replyUnknown)
			return
		}
		if err := handler(ctx, in); err != nil {
			b.logger.Error("command failed", "command", name, "user_id", in.userID, "error", err)
			b.send(in.chatID, replyError)
		}
		return
	}

	reply, err := b.orch.Turn(ctx, in.userID, in.text)
	if err != nil {
		b.logger.Error("turn failed", "user_id", in.userID, "error", err)
		b.send(in.chatID, replyError)
		return
	}
	b.send(in.chatID, reply)
}

func (b *Bot) handleStart(ctx context.Context, in incoming) error {
	b.send(in.chatID, replyGreeting)
	return nil
}

func (b *Bot) handleClear(ctx context.Context, in incoming) error {
	if err := b.store.Clear(ctx, in.userID); err != nil {
		return err
	}
	b.send(in.chatID, replyCleared)
	return nil
}

func (b *Bot) handleHistory(ctx context.Context, in incoming) error {
	messages, err := b.store.Get(ctx, in.userID)
	if err != nil {
		return err
	}
	transcript := convo.FormatHistory(convo.WithoutRole(messages, convo.RoleSystem))
	if transcript == "" {
		b.send(in.chatID, replyHistoryEmpty)
		return nil
	}
	b.send(in.chatID, transcript)
	return nil
}

func (b *Bot) handleCredits(ctx context.Context, in incoming) error {
	usage, err := b.usage.Usage(ctx)
	if err != nil {
		return err
	}
	b.send(in.chatID, fmt.Sprintf("Used: $%.2f\nAvailable: $%.2f", usage.Used, usage.Available))
	return nil
}

func (b *Bot) handlePing(ctx context.Context, in incoming) error {
	b.send(in.chatID, replyPong)
	return nil
}

// send delivers a reply, logging and swallowing platform send failures.
func (b *Bot) send(chatID int64, text string) {
	if err := b.sender.SendMessage(chatID, text); err != nil {
		b.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) userLock(userID int64) *sync.Mutex {
	mu, _ := b.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// commandName extracts the command from "/name@botname args" style text.
func commandName(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text)[0]
	name = strings.TrimPrefix(name, "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return name, true
}

// SenderNotifier delivers orchestrator advisories through the platform
// sender. Private chats have chat id equal to user id, which is the only
// place advisories are sent.
type SenderNotifier struct {
	Sender Sender
}

// Notify implements convo.Notifier.
func (n SenderNotifier) Notify(ctx context.Context, userID int64, text string) error {
	return n.Sender.SendMessage(userID, text)
}
