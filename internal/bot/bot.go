// Package bot is the Telegram transport: it long-polls for updates and
// maps each inbound message to exactly one intake transition or command.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"racha/internal/intake"
	"racha/internal/log"
	"racha/internal/report"
	"racha/internal/services"
)

const (
	msgWelcome = "👋 Welcome to the shared expenses bot!\n" +
		"📌 Available commands:\n" +
		"/add - Record a new expense\n" +
		"/settle - Close the month and split the bill\n" +
		"/clearall - Delete every recorded expense\n" +
		"/purge <days> - Delete expenses older than N days\n" +
		"/help - Show this message\n\n" +
		"❓ Tip: use /cancel at any time to start over!"
	msgUnknown     = "I wasn't expecting that. Use /add to record an expense or /help for the command list."
	msgPurgeUsage  = "Usage: /purge <days> — days must be a positive integer, e.g. /purge 90"
	msgReportFail  = "⚠️ Failed to generate the report. Try again later."
	msgCleanupFail = "⚠️ Cleanup failed. Try again later."
)

// Bot routes updates between the intake state machine and the standalone
// commands. One update handler runs at a time, so per-participant
// sessions never race.
type Bot struct {
	api         *tgbotapi.BotAPI
	machine     *intake.Machine
	engine      *report.Engine
	maintenance *services.MaintenanceService
	logger      *log.Logger
}

func New(api *tgbotapi.BotAPI, machine *intake.Machine, engine *report.Engine, maintenance *services.MaintenanceService, logger *log.Logger) *Bot {
	return &Bot{
		api:         api,
		machine:     machine,
		engine:      engine,
		maintenance: maintenance,
		logger:      logger.WithComponent(log.ComponentBot),
	}
}

// Run registers the command list and consumes updates until the context
// is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	commands := []tgbotapi.BotCommand{
		{Command: "add", Description: "Record a new expense"},
		{Command: "settle", Description: "Close the month and split the bill"},
		{Command: "cancel", Description: "Cancel the expense in progress"},
		{Command: "clearall", Description: "Delete every recorded expense"},
		{Command: "purge", Description: "Delete expenses older than N days"},
		{Command: "help", Description: "Show available commands"},
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		b.logger.Warn("Failed to register command list", log.FieldError, err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			for _, reply := range b.handleMessage(ctx, update.Message) {
				if _, err := b.api.Send(reply); err != nil {
					b.logger.ErrorContext(ctx, "Failed to send reply",
						log.FieldChat, update.Message.Chat.ID,
						log.FieldError, err)
				}
			}
		}
	}
}

// handleMessage turns one inbound message into outbound replies. Errors
// from the core are logged here; the participant always gets a reply.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) []tgbotapi.Chattable {
	chatID := msg.Chat.ID
	participantID := msg.From.ID

	if msg.IsCommand() {
		return b.handleCommand(ctx, chatID, participantID, msg.Command(), msg.CommandArguments())
	}

	reply, err := b.machine.Handle(ctx, participantID, msg.Text)
	if errors.Is(err, intake.ErrNoSession) {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, msgUnknown)}
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "Intake step failed",
			log.FieldParticipant, participantID,
			log.FieldError, err)
	}
	return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, reply)}
}

func (b *Bot) handleCommand(ctx context.Context, chatID, participantID int64, command, args string) []tgbotapi.Chattable {
	b.logger.DebugContext(ctx, "Command received",
		log.FieldCommand, command,
		log.FieldParticipant, participantID)

	switch command {
	case "start", "help":
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, msgWelcome)}

	case "add":
		reply, err := b.machine.Start(ctx, participantID)
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to start intake",
				log.FieldParticipant, participantID,
				log.FieldError, err)
		}
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, reply)}

	case "cancel":
		reply, err := b.machine.Cancel(ctx, participantID)
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to cancel intake",
				log.FieldParticipant, participantID,
				log.FieldError, err)
		}
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, reply)}

	case "settle":
		return b.handleSettle(ctx, chatID)

	case "clearall":
		deleted, err := b.maintenance.ClearAll(ctx)
		if err != nil {
			b.logger.ErrorContext(ctx, "Clear all failed", log.FieldError, err)
			return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, msgCleanupFail)}
		}
		text := "🧹 Removed " + strconv.FormatInt(deleted, 10) + " expenses. Clean slate!"
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, text)}

	case "purge":
		return b.handlePurge(ctx, chatID, args)

	default:
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, msgUnknown)}
	}
}

func (b *Bot) handleSettle(ctx context.Context, chatID int64) []tgbotapi.Chattable {
	res, err := b.engine.Settle(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "Settlement failed", log.FieldError, err)
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, msgReportFail)}
	}
	if res.Empty {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, res.Text)}
	}

	// Chart first, then the text report, like a statement with its graph.
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "chart.png", Bytes: res.Chart})
	return []tgbotapi.Chattable{photo, tgbotapi.NewMessage(chatID, res.Text)}
}

func (b *Bot) handlePurge(ctx context.Context, chatID int64, args string) []tgbotapi.Chattable {
	days, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || days <= 0 {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, msgPurgeUsage)}
	}

	cutoff, deleted, err := b.maintenance.PurgeOlderThan(ctx, days)
	if err != nil {
		b.logger.ErrorContext(ctx, "Purge failed", log.FieldError, err)
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, msgCleanupFail)}
	}
	text := "🧹 Removed " + strconv.FormatInt(deleted, 10) + " expenses older than " + cutoff + "."
	return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, text)}
}
