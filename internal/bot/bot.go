package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"like-bot/internal/config"
	"like-bot/internal/model"
	"like-bot/internal/repository"
	"like-bot/internal/service"
)

const (
	msgUsageLike     = "❌ Wrong format. Use: /like <region> <uid>"
	msgUsageAddVIP   = "❌ Use: /addvip <user_id> <days>"
	msgNotAuthorized = "🚫 You are not authorized to use this command."
	btnVerifyAndSend = "✅ VERIFY & SEND LIKE ✅"
	btnHowToVerify   = "❓ How to Verify ❓"
)

// sender is the outbound half of the Telegram API used by the handlers.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot aggregates the Telegram API with the like-bot services.
type Bot struct {
	api          *tgbotapi.BotAPI
	sender       sender
	profiles     *repository.ProfileRepository
	access       *service.AccessService
	likes        *service.LikeService
	verification *service.VerificationService
	config       *config.Config
}

func New(token string, profiles *repository.ProfileRepository, access *service.AccessService, likes *service.LikeService, verification *service.VerificationService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:          api,
		sender:       api,
		profiles:     profiles,
		access:       access,
		likes:        likes,
		verification: verification,
		config:       cfg,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	return b.consumeUpdates(ctx, updates)
}

func (b *Bot) consumeUpdates(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		if err := b.handleCommand(ctx, update.Message); err != nil {
			log.Printf("handle command: %v", err)
		}
	}

	return ctx.Err()
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "check":
		return b.handleCheck(ctx, msg)
	case "like":
		return b.handleLike(ctx, msg)
	case "addvip":
		return b.handleAddVIP(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureProfile(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "friend"
	}

	text := fmt.Sprintf(
		"👋 Hello, %s!\n*I send likes to your game account.*\n\nCommands:\n"+
			"• /like <region> <uid> — request a like\n"+
			"• /check — your remaining requests\n"+
			"• /help — hints",
		name,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ *Hints*\n" +
		"• /like <region> <uid> — request a like for the account\n" +
		"• /check — show how many requests you have left\n" +
		"• Regular users verify via a link once per request; VIPs and admins skip verification"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCheck(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureProfile(ctx, msg.From); err != nil {
		return err
	}

	userID := msg.From.ID
	if b.access.IsAdmin(userID) {
		return b.sendText(msg.Chat.ID, "👑 *Admin Status*\n\nYou have unlimited requests and no verification required!")
	}

	isVIP, err := b.access.IsVIP(ctx, userID)
	if err != nil {
		return err
	}
	if isVIP {
		return b.sendText(msg.Chat.ID, "🌟 *VIP Status*\n\nYou have unlimited requests and no verification required!")
	}

	remaining, err := b.access.Remaining(ctx, userID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(
		"📊 *Your Request Status*\n\n"+
			"📅 Daily requests left: %d/%d\n"+
			"⏳ Requests reset every %d hours",
		remaining, b.config.DailyLimit, int(b.config.ResetWindow.Hours()),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLike(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureProfile(ctx, msg.From); err != nil {
		return err
	}

	region, accountID, ok := parseLikeArgs(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, msgUsageLike)
	}

	userID := msg.From.ID
	isVIP, err := b.access.IsVIP(ctx, userID)
	if err != nil {
		return err
	}

	// Admins and VIPs are served synchronously, no verification.
	if b.access.IsAdmin(userID) || isVIP {
		result := b.likes.Invoke(ctx, userID, region, accountID)
		return b.sendText(msg.Chat.ID, result.Message())
	}

	remaining, err := b.access.Remaining(ctx, userID)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return b.sendText(msg.Chat.ID, service.MsgLimitExceeded)
	}

	_, link, err := b.verification.CreateJob(ctx, userID, accountID, region, msg.Chat.ID, msg.MessageID)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "User"
	}

	text := fmt.Sprintf(
		"🔒 *Verification Required*\n\n"+
			"🤵 *Hello:* %s\n"+
			"🆔 *Uid:* `%s`\n"+
			"🌍 *Region:* %s\n\n"+
			"Verify to get 1 more request. This is free\n"+
			"%s\n"+
			"⚠️ Link expires in %d minutes",
		name, accountID, region, link, int(b.config.VerifyTTL.Minutes()),
	)
	if b.config.VIPAccessURL != "" {
		text += fmt.Sprintf("\n*Purchase Vip&No Verify* %s", b.config.VIPAccessURL)
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = b.verifyKeyboard(link)
	_, err = b.sender.Send(reply)
	return err
}

func (b *Bot) handleAddVIP(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.access.IsAdmin(msg.From.ID) {
		return b.sendText(msg.Chat.ID, msgNotAuthorized)
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, msgUsageAddVIP)
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, msgUsageAddVIP)
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return b.sendText(msg.Chat.ID, msgUsageAddVIP)
	}

	expiresAt, err := b.access.GrantVIP(ctx, targetID, days)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Failed to grant VIP: %s", err))
	}

	log.Printf("[info] vip granted to %d for %d days by %d", targetID, days, msg.From.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf(
		"✅ VIP access granted to user `%d` for %d days (until %s)",
		targetID, days, expiresAt.UTC().Format("2006-01-02 15:04:05"),
	))
}

// Reply sends text as a reply to an earlier message. It backs the job
// processor's delivery path.
func (b *Bot) Reply(chatID int64, messageID int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.sender.Send(msg)
	return err
}

func (b *Bot) ensureProfile(ctx context.Context, from *tgbotapi.User) (*model.Profile, error) {
	return b.profiles.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.sender.Send(msg)
	return err
}

func (b *Bot) verifyKeyboard(link string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(btnVerifyAndSend, link)),
	}
	if b.config.HowToVerifyURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(btnHowToVerify, b.config.HowToVerifyURL)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parseLikeArgs extracts (region, accountID) from the /like arguments.
// Region is lowercased; both arguments are required.
func parseLikeArgs(raw string) (string, string, bool) {
	args := strings.Fields(raw)
	if len(args) != 2 {
		return "", "", false
	}
	return strings.ToLower(args[0]), args[1], true
}
