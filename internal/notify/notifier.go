// Package notify delivers human-readable alerts. Delivery is strictly
// fire-and-forget: a failed send is logged and swallowed, never surfaced to
// the trading path.
package notify

import (
	"fmt"
	"net/smtp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/logger"
)

type Notifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	telegram bool

	email config.EmailConfig

	logger *logger.Logger
}

func NewNotifier(cfg *config.Config, log *logger.Logger) *Notifier {
	n := &Notifier{
		email:  cfg.Email,
		logger: log,
	}

	if cfg.Telegram.Enabled {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Error("failed to create telegram bot", "error", err)
		} else {
			log.Info("telegram bot connected", "username", bot.Self.UserName)
			n.bot = bot
			n.chatID = cfg.Telegram.ChatID
			n.telegram = true
		}
	}

	return n
}

// Send delivers subject+body to every configured channel, best-effort.
func (n *Notifier) Send(subject, body string) {
	n.sendTelegram(body)
	n.sendEmail(subject, body)
}

func (n *Notifier) NotifyEntry(ticker string, price, notional float64, sentiment string, score float64, source, headline string) {
	body := fmt.Sprintf("✅ ENTRY %s\nPrice: %.2f\nNotional: $%.2f\nSentiment: %s (%.4g) via %s\nHeadline: %s",
		ticker, price, notional, sentiment, score, source, headline)
	n.Send("BnBot Entry "+ticker, body)
}

func (n *Notifier) NotifySkip(ticker, reason, sentiment string, score float64, source, headline string) {
	body := fmt.Sprintf("⛔ SKIP %s\nReason: %s\nSentiment: %s (%.4g) via %s\nHeadline: %s",
		ticker, reason, sentiment, score, source, headline)
	n.Send("BnBot Skip "+ticker, body)
}

func (n *Notifier) NotifyExit(ticker string, exitPrice float64, reason string) {
	body := fmt.Sprintf("🔻 EXIT %s\nExit Price: %.2f\nReason: %s", ticker, exitPrice, reason)
	n.Send("BnBot Exit "+ticker, body)
}

func (n *Notifier) sendTelegram(text string) {
	if !n.telegram {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
	}
}

func (n *Notifier) sendEmail(subject, body string) {
	e := n.email
	if !e.Enabled || e.Host == "" || e.Username == "" || e.Password == "" {
		return
	}
	to := e.To
	if to == "" {
		to = e.Username
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", e.Username, to, subject, body)
	addr := fmt.Sprintf("%s:%d", e.Host, e.Port)
	auth := smtp.PlainAuth("", e.Username, e.Password, e.Host)

	if err := smtp.SendMail(addr, auth, e.Username, []string{to}, []byte(msg)); err != nil {
		n.logger.Error("send email", "error", err)
	}
}
