package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"clubreg/entity"
	"clubreg/internal/config"
	"clubreg/lib/clock"
	"clubreg/lib/sl"
)

// Telegram is a send-only notifier posting membership events to the
// configured admin chat.
type Telegram struct {
	api    *tgbotapi.Bot
	chatId int64
	log    *slog.Logger
}

func New(conf *config.Config, log *slog.Logger) (*Telegram, error) {
	if !conf.Telegram.Enabled || conf.Telegram.Token == "" {
		return nil, nil
	}
	if conf.Telegram.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is not configured")
	}
	api, err := tgbotapi.NewBot(conf.Telegram.Token, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return &Telegram{
		api:    api,
		chatId: conf.Telegram.ChatID,
		log:    log.With(sl.Module("notify.telegram")),
	}, nil
}

func (t *Telegram) ApplicationReceived(member *entity.Member) {
	t.send(fmt.Sprintf("New application: %s (%s), age %d, id %s, awaiting review",
		member.Name, member.Phone, member.Age, member.MembershipID))
}

func (t *Telegram) PaymentReceived(member *entity.Member) {
	t.send(fmt.Sprintf("Membership fee received: %s (%s)",
		member.Name, member.MembershipID))
}

func (t *Telegram) Approved(member *entity.Member) {
	validTill := ""
	if member.ExpiryDate != nil {
		validTill = ", valid till " + clock.CardDate(*member.ExpiryDate)
	}
	t.send(fmt.Sprintf("Approved: %s (%s)%s",
		member.Name, member.MembershipID, validTill))
}

func (t *Telegram) Rejected(member *entity.Member) {
	t.send(fmt.Sprintf("Rejected: %s (%s)", member.Name, member.Phone))
}

func (t *Telegram) send(text string) {
	if text == "" {
		return
	}
	_, err := t.api.SendMessage(t.chatId, text, &tgbotapi.SendMessageOpts{})
	if err != nil {
		t.log.With(slog.Int64("chat_id", t.chatId)).Warn("sending message", sl.Err(err))
	}
}
