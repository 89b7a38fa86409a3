package telegram

import (
	"NaturasoftSync/internal/config"
	"NaturasoftSync/pkg/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/pkg/errors"
)

// SendMessage pushes an operational notification to the configured chat.
// A missing bot configuration disables notifications silently.
func SendMessage(text string) error {

	logger := logging.GetLogger()
	cfg := config.GetConfig()

	if cfg.TELEGRAM.BotToken == "" || cfg.TELEGRAM.ChatID == 0 {
		logger.Debug("SendMessage: telegram is not configured, skip")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TELEGRAM.BotToken)
	if err != nil {
		return errors.Wrap(err, "failed tgbotapi.NewBotAPI")
	}
	bot.Debug = cfg.TELEGRAM.Debug == 1

	msg := tgbotapi.NewMessage(cfg.TELEGRAM.ChatID, text)
	_, err = bot.Send(msg)
	if err != nil {
		return errors.Wrap(err, "failed bot.Send")
	}

	return nil
}
