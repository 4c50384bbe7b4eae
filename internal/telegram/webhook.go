package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookPath is where Telegram pushes updates in webhook mode.
const WebhookPath = "/webhook"

// WebhookURL joins the public base URL and WebhookPath.
func WebhookURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + WebhookPath
}

// SetWebhook replaces any registered webhook with <baseURL>/webhook.
func SetWebhook(api API, baseURL string, dropPending bool) error {
	if err := DeleteWebhook(api, dropPending); err != nil {
		return err
	}
	wh, err := tgbotapi.NewWebhook(WebhookURL(baseURL))
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook unregisters the webhook so getUpdates can be used. With
// dropPending, updates queued on Telegram's side are discarded.
func DeleteWebhook(api API, dropPending bool) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}
