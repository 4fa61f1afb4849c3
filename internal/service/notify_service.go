package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/config"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// NotifyService pushes messenger notifications about ledger events. All
// sends are fire-and-forget: a delivery failure is logged and never blocks
// or rolls back the work that triggered it.
type NotifyService struct {
	enabled bool
	token   string
	http    *http.Client
}

// NewNotifyService creates a notify service from the telegram config.
func NewNotifyService(cfg config.TelegramConfig) *NotifyService {
	return &NotifyService{
		enabled: cfg.Enabled && cfg.BotToken != "",
		token:   cfg.BotToken,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Send delivers text to the user in the background.
func (s *NotifyService) Send(userID int64, text string) {
	if !s.enabled {
		return
	}
	go s.send(userID, text)
}

func (s *NotifyService) send(userID int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.token)
	form := url.Values{
		"chat_id": {strconv.FormatInt(userID, 10)},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		logger.Warn("build notify request failed", zap.Error(err))
		return
	}
	req.URL.RawQuery = form.Encode()

	resp, err := s.http.Do(req)
	if err != nil {
		logger.Warn("notify send failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("notify send rejected",
			zap.Int64("user_id", userID),
			zap.Int("status", resp.StatusCode))
	}
}
