package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/notify"
)

// Dispatcher fans one alert out to the configured channels.
type Dispatcher interface {
	Send(ctx context.Context, msg notify.Message)
}

// AlertService turns analysis outcomes into notifications. It runs after
// the computation that produced them, never inside it, so a slow or
// broken channel cannot affect results.
type AlertService struct {
	dispatcher Dispatcher
}

// NewAlertService creates an alert service. dispatcher may be nil, in
// which case every announce is a no-op.
func NewAlertService(dispatcher Dispatcher) *AlertService {
	return &AlertService{dispatcher: dispatcher}
}

// AnnounceTopSpender reports the day's biggest spender.
func (a *AlertService) AnnounceTopSpender(ctx context.Context, spender *models.TopSpender) {
	if a.dispatcher == nil || spender == nil {
		return
	}
	a.dispatcher.Send(ctx, notify.Message{
		Subject: "Highest Spending Wallet Detected",
		Body: fmt.Sprintf("Highest spender on %s for %s: %s spent %.2f %s",
			spender.Blockchain, spender.Day, spender.Wallet, spender.Amount,
			strings.ToUpper(string(spender.Blockchain))),
	})
}

// AnnounceRegistration reports a newly registered user.
func (a *AlertService) AnnounceRegistration(ctx context.Context, reg *models.Registration) {
	if a.dispatcher == nil || reg == nil {
		return
	}
	a.dispatcher.Send(ctx, notify.Message{
		Subject: "New User Registration",
		Body: fmt.Sprintf("New user registered\nUser: %s\nWallet: %s\nBlockchain: %s\nTime: %s",
			reg.Username, reg.WalletAddress, reg.Blockchain,
			reg.RegisteredAt.UTC().Format("2006-01-02 15:04:05")),
	})
}

// AnnounceRecommendation reports a generated trade signal.
func (a *AlertService) AnnounceRecommendation(ctx context.Context, advice *TradeAdvice) {
	if a.dispatcher == nil || advice == nil {
		return
	}
	a.dispatcher.Send(ctx, notify.Message{
		Subject: "Trade Recommendation",
		Body: fmt.Sprintf("Trade recommendation for %s on %s: %s (24h change: %.2f%%)",
			advice.WalletAddress, advice.Blockchain, advice.Recommendation, advice.Change24h),
	})
}

// AnnounceDemoWallet reports a wallet flagged by the spending classifier.
func (a *AlertService) AnnounceDemoWallet(ctx context.Context, profile *models.SpendingProfile) {
	if a.dispatcher == nil || profile == nil || !profile.IsDemo {
		return
	}
	a.dispatcher.Send(ctx, notify.Message{
		Subject: "Suspicious Spending Pattern Detected",
		Body: fmt.Sprintf("Wallet %s was flagged as demo-like (small trades: %d, large spends: %d)",
			profile.WalletAddress, profile.FrequentSmallTrades, profile.LargeSpends),
	})
}
