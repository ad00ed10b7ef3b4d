package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/alerting"
	"github.com/iamasky/tx-observer/internal/detect"
	"github.com/iamasky/tx-observer/internal/market"
)

// SimulateAlert 构造一段跨越完整时间窗口的价差并驱动一次 检测→闸门→通知 流程。
func (a *App) SimulateAlert(ctx context.Context, fromPrice, toPrice decimal.Decimal) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("alerting.notification 未启用，无法模拟推送")
	}

	settings := a.detectorSettings()
	if err := settings.Validate(); err != nil {
		return err
	}
	now := time.Now()
	baselineTime := now.Add(-time.Duration(settings.TimeWindowMinutes) * time.Minute)

	series := market.Series{
		{Timestamp: baselineTime.UnixMilli(), Close: fromPrice},
		{Timestamp: now.UnixMilli(), Close: toPrice},
	}

	ev, ok := detect.Detect(series, toPrice, now.UnixMilli(), settings)
	if !ok {
		return errors.New("给定价差未达到告警阈值")
	}

	gate := alerting.NewGate(a.Config.Alerting.Cooldown)
	if !gate.Admit(ev) || !gate.ShouldNotify(ev, now) {
		return errors.New("告警被闸门拦截")
	}
	gate.MarkNotified(ev, now)

	a.Logger.Info().
		Str("type", string(ev.Type)).
		Int64("points", ev.Points).
		Msg("simulated alert")

	return notifier.Notify(ctx, alerting.Notification{Event: ev})
}
