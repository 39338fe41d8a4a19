package notifier

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "gateway-monitor/internal/redis"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/repository"
	"gateway-monitor/internal/templates"
)

// 邮件时间戳按日本时区展示
var jst = time.FixedZone("JST", 9*60*60)

// pushPayload 推送消息体，由推送网关消费
type pushPayload struct {
	MonitorID     int64  `json:"device_monitor_id"`
	IMEI          string `json:"imei"`
	AccountID     int64  `json:"account_id"`
	MonitorCase   int    `json:"monitor_case"`
	MonitorStatus int    `json:"monitor_status"`
	Message       string `json:"message"`
	MessageDetail string `json:"message_detail"`
}

// Dispatcher 通知分发器。
// 推送写入 Redis Stream 由推送网关消费，邮件经 SMTP 直接发出。
// 邮件方向受账户报警配置再过滤一层，推送不受该配置影响。
type Dispatcher struct {
	redis      *goredis.Client
	pushStream string
	mailer     EmailSender
	devices    *repository.DeviceRepository
	users      *repository.NotifyUserRepository
	logger     *zap.Logger
}

// NewDispatcher 创建通知分发器
func NewDispatcher(
	client *goredis.Client,
	pushStream string,
	mailer EmailSender,
	devices *repository.DeviceRepository,
	users *repository.NotifyUserRepository,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		redis:      client,
		pushStream: pushStream,
		mailer:     mailer,
		devices:    devices,
		users:      users,
		logger:     logger,
	}
}

// Dispatch 分发一批监控通知。调用前监控记录必须已落库（邮件引用通知 ID）。
func (n *Dispatcher) Dispatch(ctx context.Context, items []Outgoing) error {
	if err := n.dispatchPush(ctx, items); err != nil {
		return err
	}
	return n.dispatchEmail(ctx, items)
}

func (n *Dispatcher) dispatchPush(ctx context.Context, items []Outgoing) error {
	for _, it := range items {
		if !it.Monitor.PushMessage {
			continue
		}
		payload := pushPayload{
			MonitorID:     it.Monitor.ID,
			IMEI:          it.Device.IMEI,
			AccountID:     *it.Device.AccountID,
			MonitorCase:   int(it.Monitor.MonitorCase),
			MonitorStatus: int(it.Monitor.MonitorStatus),
			Message:       it.Monitor.Message,
			MessageDetail: it.Monitor.MessageDetail,
		}
		if _, err := rediscommon.PublishJSON(ctx, n.redis, n.pushStream, payload, nil); err != nil {
			return fmt.Errorf("failed to publish push message: %w", err)
		}
		n.logger.Debug("push message published",
			zap.String("imei", it.Device.IMEI),
			zap.Int64("monitor_id", it.Monitor.ID))
	}
	return nil
}

func (n *Dispatcher) dispatchEmail(ctx context.Context, items []Outgoing) error {
	var pending []Outgoing
	for _, it := range items {
		if it.Monitor.SendEmail {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	// 账户报警配置在评估阶段不一定已挂载，这里按需补齐
	var unloaded []*models.Device
	for _, it := range pending {
		if it.Device.AlertSetting == nil {
			unloaded = append(unloaded, it.Device)
		}
	}
	if len(unloaded) > 0 {
		if err := n.devices.LoadAlertSettings(ctx, unloaded); err != nil {
			return fmt.Errorf("failed to load alert settings: %w", err)
		}
	}

	accountIDs := make([]int64, 0, len(pending))
	seen := map[int64]bool{}
	for _, it := range pending {
		id := *it.Device.AccountID
		if !seen[id] {
			seen[id] = true
			accountIDs = append(accountIDs, id)
		}
	}
	users, err := n.users.ListByAccounts(ctx, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to load notify users: %w", err)
	}

	for _, it := range pending {
		d, m := it.Device, it.Monitor
		if d.AlertSetting == nil || !d.AlertSetting.IsEmailAlertEnabled(m.MonitorCase) {
			n.logger.Debug("email alert disabled",
				zap.String("imei", d.IMEI),
				zap.String("monitor_case", m.MonitorCase.String()))
			continue
		}
		recipients := users[*d.AccountID]
		if len(recipients) == 0 {
			n.logger.Debug("no notify users", zap.String("imei", d.IMEI))
			continue
		}

		subject := templates.Subject(int(m.MonitorCase), int(m.MonitorStatus))
		occurred := m.OccurredAt.In(jst).Format("2006-01-02 15:04:05")
		tmpl := templates.AbnormalEmailTemplate
		if m.MonitorStatus == models.StatusNormal {
			tmpl = templates.RecoverEmailTemplate
		}
		for _, u := range recipients {
			body := fmt.Sprintf(tmpl, u.Name, m.ID, d.DeviceName, d.IMEI, occurred, m.MessageDetail)
			if err := n.mailer.Send([]string{u.Email}, subject, body); err != nil {
				return fmt.Errorf("failed to send email for %s: %w", d.IMEI, err)
			}
		}
		n.logger.Info("email notification sent",
			zap.String("imei", d.IMEI),
			zap.Int64("monitor_id", m.ID),
			zap.Int("recipients", len(recipients)))
	}
	return nil
}
