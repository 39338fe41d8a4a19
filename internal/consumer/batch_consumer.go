// Package consumer 消费五条监控流并驱动评估器。
// 每条消息是一个设备批次，处理失败的消息不做 Ack，
// 留在 pending 列表等待重投，单条失败不影响同批其他消息。
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"gateway-monitor/internal/config"
	"gateway-monitor/internal/evaluator"
	"gateway-monitor/internal/models"
	rediscommon "gateway-monitor/internal/redis"
	"gateway-monitor/internal/repository"
)

// BatchConsumer 监控批处理消费者
type BatchConsumer struct {
	config    *config.Config
	redis     *goredis.Client
	devices   *repository.DeviceRepository
	evaluator *evaluator.Evaluator
	logger    *zap.Logger
}

// NewBatchConsumer 创建监控批处理消费者
func NewBatchConsumer(
	cfg *config.Config,
	client *goredis.Client,
	devices *repository.DeviceRepository,
	eval *evaluator.Evaluator,
	logger *zap.Logger,
) *BatchConsumer {
	return &BatchConsumer{
		config:    cfg,
		redis:     client,
		devices:   devices,
		evaluator: eval,
		logger:    logger,
	}
}

// Start 创建消费者组并进入消费循环，阻塞直到 ctx 取消
func (c *BatchConsumer) Start(ctx context.Context) error {
	for _, stream := range c.config.MonitorStreams() {
		if err := rediscommon.CreateConsumerGroup(ctx, c.redis, stream, c.config.Monitor.Group); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
		}
	}
	c.logger.Info("batch consumer started",
		zap.String("group", c.config.Monitor.Group),
		zap.String("consumer", c.config.Monitor.Consumer))

	backoff := time.Second
	maxBackoff := 30 * time.Second
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		allFailed := true
		for _, stream := range c.config.MonitorStreams() {
			if err := c.consumeStream(ctx, stream); err != nil {
				c.logger.Error("failed to consume stream",
					zap.String("stream", stream),
					zap.Error(err))
			} else {
				allFailed = false
			}
		}
		if !allFailed {
			backoff = time.Second
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// consumeStream 读取并处理单条流的一批消息
func (c *BatchConsumer) consumeStream(ctx context.Context, stream string) error {
	messages, err := rediscommon.ReadGroup(
		ctx,
		c.redis,
		stream,
		c.config.Monitor.Group,
		c.config.Monitor.Consumer,
		int64(c.config.Monitor.BatchCount),
		c.config.Monitor.BlockTimeout,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", stream, err)
	}

	var failedIDs []string
	for _, msg := range messages {
		if err := c.processMessage(ctx, stream, &msg); err != nil {
			c.logger.Error("failed to process message",
				zap.String("stream", stream),
				zap.String("message_id", msg.ID),
				zap.Error(err))
			failedIDs = append(failedIDs, msg.ID)
			continue
		}
		if err := rediscommon.Ack(ctx, c.redis, stream, c.config.Monitor.Group, msg.ID); err != nil {
			c.logger.Error("failed to ack message",
				zap.String("stream", stream),
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	if len(failedIDs) > 0 {
		c.logger.Warn("batch finished with failures",
			zap.String("stream", stream),
			zap.Strings("failed_ids", failedIDs))
	}
	return nil
}

// processMessage 解析设备批次消息，读库取最新状态后分派到对应的评估管道
func (c *BatchConsumer) processMessage(ctx context.Context, stream string, msg *rediscommon.StreamMessage) error {
	var batch models.MonitorBatch
	if err := json.Unmarshal([]byte(msg.StringValue("data")), &batch); err != nil {
		return fmt.Errorf("failed to parse batch payload: %w", err)
	}
	if len(batch.IMEIs) == 0 {
		return nil
	}
	c.logger.Debug("monitor batch received",
		zap.String("stream", stream),
		zap.String("batch_id", batch.BatchID),
		zap.Int("devices", len(batch.IMEIs)))

	devices, err := c.devices.ListByIMEI(ctx, batch.IMEIs)
	if err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}
	if len(devices) == 0 {
		c.logger.Debug("no devices found for batch", zap.String("message_id", msg.ID))
		return nil
	}

	switch stream {
	case c.config.Monitor.EnvironmentStream:
		return c.evaluator.ProcessEnvironment(ctx, devices)
	case c.config.Monitor.InfluenzaStream:
		return c.evaluator.ProcessInfluenza(ctx, devices)
	case c.config.Monitor.AbsenceStream:
		return c.evaluator.ProcessAbsence(ctx, devices)
	case c.config.Monitor.DisconnectStream:
		online := msg.StringValue(models.DeviceStatusAttribute) == strconv.Itoa(int(models.DeviceOnline))
		return c.evaluator.ProcessDisconnect(ctx, devices, online)
	case c.config.Monitor.IntruderStream:
		return c.evaluator.ProcessIntruder(ctx, devices)
	default:
		return fmt.Errorf("unknown stream: %s", stream)
	}
}
