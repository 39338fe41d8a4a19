// Package scheduler 运行周期性扫描任务：
// 离线设备标记与长期不通批处理触发、不在宅异常设备的恢复检查触发、
// 过期统计数据清理。
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gateway-monitor/internal/config"
	"gateway-monitor/internal/models"
	rediscommon "gateway-monitor/internal/redis"
	"gateway-monitor/internal/repository"
)

// Scheduler 周期任务调度器
type Scheduler struct {
	config     *config.Config
	redis      *goredis.Client
	devices    *repository.DeviceRepository
	statistics *repository.StatisticRepository
	logger     *zap.Logger
}

// New 创建调度器
func New(
	cfg *config.Config,
	client *goredis.Client,
	devices *repository.DeviceRepository,
	statistics *repository.StatisticRepository,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:     cfg,
		redis:      client,
		devices:    devices,
		statistics: statistics,
		logger:     logger,
	}
}

// Start 启动调度循环，阻塞直到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) error {
	offline := time.NewTicker(s.config.Scheduler.OfflineScanInterval)
	absence := time.NewTicker(s.config.Scheduler.AbsenceScanInterval)
	prune := time.NewTicker(s.config.Scheduler.PruneInterval)
	defer offline.Stop()
	defer absence.Stop()
	defer prune.Stop()

	s.logger.Info("scheduler started",
		zap.Duration("offline_scan_interval", s.config.Scheduler.OfflineScanInterval),
		zap.Duration("absence_scan_interval", s.config.Scheduler.AbsenceScanInterval),
		zap.Duration("prune_interval", s.config.Scheduler.PruneInterval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-offline.C:
			if err := s.ScanOffline(ctx); err != nil {
				s.logger.Error("offline scan failed", zap.Error(err))
			}
		case <-absence.C:
			if err := s.ScanAbsentAbnormal(ctx); err != nil {
				s.logger.Error("absence scan failed", zap.Error(err))
			}
		case <-prune.C:
			if err := s.PruneStatistics(ctx); err != nil {
				s.logger.Error("statistics prune failed", zap.Error(err))
			}
		}
	}
}

// ScanOffline 找出超时未上报的设备，标记离线并触发长期不通批处理
func (s *Scheduler) ScanOffline(ctx context.Context) error {
	devices, err := s.devices.ListDisconnected(ctx, s.config.Scheduler.OfflineThreshold)
	if err != nil {
		return fmt.Errorf("failed to list disconnected devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	imeis := make([]string, 0, len(devices))
	var dirty []*models.Device
	for _, d := range devices {
		imeis = append(imeis, d.IMEI)
		d.SetDeviceStatus(models.DeviceOffline)
		if d.Modified() {
			dirty = append(dirty, d)
		}
	}
	if len(dirty) > 0 {
		if err := s.devices.BulkUpdate(ctx, dirty); err != nil {
			return fmt.Errorf("failed to mark devices offline: %w", err)
		}
	}

	attributes := map[string]string{
		models.DeviceStatusAttribute: strconv.Itoa(int(models.DeviceOffline)),
	}
	batch := models.MonitorBatch{BatchID: uuid.NewString(), IMEIs: imeis}
	if _, err := rediscommon.PublishJSON(ctx, s.redis, s.config.Monitor.DisconnectStream, batch, attributes); err != nil {
		return fmt.Errorf("failed to publish disconnect batch: %w", err)
	}
	s.logger.Info("offline devices scanned",
		zap.Int("devices", len(devices)),
		zap.Int("marked", len(dirty)))
	return nil
}

// ScanAbsentAbnormal 找出疑似入侵状态为异常的不在宅设备，触发恢复检查
func (s *Scheduler) ScanAbsentAbnormal(ctx context.Context) error {
	devices, err := s.devices.ListAbsentAbnormal(ctx)
	if err != nil {
		return fmt.Errorf("failed to list absent devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	imeis := make([]string, 0, len(devices))
	for _, d := range devices {
		imeis = append(imeis, d.IMEI)
	}
	batch := models.MonitorBatch{BatchID: uuid.NewString(), IMEIs: imeis}
	if _, err := rediscommon.PublishJSON(ctx, s.redis, s.config.Monitor.IntruderStream, batch, nil); err != nil {
		return fmt.Errorf("failed to publish intruder batch: %w", err)
	}
	s.logger.Info("absent abnormal devices scanned", zap.Int("devices", len(devices)))
	return nil
}

// PruneStatistics 删除超过保留期的统计数据
func (s *Scheduler) PruneStatistics(ctx context.Context) error {
	deleted, err := s.statistics.DeleteExpired(ctx, s.config.Scheduler.RetentionDays)
	if err != nil {
		return fmt.Errorf("failed to prune statistics: %w", err)
	}
	s.logger.Info("expired statistics pruned",
		zap.Int64("deleted", deleted),
		zap.Int("retention_days", s.config.Scheduler.RetentionDays))
	return nil
}
