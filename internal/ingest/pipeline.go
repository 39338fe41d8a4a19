// Package ingest 接入遥测数据并驱动下游监控批处理。
// MQTT 消息先进入内存缓冲，定时或缓冲写满时批量落库，
// 落库成功后按事件类型把设备批次写入各监控流。
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gateway-monitor/internal/config"
	"gateway-monitor/internal/models"
	"gateway-monitor/internal/mqtt"
	rediscommon "gateway-monitor/internal/redis"
	"gateway-monitor/internal/repository"
)

const (
	// CO2 变化量基准：取 [sensor_time-23min, sensor_time-18min) 窗口内最新的一条统计
	trackingOffset = 23 * time.Minute
	trackingWindow = 5 * time.Minute

	// 上报距今不超过该时长时把设备置为在线
	onlineThreshold = 10 * time.Minute
)

// Pipeline 遥测接入管道
type Pipeline struct {
	config     *config.Config
	mqtt       *mqtt.Client
	redis      *goredis.Client
	devices    *repository.DeviceRepository
	statistics *repository.StatisticRepository
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.Mutex
	buffer []*Reading
}

// NewPipeline 创建遥测接入管道
func NewPipeline(
	cfg *config.Config,
	mqttClient *mqtt.Client,
	redisClient *goredis.Client,
	devices *repository.DeviceRepository,
	statistics *repository.StatisticRepository,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		config:     cfg,
		mqtt:       mqttClient,
		redis:      redisClient,
		devices:    devices,
		statistics: statistics,
		logger:     logger,
		now:        time.Now,
	}
}

// Start 订阅遥测主题并启动定时落库，阻塞直到 ctx 取消。
// 退出前把缓冲中的剩余数据落库。
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.mqtt.Subscribe(p.config.MQTT.Topic, 1, p.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe telemetry topic: %w", err)
	}
	p.logger.Info("ingest pipeline started",
		zap.String("topic", p.config.MQTT.Topic),
		zap.Duration("flush_interval", p.config.Ingest.FlushInterval))

	ticker := time.NewTicker(p.config.Ingest.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := p.Flush(flushCtx); err != nil {
				p.logger.Error("failed to flush on shutdown", zap.Error(err))
			}
			return nil
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				p.logger.Error("failed to flush readings", zap.Error(err))
			}
		}
	}
}

// HandleMessage MQTT 消息回调，解析后进入缓冲
func (p *Pipeline) HandleMessage(topic string, payload []byte) error {
	reading, err := ParseReading(topic, payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.buffer = append(p.buffer, reading)
	full := len(p.buffer) >= p.config.Ingest.BufferSize
	p.mu.Unlock()

	if full {
		if err := p.Flush(context.Background()); err != nil {
			return fmt.Errorf("failed to flush full buffer: %w", err)
		}
	}
	return nil
}

// Flush 取出缓冲数据并落库、分发。缓冲为空时直接返回。
func (p *Pipeline) Flush(ctx context.Context) error {
	p.mu.Lock()
	readings := p.buffer
	p.buffer = nil
	p.mu.Unlock()
	if len(readings) == 0 {
		return nil
	}
	return p.process(ctx, readings)
}

// process 一次落库批次：去重、过滤旧数据、计算 CO2 变化量、
// 更新设备快照并写统计，最后把设备批次分发到监控流。
func (p *Pipeline) process(ctx context.Context, readings []*Reading) error {
	latest := dedupe(readings)
	imeis := make([]string, 0, len(latest))
	for imei := range latest {
		imeis = append(imeis, imei)
	}

	devices, err := p.devices.ListByIMEI(ctx, imeis)
	if err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}
	byIMEI := make(map[string]*models.Device, len(devices))
	for _, d := range devices {
		byIMEI[d.IMEI] = d
	}

	now := p.now().UTC()

	// 接受的读数：设备存在且比设备当前快照新
	var accepted []*Reading
	for imei, r := range latest {
		d := byIMEI[imei]
		if d == nil {
			p.logger.Debug("unknown device, reading dropped", zap.String("imei", imei))
			continue
		}
		if d.SensorTime != nil && !r.SensorTime.After(*d.SensorTime) {
			p.logger.Debug("stale reading dropped",
				zap.String("imei", imei),
				zap.Time("sensor_time", r.SensorTime))
			continue
		}
		accepted = append(accepted, r)
	}
	if len(accepted) == 0 {
		return nil
	}

	baselines, err := p.loadBaselines(ctx, accepted)
	if err != nil {
		return err
	}

	var updated []*models.Device
	statistics := make([]*models.Statistic, 0, len(accepted))
	for _, r := range accepted {
		d := byIMEI[r.IMEI]
		d.UpdateSnapshot(r.CO2, r.Temp, r.Humid, r.SensorTime)
		if now.Sub(r.SensorTime) <= onlineThreshold {
			d.SetDeviceStatus(models.DeviceOnline)
		}
		stat := &models.Statistic{
			IMEI:       r.IMEI,
			SensorTime: r.SensorTime,
			CO2:        r.CO2,
			Temp:       r.Temp,
			Humid:      r.Humid,
		}
		if base := baselines[r.IMEI]; base != nil {
			diff := r.CO2 - base.CO2
			stat.CO2Diff = &diff
		}
		statistics = append(statistics, stat)
		updated = append(updated, d)
	}

	if err := p.devices.BulkUpdate(ctx, updated); err != nil {
		return fmt.Errorf("failed to update devices: %w", err)
	}
	if err := p.statistics.BulkInsert(ctx, statistics); err != nil {
		return fmt.Errorf("failed to insert statistics: %w", err)
	}
	p.logger.Info("readings persisted",
		zap.Int("received", len(readings)),
		zap.Int("accepted", len(accepted)))

	return p.fanOut(ctx, updated)
}

// loadBaselines 查询每台设备 CO2 变化量的基准统计。
// 基准窗口相对各自的上报时间，批量查询后在内存里按窗口筛选。
func (p *Pipeline) loadBaselines(ctx context.Context, readings []*Reading) (map[string]*models.Statistic, error) {
	minSince := readings[0].SensorTime.Add(-trackingOffset)
	maxUntil := readings[0].SensorTime.Add(-trackingOffset + trackingWindow)
	imeis := make([]string, 0, len(readings))
	windows := make(map[string][2]time.Time, len(readings))
	for _, r := range readings {
		since := r.SensorTime.Add(-trackingOffset)
		until := since.Add(trackingWindow)
		if since.Before(minSince) {
			minSince = since
		}
		if until.After(maxUntil) {
			maxUntil = until
		}
		imeis = append(imeis, r.IMEI)
		windows[r.IMEI] = [2]time.Time{since, until}
	}

	groups, err := p.statistics.GroupByIMEI(ctx, imeis, minSince, maxUntil)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline statistics: %w", err)
	}

	baselines := make(map[string]*models.Statistic)
	for imei, stats := range groups {
		w := windows[imei]
		for _, s := range stats {
			if s.SensorTime.Before(w[0]) || !s.SensorTime.Before(w[1]) {
				continue
			}
			if cur := baselines[imei]; cur == nil || s.SensorTime.After(cur.SensorTime) {
				baselines[imei] = s
			}
		}
	}
	return baselines, nil
}

// fanOut 把本批设备分发到各监控流。
// 环境、流感、不在宅三条流收全部设备；
// 恢复在线的设备进长期不通流（带在线批次属性）；
// 不在宅设备进疑似入侵流。
func (p *Pipeline) fanOut(ctx context.Context, devices []*models.Device) error {
	all := make([]string, 0, len(devices))
	var reconnected, absent []string
	for _, d := range devices {
		all = append(all, d.IMEI)
		if d.LongDisconnectMonitorStatus != models.StatusNormal {
			reconnected = append(reconnected, d.IMEI)
		}
		if d.DeviceState == models.StateAbsence {
			absent = append(absent, d.IMEI)
		}
	}

	publish := func(stream string, imeis []string, attributes map[string]string) error {
		if len(imeis) == 0 {
			return nil
		}
		batch := models.MonitorBatch{BatchID: uuid.NewString(), IMEIs: imeis}
		if _, err := rediscommon.PublishJSON(ctx, p.redis, stream, batch, attributes); err != nil {
			return fmt.Errorf("failed to publish batch to %s: %w", stream, err)
		}
		p.logger.Debug("monitor batch published",
			zap.String("stream", stream),
			zap.String("batch_id", batch.BatchID),
			zap.Int("devices", len(imeis)))
		return nil
	}

	if err := publish(p.config.Monitor.EnvironmentStream, all, nil); err != nil {
		return err
	}
	if err := publish(p.config.Monitor.InfluenzaStream, all, nil); err != nil {
		return err
	}
	if err := publish(p.config.Monitor.AbsenceStream, all, nil); err != nil {
		return err
	}
	online := map[string]string{
		models.DeviceStatusAttribute: strconv.Itoa(int(models.DeviceOnline)),
	}
	if err := publish(p.config.Monitor.DisconnectStream, reconnected, online); err != nil {
		return err
	}
	return publish(p.config.Monitor.IntruderStream, absent, nil)
}

// dedupe 同一设备只保留本批内最新的读数
func dedupe(readings []*Reading) map[string]*Reading {
	latest := make(map[string]*Reading)
	for _, r := range readings {
		if cur := latest[r.IMEI]; cur == nil || r.SensorTime.After(cur.SensorTime) {
			latest[r.IMEI] = r
		}
	}
	return latest
}
