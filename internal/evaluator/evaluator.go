// Package evaluator 实现七类监控事件的批量评估。
// 每条流消息对应一批设备，评估器读取统计数据、更新设备监控状态、
// 生成监控记录并交给分发器，整批原子落库。
package evaluator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/notifier"
	"gateway-monitor/internal/repository"
)

// Dispatcher 通知分发接口，由 notifier.Dispatcher 实现
type Dispatcher interface {
	Dispatch(ctx context.Context, items []notifier.Outgoing) error
}

// Evaluator 监控事件评估器
type Evaluator struct {
	devices    *repository.DeviceRepository
	statistics *repository.StatisticRepository
	monitors   *repository.DeviceMonitorRepository
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// New 创建评估器
func New(
	devices *repository.DeviceRepository,
	statistics *repository.StatisticRepository,
	monitors *repository.DeviceMonitorRepository,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *Evaluator {
	return &Evaluator{
		devices:    devices,
		statistics: statistics,
		monitors:   monitors,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessEnvironment 评估事件1、2、3（CO2 浓度、温度、中暑）
func (e *Evaluator) ProcessEnvironment(ctx context.Context, devices []*models.Device) error {
	if len(devices) == 0 {
		return nil
	}
	now := e.now().UTC()
	stats, err := e.statistics.GroupByIMEI(ctx, imeis(devices), now.Add(-trackingDuration), now)
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}

	var monitors []*models.DeviceMonitor
	var outgoing []notifier.Outgoing
	for _, d := range devices {
		samples := stats[d.IMEI]
		if len(samples) < minCount {
			e.logger.Debug("skip device, not enough samples",
				zap.String("imei", d.IMEI),
				zap.Int("count", len(samples)))
			// 事件2不受样本数限制，只要有异常样本就立即判定
			if m := e.checkTemperature(d, samples, now); m != nil {
				monitors, outgoing = collect(monitors, outgoing, m, d)
			}
			continue
		}
		for _, m := range []*models.DeviceMonitor{
			e.checkCO2(d, samples, now),
			e.checkTemperature(d, samples, now),
			e.checkHeatstroke(d, samples, now),
		} {
			if m != nil {
				monitors, outgoing = collect(monitors, outgoing, m, d)
			}
		}
	}
	return e.finalize(ctx, devices, monitors, outgoing)
}

// ProcessInfluenza 评估事件4（流感对策）
func (e *Evaluator) ProcessInfluenza(ctx context.Context, devices []*models.Device) error {
	if len(devices) == 0 {
		return nil
	}
	now := e.now().UTC()
	stats, err := e.statistics.GroupByIMEI(ctx, imeis(devices), now.Add(-trackingDuration), now)
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}

	var monitors []*models.DeviceMonitor
	var outgoing []notifier.Outgoing
	for _, d := range devices {
		samples := stats[d.IMEI]
		if len(samples) < minCount {
			e.logger.Debug("skip device, not enough samples",
				zap.String("imei", d.IMEI),
				zap.Int("count", len(samples)))
			continue
		}
		if m := e.checkInfluenza(d, samples, now); m != nil {
			monitors, outgoing = collect(monitors, outgoing, m, d)
		}
	}
	return e.finalize(ctx, devices, monitors, outgoing)
}

// ProcessAbsence 评估事件5（长期不在宅）。
// 先按最新统计的 CO2 变化量把设备分为恢复候选与持续无变化两组，
// 后者再按报警时长分组统计整窗覆盖率。
func (e *Evaluator) ProcessAbsence(ctx context.Context, devices []*models.Device) error {
	if len(devices) == 0 {
		return nil
	}
	now := e.now().UTC()
	if err := e.statistics.LoadLastStatistics(ctx, devices); err != nil {
		return fmt.Errorf("load last statistics: %w", err)
	}

	var recovery, escalation []*models.Device
	for _, d := range devices {
		if d.LastStatistic == nil || d.LastStatistic.CO2Diff == nil {
			e.logger.Debug("skip device, no co2 diff", zap.String("imei", d.IMEI))
			continue
		}
		if abs(*d.LastStatistic.CO2Diff) >= co2DiffThreshold {
			recovery = append(recovery, d)
		} else {
			escalation = append(escalation, d)
		}
	}

	var monitors []*models.DeviceMonitor
	var outgoing []notifier.Outgoing
	for _, d := range recovery {
		if m := e.checkAbsenceRecovery(d, now); m != nil {
			monitors, outgoing = collect(monitors, outgoing, m, d)
		}
	}
	if len(escalation) > 0 {
		if err := e.devices.LoadAlertSettings(ctx, escalation); err != nil {
			return fmt.Errorf("load alert settings: %w", err)
		}
		groups := make(map[int][]*models.Device)
		for _, d := range escalation {
			groups[d.AbsenceAlertTime()] = append(groups[d.AbsenceAlertTime()], d)
		}
		for alertTime, group := range groups {
			since := now.Add(-time.Duration(alertTime) * time.Hour)
			counts, err := e.statistics.CountCO2DiffBelow(ctx, imeis(group), since, now, co2DiffThreshold)
			if err != nil {
				return fmt.Errorf("count co2 diff: %w", err)
			}
			for _, d := range group {
				if m := e.checkAbsenceEscalation(d, counts[d.IMEI], alertTime, now); m != nil {
					monitors, outgoing = collect(monitors, outgoing, m, d)
				}
			}
		}
	}
	return e.finalize(ctx, devices, monitors, outgoing)
}

// ProcessDisconnect 评估事件6（长期不通）。
// online 为 true 时走恢复判定，否则按离线时长判定告警/异常。
func (e *Evaluator) ProcessDisconnect(ctx context.Context, devices []*models.Device, online bool) error {
	if len(devices) == 0 {
		return nil
	}
	now := e.now().UTC()

	var monitors []*models.DeviceMonitor
	var outgoing []notifier.Outgoing
	for _, d := range devices {
		if d.SensorTime == nil {
			e.logger.Debug("skip device, no sensor time", zap.String("imei", d.IMEI))
			continue
		}
		var m *models.DeviceMonitor
		if online {
			m = e.checkReconnect(d, now)
		} else {
			m = e.checkDisconnect(d, now)
		}
		if m != nil {
			monitors, outgoing = collect(monitors, outgoing, m, d)
		}
	}
	return e.finalize(ctx, devices, monitors, outgoing)
}

// ProcessIntruder 评估事件7（疑似入侵）。仅处理不在宅设备：
// 异常状态持续超过恢复时长的设备静默恢复为正常（不生成监控记录），
// 其余设备按最新统计的 CO2 变化量判定入侵。
func (e *Evaluator) ProcessIntruder(ctx context.Context, devices []*models.Device) error {
	absent := devices[:0:0]
	for _, d := range devices {
		if d.DeviceState != models.StateAbsence {
			e.logger.Debug("skip device, not absent",
				zap.String("imei", d.IMEI),
				zap.String("device_state", d.DeviceState.String()))
			continue
		}
		absent = append(absent, d)
	}
	if len(absent) == 0 {
		return nil
	}
	now := e.now().UTC()

	var abnormalIMEIs []string
	for _, d := range absent {
		if d.IntruderMonitorStatus == models.StatusAbnormal {
			abnormalIMEIs = append(abnormalIMEIs, d.IMEI)
		}
	}
	last := map[string]*models.DeviceMonitor{}
	if len(abnormalIMEIs) > 0 {
		var err error
		last, err = e.monitors.LastForCase(ctx, abnormalIMEIs, models.CaseSuspiciousIntruder)
		if err != nil {
			return fmt.Errorf("load last monitors: %w", err)
		}
	}

	var candidates []*models.Device
	for _, d := range absent {
		if d.IntruderMonitorStatus == models.StatusAbnormal {
			if lm := last[d.IMEI]; lm != nil && now.Sub(lm.OccurredAt) >= intruderRecoveryDuration {
				d.SetMonitorStatusFor(models.CaseSuspiciousIntruder, models.StatusNormal)
				e.logger.Debug("intruder status recovered", zap.String("imei", d.IMEI))
				continue
			}
		}
		candidates = append(candidates, d)
	}

	var monitors []*models.DeviceMonitor
	var outgoing []notifier.Outgoing
	if len(candidates) > 0 {
		if err := e.statistics.LoadLastStatistics(ctx, candidates); err != nil {
			return fmt.Errorf("load last statistics: %w", err)
		}
		for _, d := range candidates {
			if m := e.checkIntruder(d, now); m != nil {
				monitors, outgoing = collect(monitors, outgoing, m, d)
			}
		}
	}
	return e.finalize(ctx, absent, monitors, outgoing)
}

// finalize 批量写回脏设备、落库监控记录并分发通知。
// 监控记录必须先落库取得 ID，邮件正文会引用通知 ID。
func (e *Evaluator) finalize(ctx context.Context, devices []*models.Device, monitors []*models.DeviceMonitor, outgoing []notifier.Outgoing) error {
	var dirty []*models.Device
	for _, d := range devices {
		if d.Modified() {
			dirty = append(dirty, d)
		}
	}
	if len(dirty) > 0 {
		if err := e.devices.BulkUpdate(ctx, dirty); err != nil {
			return fmt.Errorf("update devices: %w", err)
		}
	}
	if len(monitors) > 0 {
		if err := e.monitors.BulkInsert(ctx, monitors); err != nil {
			return fmt.Errorf("insert monitors: %w", err)
		}
	}
	if len(outgoing) > 0 {
		if err := e.dispatcher.Dispatch(ctx, outgoing); err != nil {
			return fmt.Errorf("dispatch notifications: %w", err)
		}
	}
	e.logger.Info("batch evaluated",
		zap.Int("devices", len(devices)),
		zap.Int("updated", len(dirty)),
		zap.Int("monitors", len(monitors)),
		zap.Int("notified", len(outgoing)))
	return nil
}

// collect 应用资格过滤后归集监控记录，允许通知的进入分发列表
func collect(monitors []*models.DeviceMonitor, outgoing []notifier.Outgoing, m *models.DeviceMonitor, d *models.Device) ([]*models.DeviceMonitor, []notifier.Outgoing) {
	notifier.ApplyEligibility(m, d)
	monitors = append(monitors, m)
	if m.AllowNotification {
		outgoing = append(outgoing, notifier.Outgoing{Monitor: m, Device: d})
	}
	return monitors, outgoing
}

func imeis(devices []*models.Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.IMEI)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
