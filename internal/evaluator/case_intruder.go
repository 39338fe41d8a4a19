package evaluator

import (
	"time"

	"go.uber.org/zap"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

var intruderRules = []messageRule{
	{
		status: models.StatusAbnormal,
		from:   messageFromNotAbnormal,
		title:  templates.Case7AbnormalTitle,
		detail: func(d *models.Device) string { return templates.Case7AbnormalContent },
	},
}

// checkIntruder 事件7：不在宅期间 CO2 上升视为疑似入侵。
// 只看上升方向，下降来自通风等正常衰减，不算入侵迹象。
func (e *Evaluator) checkIntruder(d *models.Device, now time.Time) *models.DeviceMonitor {
	if d.LastStatistic == nil || d.LastStatistic.CO2Diff == nil {
		e.logger.Debug("skip device, no co2 diff", zap.String("imei", d.IMEI))
		return nil
	}
	prev := d.IntruderMonitorStatus
	cur := prev
	if *d.LastStatistic.CO2Diff >= co2DiffThreshold {
		cur = models.StatusAbnormal
	}
	m := transition(d, models.CaseSuspiciousIntruder, prev, cur, now, intruderRules)
	if m != nil {
		setAbsenceNotifyFlags(m, prev)
	}
	return m
}
