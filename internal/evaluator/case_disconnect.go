package evaluator

import (
	"fmt"
	"time"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

var disconnectRules = []messageRule{
	{
		status: models.StatusAbnormal,
		from:   messageFromBelowAbnormal,
		title:  templates.Case6AbnormalTitle,
		detail: func(d *models.Device) string { return templates.Case6AbnormalContent },
	},
	{
		status: models.StatusWarning,
		from:   messageAroundWarning,
		title:  templates.Case6WarningTitle,
		detail: func(d *models.Device) string { return templates.Case6WarningContent },
	},
}

var reconnectRules = []messageRule{
	{
		status: models.StatusNormal,
		from:   messageFromAboveNormal,
		title:  templates.Case6NormalTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case6NormalContent, templates.Comma(d.CO2), templates.Temp(d.Temp), d.Humid)
		},
	},
}

// checkDisconnect 事件6离线判定：按最后上报距今的时长分档
func (e *Evaluator) checkDisconnect(d *models.Device, now time.Time) *models.DeviceMonitor {
	elapsed := now.Sub(d.SensorTime.UTC())
	prev := d.LongDisconnectMonitorStatus
	cur := prev
	switch {
	case elapsed >= emailNotificationDisconnectDuration:
		cur = models.StatusAbnormal
	case elapsed >= appNotificationDisconnectDuration:
		cur = models.StatusWarning
	}
	m := transition(d, models.CaseLongTermDisconnect, prev, cur, now, disconnectRules)
	if m != nil {
		setEnvironmentNotifyFlags(m, prev)
	}
	return m
}

// checkReconnect 事件6恢复判定：最近上报在恢复窗口内才判定正常，
// 避免设备刚上线但仍在补传旧数据时误报恢复
func (e *Evaluator) checkReconnect(d *models.Device, now time.Time) *models.DeviceMonitor {
	elapsed := now.Sub(d.SensorTime.UTC())
	prev := d.LongDisconnectMonitorStatus
	cur := prev
	if elapsed <= recoveryConnectionDuration {
		cur = models.StatusNormal
	}
	m := transition(d, models.CaseLongTermDisconnect, prev, cur, now, reconnectRules)
	if m != nil {
		setEnvironmentNotifyFlags(m, prev)
	}
	return m
}
