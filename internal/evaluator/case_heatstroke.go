package evaluator

import (
	"fmt"
	"time"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

var heatstrokeRules = []messageRule{
	{
		status: models.StatusAbnormal,
		from:   messageFromBelowAbnormal,
		title:  templates.Case3AbnormalTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case3AbnormalContent, templates.Comma(d.CO2), templates.Temp(d.Temp), d.Humid)
		},
	},
	{
		status: models.StatusWarning,
		from:   messageAroundWarning,
		title:  templates.Case3WarningTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case3WarningContent, templates.Comma(d.CO2), templates.Temp(d.Temp), d.Humid)
		},
	},
	{
		status: models.StatusNormal,
		from:   messageFromAboveNormal,
		title:  templates.Case3NormalTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case3NormalContent, templates.Comma(d.CO2), templates.Temp(d.Temp), d.Humid)
		},
	},
}

// checkHeatstroke 事件3：中暑判定（温湿度组合）
func (e *Evaluator) checkHeatstroke(d *models.Device, samples []*models.Statistic, now time.Time) *models.DeviceMonitor {
	prev := d.HeatStrokeMonitorStatus
	cur := decideByCounts(countHeatstroke(samples), prev)
	m := transition(d, models.CaseHeatstroke, prev, cur, now, heatstrokeRules)
	if m != nil {
		setEnvironmentNotifyFlags(m, prev)
	}
	return m
}
