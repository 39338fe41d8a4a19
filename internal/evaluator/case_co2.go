package evaluator

import (
	"fmt"
	"time"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

var co2Rules = []messageRule{
	{
		status: models.StatusAbnormal,
		from:   messageFromBelowAbnormal,
		title:  templates.Case1AbnormalTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case1AbnormalContent, templates.Comma(d.CO2))
		},
	},
	{
		status: models.StatusWarning,
		from:   messageAroundWarning,
		title:  templates.Case1WarningTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case1WarningContent, templates.Comma(d.CO2))
		},
	},
	{
		status: models.StatusNormal,
		from:   messageFromAboveNormal,
		title:  templates.Case1NormalTitle,
		detail: func(d *models.Device) string { return templates.Case1NormalContent },
	},
}

// checkCO2 事件1：CO2 浓度判定
func (e *Evaluator) checkCO2(d *models.Device, samples []*models.Statistic, now time.Time) *models.DeviceMonitor {
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		values = append(values, float64(s.CO2))
	}
	prev := d.CO2MonitorStatus
	cur := decideByCounts(countByThreshold(values, co2Warning, co2Abnormal), prev)
	m := transition(d, models.CaseCO2, prev, cur, now, co2Rules)
	if m != nil {
		setEnvironmentNotifyFlags(m, prev)
	}
	return m
}
