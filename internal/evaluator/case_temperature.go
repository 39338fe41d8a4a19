package evaluator

import (
	"fmt"
	"time"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

var temperatureRules = []messageRule{
	{
		status: models.StatusAbnormal,
		from:   messageFromBelowAbnormal,
		title:  templates.Case2AbnormalTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case2AbnormalContent, templates.Temp(d.Temp))
		},
	},
	{
		status: models.StatusWarning,
		from:   messageAroundWarning,
		title:  templates.Case2WarningTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case2WarningContent, templates.Temp(d.Temp))
		},
	},
	{
		status: models.StatusNormal,
		from:   messageFromAboveNormal,
		title:  templates.Case2NormalTitle,
		detail: func(d *models.Device) string { return templates.Case2NormalContent },
	},
}

// checkTemperature 事件2：温度判定。
// 异常温度可能意味着火灾，单个异常样本即判定异常，不等待样本数达标。
func (e *Evaluator) checkTemperature(d *models.Device, samples []*models.Statistic, now time.Time) *models.DeviceMonitor {
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		values = append(values, s.Temp)
	}
	c := countByThreshold(values, tempWarning, tempAbnormal)
	if c.abnormal == 0 && len(samples) < minCount {
		return nil
	}
	prev := d.TempMonitorStatus
	cur := prev
	switch {
	case c.abnormal >= 1:
		cur = models.StatusAbnormal
	case c.warning >= minCount:
		cur = models.StatusWarning
	case c.normal >= minCount:
		cur = models.StatusNormal
	}
	m := transition(d, models.CaseTemperature, prev, cur, now, temperatureRules)
	if m != nil {
		setEnvironmentNotifyFlags(m, prev)
	}
	return m
}
