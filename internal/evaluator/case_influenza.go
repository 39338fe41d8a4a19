package evaluator

import (
	"fmt"
	"time"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/templates"
)

var influenzaRules = []messageRule{
	{
		status: models.StatusWarning,
		from:   []models.MonitorStatus{models.StatusUnknown, models.StatusNormal},
		title:  templates.Case4WarningTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case4WarningContent, templates.Temp(d.Temp), d.Humid)
		},
	},
	{
		status: models.StatusNormal,
		from:   []models.MonitorStatus{models.StatusWarning, models.StatusUnknown},
		title:  templates.Case4NormalTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case4NormalContent, templates.Temp(d.Temp), d.Humid)
		},
	},
}

// checkInfluenza 事件4：流感对策判定。
// 只在正常与告警之间迁移，监控记录仅供 App 内展示，不触发推送和邮件。
func (e *Evaluator) checkInfluenza(d *models.Device, samples []*models.Statistic, now time.Time) *models.DeviceMonitor {
	c := countInfluenza(samples)
	prev := d.InfluenzaMonitorStatus
	cur := prev
	switch {
	case c.warning >= minCount:
		cur = models.StatusWarning
	case c.normal >= minCount:
		cur = models.StatusNormal
	}
	return transition(d, models.CaseInfluenza, prev, cur, now, influenzaRules)
}
