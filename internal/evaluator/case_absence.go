package evaluator

import (
	"fmt"
	"time"

	"gateway-monitor/internal/models"
	"gateway-monitor/internal/repository"
	"gateway-monitor/internal/templates"
)

var absenceRecoveryRules = []messageRule{
	{
		status: models.StatusNormal,
		from:   []models.MonitorStatus{models.StatusAbnormal, models.StatusUnknown},
		title:  templates.Case5NormalTitle,
		detail: func(d *models.Device) string {
			return fmt.Sprintf(templates.Case5NormalContent, templates.Comma(d.CO2), templates.Temp(d.Temp), d.Humid)
		},
	},
}

// checkAbsenceRecovery 事件5恢复判定：CO2 有明显变化即视为有人活动
func (e *Evaluator) checkAbsenceRecovery(d *models.Device, now time.Time) *models.DeviceMonitor {
	prev := d.LongAbsenceMonitorStatus
	m := transition(d, models.CaseLongTermAbsence, prev, models.StatusNormal, now, absenceRecoveryRules)
	if m != nil {
		setAbsenceNotifyFlags(m, prev)
	}
	return m
}

// checkAbsenceEscalation 事件5异常判定。
// 报警时长窗口内全部统计的 CO2 变化量都低于阈值，
// 且统计条数达到窗口理论条数的 80% 以上时判定异常。
// 覆盖率要求防止数据大面积缺失时误报。
func (e *Evaluator) checkAbsenceEscalation(d *models.Device, c repository.CO2DiffCount, alertTime int, now time.Time) *models.DeviceMonitor {
	prev := d.LongAbsenceMonitorStatus
	cur := prev
	required := float64(alertTime*samplesPerHour) * absenceCoverageRatio
	if c.Match > 0 && c.Match == c.Total && float64(c.Match) >= required {
		cur = models.StatusAbnormal
	}
	rules := []messageRule{
		{
			status: models.StatusAbnormal,
			from:   messageFromNotAbnormal,
			title:  templates.Case5AbnormalTitle,
			detail: func(d *models.Device) string {
				return fmt.Sprintf(templates.Case5AbnormalContent, alertTime, templates.Comma(d.CO2), templates.Temp(d.Temp), d.Humid)
			},
		},
	}
	m := transition(d, models.CaseLongTermAbsence, prev, cur, now, rules)
	if m != nil {
		setAbsenceNotifyFlags(m, prev)
	}
	return m
}
