package evaluator

import (
	"time"

	"gateway-monitor/internal/models"
)

// messageRule 单条状态迁移对应的通知文案。
// 仅当新状态等于 status 且旧状态落在 from 集合内时生成消息，
// 其余迁移只更新设备状态，不产生监控记录。
type messageRule struct {
	status models.MonitorStatus
	from   []models.MonitorStatus
	title  string
	detail func(d *models.Device) string
}

func statusIn(s models.MonitorStatus, set []models.MonitorStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// transition 应用状态迁移并按规则表生成监控记录，无匹配规则时返回 nil
func transition(device *models.Device, monitorCase models.MonitorCase, prev, cur models.MonitorStatus, now time.Time, rules []messageRule) *models.DeviceMonitor {
	device.SetMonitorStatusFor(monitorCase, cur)
	for _, r := range rules {
		if cur == r.status && statusIn(prev, r.from) {
			return &models.DeviceMonitor{
				IMEI:          device.IMEI,
				OccurredAt:    now,
				MonitorCase:   monitorCase,
				MonitorStatus: cur,
				Message:       r.title,
				MessageDetail: r.detail(device),
			}
		}
	}
	return nil
}

// 消息生成的方向集合。状态只在跨越当前档位时产生消息，
// 同向波动（如告警与异常之间反复）不重复打扰用户。
var (
	messageFromBelowAbnormal = []models.MonitorStatus{models.StatusUnknown, models.StatusNormal, models.StatusWarning}
	messageAroundWarning     = []models.MonitorStatus{models.StatusUnknown, models.StatusNormal, models.StatusAbnormal}
	messageFromAboveNormal   = []models.MonitorStatus{models.StatusAbnormal, models.StatusWarning, models.StatusUnknown}
	messageFromNotAbnormal   = []models.MonitorStatus{models.StatusUnknown, models.StatusNormal}
)

// 通知标记的方向集合。异常通知只在恶化方向触发，恢复方向静默。
var (
	abnormalNotifyFrom = []models.MonitorStatus{models.StatusUnknown, models.StatusNormal, models.StatusWarning}
	warningNotifyFrom  = []models.MonitorStatus{models.StatusUnknown, models.StatusNormal}
)

// setEnvironmentNotifyFlags 事件1、2、3、6的通知标记：
// 异常推送且发邮件，告警仅推送
func setEnvironmentNotifyFlags(m *models.DeviceMonitor, prev models.MonitorStatus) {
	switch m.MonitorStatus {
	case models.StatusAbnormal:
		if statusIn(prev, abnormalNotifyFrom) {
			m.PushMessage = true
			m.SendEmail = true
		}
	case models.StatusWarning:
		if statusIn(prev, warningNotifyFrom) {
			m.PushMessage = true
		}
	}
}

// setAbsenceNotifyFlags 事件5、7的通知标记：仅异常且来自未知/正常时通知
func setAbsenceNotifyFlags(m *models.DeviceMonitor, prev models.MonitorStatus) {
	if m.MonitorStatus == models.StatusAbnormal && statusIn(prev, warningNotifyFrom) {
		m.PushMessage = true
		m.SendEmail = true
	}
}
