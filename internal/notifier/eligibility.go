// Package notifier 负责监控记录的通知资格过滤与分发。
// 资格过滤在监控记录落库前执行，分发在落库后执行（推送需要记录 ID）。
package notifier

import "gateway-monitor/internal/models"

// Outgoing 待分发的监控记录及其所属设备
type Outgoing struct {
	Monitor *models.DeviceMonitor
	Device  *models.Device
}

// ApplyEligibility 通知资格过滤。
// 规则：设备关闭推送时清除推送标记；无绑定账号、监护停止、
// 或推送与邮件标记均为空的记录不允许通知。
// 记录本身仍然落库，只是不进入分发管道。
func ApplyEligibility(m *models.DeviceMonitor, d *models.Device) {
	if d.IsPush == models.Disable {
		m.PushMessage = false
	}
	m.AllowNotification = allowNotification(m, d)
}

func allowNotification(m *models.DeviceMonitor, d *models.Device) bool {
	if d.AccountID == nil {
		return false
	}
	if d.DeviceState == models.StateStopMonitoring {
		return false
	}
	if !m.PushMessage && !m.SendEmail {
		return false
	}
	return true
}
