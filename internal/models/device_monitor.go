package models

import (
	"fmt"
	"time"
)

// DeviceMonitor 监控事件记录（对应 device_monitors 表，仅追加）
// 一条记录代表一次设备+事件类型的状态迁移，而不是状态快照。
type DeviceMonitor struct {
	ID            int64         `json:"id"`
	IMEI          string        `json:"imei"`
	OccurredAt    time.Time     `json:"occurred_at"`
	MonitorCase   MonitorCase   `json:"monitor_case"`
	MonitorStatus MonitorStatus `json:"monitor_status"`
	Message       string        `json:"message"`
	MessageDetail string        `json:"message_detail"`

	// 通知决策标志（不持久化，随下游消息一起转发）
	PushMessage       bool `json:"push_firebase_message"`
	SendEmail         bool `json:"send_email"`
	AllowNotification bool `json:"-"`
}

func (m *DeviceMonitor) String() string {
	return fmt.Sprintf("DeviceMonitor<imei=%s, case=%d, status=%s>", m.IMEI, m.MonitorCase, m.MonitorStatus)
}
