package models

// MonitorBatch 监控流消息体。
// 只携带 IMEI 列表，消费侧重新读库取最新设备状态，
// 避免消息在流中滞留期间设备快照过期。
type MonitorBatch struct {
	// BatchID 批次追踪 ID，贯穿发布与消费两侧的日志
	BatchID string   `json:"batch_id"`
	IMEIs   []string `json:"imeis"`
}

// DeviceStatusAttribute 长期不通流的批次属性键，
// 值为 DeviceStatus 数值，区分离线批次和恢复在线批次
const DeviceStatusAttribute = "device_status"
