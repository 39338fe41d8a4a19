package models

// MonitorStatus 监控状态（与数据库存储值一致）
type MonitorStatus int

const (
	StatusNormal   MonitorStatus = 1
	StatusWarning  MonitorStatus = 2
	StatusAbnormal MonitorStatus = 3
	StatusUnknown  MonitorStatus = 4
)

func (s MonitorStatus) String() string {
	switch s {
	case StatusNormal:
		return "NORMAL"
	case StatusWarning:
		return "WARNING"
	case StatusAbnormal:
		return "ABNORMAL"
	case StatusUnknown:
		return "UNKNOWN"
	default:
		return "INVALID"
	}
}

// DeviceState 设备监护状态
type DeviceState int

const (
	StateMonitoring     DeviceState = 1
	StateAbsence        DeviceState = 2
	StateStopMonitoring DeviceState = 3
)

func (s DeviceState) String() string {
	switch s {
	case StateMonitoring:
		return "MONITORING"
	case StateAbsence:
		return "ABSENCE"
	case StateStopMonitoring:
		return "STOP_MONITORING"
	default:
		return "INVALID"
	}
}

// DeviceStatus 设备连接状态
type DeviceStatus int

const (
	DeviceNoSystemRegistration DeviceStatus = 1
	DeviceNoRegistration       DeviceStatus = 2
	DeviceOffline              DeviceStatus = 3
	DeviceOnline               DeviceStatus = 4
	DeviceAbnormal             DeviceStatus = 5
	DeviceUnknown              DeviceStatus = 6
)

// EnableStatus 开关标志
type EnableStatus int

const (
	Disable EnableStatus = 0
	Enable  EnableStatus = 1
)

// MonitorCase 监控事件类型（1-7）
type MonitorCase int

const (
	CaseCO2                MonitorCase = 1
	CaseTemperature        MonitorCase = 2
	CaseHeatstroke         MonitorCase = 3
	CaseInfluenza          MonitorCase = 4
	CaseLongTermAbsence    MonitorCase = 5
	CaseLongTermDisconnect MonitorCase = 6
	CaseSuspiciousIntruder MonitorCase = 7
)

func (c MonitorCase) String() string {
	switch c {
	case CaseCO2:
		return "co2"
	case CaseTemperature:
		return "temperature"
	case CaseHeatstroke:
		return "heatstroke"
	case CaseInfluenza:
		return "influenza"
	case CaseLongTermAbsence:
		return "long_term_absence"
	case CaseLongTermDisconnect:
		return "long_term_disconnect"
	case CaseSuspiciousIntruder:
		return "suspicious_intruder"
	default:
		return "invalid"
	}
}
