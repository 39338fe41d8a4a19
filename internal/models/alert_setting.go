package models

// AlertSetting 账户级别的报警配置（对应 alert_settings 表，对监控核心只读）
type AlertSetting struct {
	ID        int64
	AccountID int64

	CO2EmailAlert            EnableStatus
	TempEmailAlert           EnableStatus
	HeatStrokeEmailAlert     EnableStatus
	LongDisconnectEmailAlert EnableStatus
	IntruderEmailAlert       EnableStatus
	LongAbsenceEmailAlert    EnableStatus

	// 长期不在宅的报警时长（小时）
	LongAbsenceAlertTime int
}

// IsEmailAlertEnabled 指定事件类型的邮件通知是否开启
// 事件4（流感对策）没有邮件通知。
func (a *AlertSetting) IsEmailAlertEnabled(c MonitorCase) bool {
	switch c {
	case CaseCO2:
		return a.CO2EmailAlert == Enable
	case CaseTemperature:
		return a.TempEmailAlert == Enable
	case CaseHeatstroke:
		return a.HeatStrokeEmailAlert == Enable
	case CaseLongTermAbsence:
		return a.LongAbsenceEmailAlert == Enable
	case CaseLongTermDisconnect:
		return a.LongDisconnectEmailAlert == Enable
	case CaseSuspiciousIntruder:
		return a.IntruderEmailAlert == Enable
	default:
		return false
	}
}

// NotifyUser 报警通知收件人（对应 notify_users 表）
type NotifyUser struct {
	ID        int64
	AccountID int64
	Name      string
	Email     string
}
