package models

import (
	"fmt"
	"time"
)

// Device 网关设备（对应 devices 表）
// 每个网关携带 CO2/温度/湿度传感器，最新读数作为快照保存在设备行上。
// 各监控事件的当前状态也保存在设备行上，由评估器原地更新。
type Device struct {
	IMEI       string
	AccountID  *int64
	DeviceName string

	DeviceState  DeviceState
	DeviceStatus DeviceStatus
	IsPush       EnableStatus

	// 环境快照（最近一次被接受的遥测数据）
	CO2        int
	Temp       float64
	Humid      int
	SensorTime *time.Time

	// 各监控事件的当前状态
	CO2MonitorStatus            MonitorStatus
	TempMonitorStatus           MonitorStatus
	HeatStrokeMonitorStatus     MonitorStatus
	InfluenzaMonitorStatus      MonitorStatus
	LongDisconnectMonitorStatus MonitorStatus
	LongAbsenceMonitorStatus    MonitorStatus
	IntruderMonitorStatus       MonitorStatus

	// 运行时附加数据（不持久化，批处理读取时挂载）
	LastStatistic *Statistic    `json:"-"`
	AlertSetting  *AlertSetting `json:"-"`

	// 脏标记：快照或监控状态被修改后置位，批量保存时只写回脏设备
	modified bool
}

// MonitorStatusFor 按事件类型读取当前状态
func (d *Device) MonitorStatusFor(c MonitorCase) MonitorStatus {
	switch c {
	case CaseCO2:
		return d.CO2MonitorStatus
	case CaseTemperature:
		return d.TempMonitorStatus
	case CaseHeatstroke:
		return d.HeatStrokeMonitorStatus
	case CaseInfluenza:
		return d.InfluenzaMonitorStatus
	case CaseLongTermAbsence:
		return d.LongAbsenceMonitorStatus
	case CaseLongTermDisconnect:
		return d.LongDisconnectMonitorStatus
	case CaseSuspiciousIntruder:
		return d.IntruderMonitorStatus
	default:
		return StatusUnknown
	}
}

// SetMonitorStatusFor 按事件类型写入状态，状态变化时置脏标记
func (d *Device) SetMonitorStatusFor(c MonitorCase, s MonitorStatus) {
	if d.MonitorStatusFor(c) == s {
		return
	}
	switch c {
	case CaseCO2:
		d.CO2MonitorStatus = s
	case CaseTemperature:
		d.TempMonitorStatus = s
	case CaseHeatstroke:
		d.HeatStrokeMonitorStatus = s
	case CaseInfluenza:
		d.InfluenzaMonitorStatus = s
	case CaseLongTermAbsence:
		d.LongAbsenceMonitorStatus = s
	case CaseLongTermDisconnect:
		d.LongDisconnectMonitorStatus = s
	case CaseSuspiciousIntruder:
		d.IntruderMonitorStatus = s
	default:
		return
	}
	d.modified = true
}

// UpdateSnapshot 更新环境快照并置脏标记
func (d *Device) UpdateSnapshot(co2 int, temp float64, humid int, sensorTime time.Time) {
	d.CO2 = co2
	d.Temp = temp
	d.Humid = humid
	d.SensorTime = &sensorTime
	d.modified = true
}

// SetDeviceStatus 更新连接状态并置脏标记
func (d *Device) SetDeviceStatus(s DeviceStatus) {
	if d.DeviceStatus == s {
		return
	}
	d.DeviceStatus = s
	d.modified = true
}

// Modified 设备在本次批处理中是否被修改
func (d *Device) Modified() bool {
	return d.modified
}

// ClearModified 重置脏标记（批量保存之后调用）
func (d *Device) ClearModified() {
	d.modified = false
}

// AbsenceAlertTime 长期不在宅的报警时长（小时），无配置时取默认值
func (d *Device) AbsenceAlertTime() int {
	if d.AlertSetting != nil && d.AlertSetting.LongAbsenceAlertTime > 0 {
		return d.AlertSetting.LongAbsenceAlertTime
	}
	return DefaultAbsenceAlertTime
}

func (d *Device) String() string {
	return fmt.Sprintf("Device<imei=%s>", d.IMEI)
}

// DefaultAbsenceAlertTime 长期不在宅默认报警时长（小时）
const DefaultAbsenceAlertTime = 48
