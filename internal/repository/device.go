package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gateway-monitor/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DeviceRepository 设备仓库
type DeviceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeviceRepository 创建设备仓库
func NewDeviceRepository(db *sql.DB, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
	}
}

const deviceColumns = `
	imei,
	account_id,
	device_name,
	device_state,
	device_status,
	is_push,
	co2,
	temp,
	humid,
	sensor_time,
	co2_monitor_status,
	temp_monitor_status,
	heat_stroke_monitor_status,
	influenza_monitor_status,
	long_disconnect_monitor_status,
	long_absence_monitor_status,
	intruder_monitor_status
`

func scanDevice(scanner interface{ Scan(dest ...interface{}) error }) (*models.Device, error) {
	var device models.Device
	var accountID sql.NullInt64
	var deviceName sql.NullString
	var sensorTime sql.NullTime

	err := scanner.Scan(
		&device.IMEI,
		&accountID,
		&deviceName,
		&device.DeviceState,
		&device.DeviceStatus,
		&device.IsPush,
		&device.CO2,
		&device.Temp,
		&device.Humid,
		&sensorTime,
		&device.CO2MonitorStatus,
		&device.TempMonitorStatus,
		&device.HeatStrokeMonitorStatus,
		&device.InfluenzaMonitorStatus,
		&device.LongDisconnectMonitorStatus,
		&device.LongAbsenceMonitorStatus,
		&device.IntruderMonitorStatus,
	)
	if err != nil {
		return nil, err
	}

	if accountID.Valid {
		device.AccountID = &accountID.Int64
	}
	if deviceName.Valid {
		device.DeviceName = deviceName.String
	}
	if sensorTime.Valid {
		device.SensorTime = &sensorTime.Time
	}
	return &device, nil
}

// ListByIMEI 按 IMEI 列表查询设备，不存在的 IMEI 直接跳过
func (r *DeviceRepository) ListByIMEI(ctx context.Context, imeis []string) ([]*models.Device, error) {
	if len(imeis) == 0 {
		return []*models.Device{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM devices
		WHERE imei = ANY($1)
		  AND deleted_at IS NULL
	`, deviceColumns)

	rows, err := r.db.QueryContext(ctx, query, pq.Array(imeis))
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := []*models.Device{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}

// ListDisconnected 查询超过 offlineDuration 没有遥测更新的设备
func (r *DeviceRepository) ListDisconnected(ctx context.Context, offlineDuration time.Duration) ([]*models.Device, error) {
	offlineTime := time.Now().UTC().Add(-offlineDuration)

	query := fmt.Sprintf(`
		SELECT %s
		FROM devices
		WHERE sensor_time <= $1
		  AND deleted_at IS NULL
	`, deviceColumns)

	rows, err := r.db.QueryContext(ctx, query, offlineTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query disconnected devices: %w", err)
	}
	defer rows.Close()

	devices := []*models.Device{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}

// ListAbsentAbnormal 查询不在宅且疑似入侵状态为异常的设备（事件7恢复扫描用）
func (r *DeviceRepository) ListAbsentAbnormal(ctx context.Context) ([]*models.Device, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM devices
		WHERE device_state = $1
		  AND intruder_monitor_status = $2
		  AND deleted_at IS NULL
	`, deviceColumns)

	rows, err := r.db.QueryContext(ctx, query, models.StateAbsence, models.StatusAbnormal)
	if err != nil {
		return nil, fmt.Errorf("failed to query absent devices: %w", err)
	}
	defer rows.Close()

	devices := []*models.Device{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}

// BulkUpdate 批量写回设备快照和监控状态（单事务）
func (r *DeviceRepository) BulkUpdate(ctx context.Context, devices []*models.Device) error {
	if len(devices) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE devices
		SET device_state = $2,
		    device_status = $3,
		    co2 = $4,
		    temp = $5,
		    humid = $6,
		    sensor_time = $7,
		    co2_monitor_status = $8,
		    temp_monitor_status = $9,
		    heat_stroke_monitor_status = $10,
		    influenza_monitor_status = $11,
		    long_disconnect_monitor_status = $12,
		    long_absence_monitor_status = $13,
		    intruder_monitor_status = $14,
		    updated_at = CURRENT_TIMESTAMP
		WHERE imei = $1
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare device update: %w", err)
	}
	defer stmt.Close()

	for _, device := range devices {
		var sensorTime interface{}
		if device.SensorTime != nil {
			sensorTime = *device.SensorTime
		}
		_, err := stmt.ExecContext(ctx,
			device.IMEI,
			device.DeviceState,
			device.DeviceStatus,
			device.CO2,
			device.Temp,
			device.Humid,
			sensorTime,
			device.CO2MonitorStatus,
			device.TempMonitorStatus,
			device.HeatStrokeMonitorStatus,
			device.InfluenzaMonitorStatus,
			device.LongDisconnectMonitorStatus,
			device.LongAbsenceMonitorStatus,
			device.IntruderMonitorStatus,
		)
		if err != nil {
			return fmt.Errorf("failed to update device %s: %w", device.IMEI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit device updates: %w", err)
	}

	for _, device := range devices {
		device.ClearModified()
	}
	return nil
}

// LoadAlertSettings 查询账户报警配置并挂载到设备
func (r *DeviceRepository) LoadAlertSettings(ctx context.Context, devices []*models.Device) error {
	accountIDs := []int64{}
	for _, device := range devices {
		if device.AccountID != nil {
			accountIDs = append(accountIDs, *device.AccountID)
		}
	}
	if len(accountIDs) == 0 {
		return nil
	}

	query := `
		SELECT
			id,
			account_id,
			co2_email_alert,
			temp_email_alert,
			heat_stroke_email_alert,
			long_disconnect_email_alert,
			intruder_email_alert,
			long_absence_email_alert,
			long_absence_alert_time
		FROM alert_settings
		WHERE account_id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(accountIDs))
	if err != nil {
		return fmt.Errorf("failed to query alert settings: %w", err)
	}
	defer rows.Close()

	settings := map[int64]*models.AlertSetting{}
	for rows.Next() {
		var setting models.AlertSetting
		err := rows.Scan(
			&setting.ID,
			&setting.AccountID,
			&setting.CO2EmailAlert,
			&setting.TempEmailAlert,
			&setting.HeatStrokeEmailAlert,
			&setting.LongDisconnectEmailAlert,
			&setting.IntruderEmailAlert,
			&setting.LongAbsenceEmailAlert,
			&setting.LongAbsenceAlertTime,
		)
		if err != nil {
			return fmt.Errorf("failed to scan alert setting: %w", err)
		}
		settings[setting.AccountID] = &setting
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate alert settings: %w", err)
	}

	for _, device := range devices {
		if device.AccountID != nil {
			device.AlertSetting = settings[*device.AccountID]
		}
	}
	return nil
}
