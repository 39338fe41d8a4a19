package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gateway-monitor/internal/models"
)

func setupMockDeviceDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *DeviceRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewDeviceRepository(db, zap.NewNop())
	return db, mock, repo
}

func deviceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"imei", "account_id", "device_name", "device_state", "device_status", "is_push",
		"co2", "temp", "humid", "sensor_time",
		"co2_monitor_status", "temp_monitor_status", "heat_stroke_monitor_status",
		"influenza_monitor_status", "long_disconnect_monitor_status",
		"long_absence_monitor_status", "intruder_monitor_status",
	})
}

func TestListByIMEI(t *testing.T) {
	db, mock, repo := setupMockDeviceDB(t)
	defer db.Close()

	sensorTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := deviceRows().AddRow(
		"860000000000001", 100, "リビング", 1, 4, 1,
		800, 26.5, 55, sensorTime,
		1, 1, 1, 1, 1, 4, 4,
	).AddRow(
		"860000000000002", nil, "寝室", 2, 3, 0,
		600, 24.0, 50, nil,
		4, 4, 4, 4, 4, 4, 4,
	)
	mock.ExpectQuery(`SELECT(.|\n)*FROM devices`).WillReturnRows(rows)

	devices, err := repo.ListByIMEI(context.Background(), []string{"860000000000001", "860000000000002"})

	require.NoError(t, err)
	require.Len(t, devices, 2)

	first := devices[0]
	assert.Equal(t, "860000000000001", first.IMEI)
	require.NotNil(t, first.AccountID)
	assert.Equal(t, int64(100), *first.AccountID)
	assert.Equal(t, models.StateMonitoring, first.DeviceState)
	assert.Equal(t, models.DeviceOnline, first.DeviceStatus)
	assert.Equal(t, 800, first.CO2)
	assert.Equal(t, 26.5, first.Temp)
	require.NotNil(t, first.SensorTime)
	assert.False(t, first.Modified())

	second := devices[1]
	assert.Nil(t, second.AccountID)
	assert.Nil(t, second.SensorTime)
	assert.Equal(t, models.StatusUnknown, second.CO2MonitorStatus)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByIMEI_Empty(t *testing.T) {
	db, mock, repo := setupMockDeviceDB(t)
	defer db.Close()

	devices, err := repo.ListByIMEI(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, devices)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdate_ClearsModified(t *testing.T) {
	db, mock, repo := setupMockDeviceDB(t)
	defer db.Close()

	d := &models.Device{IMEI: "860000000000001"}
	d.SetMonitorStatusFor(models.CaseCO2, models.StatusWarning)
	require.True(t, d.Modified())

	mock.ExpectBegin()
	update := mock.ExpectPrepare(`UPDATE devices`)
	update.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.BulkUpdate(context.Background(), []*models.Device{d})

	require.NoError(t, err)
	assert.False(t, d.Modified())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpdate_RollbackOnError(t *testing.T) {
	db, mock, repo := setupMockDeviceDB(t)
	defer db.Close()

	d := &models.Device{IMEI: "860000000000001"}
	d.SetMonitorStatusFor(models.CaseCO2, models.StatusWarning)

	mock.ExpectBegin()
	update := mock.ExpectPrepare(`UPDATE devices`)
	update.ExpectExec().WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.BulkUpdate(context.Background(), []*models.Device{d})

	require.Error(t, err)
	// 失败时脏标记保留，下一轮还能重试
	assert.True(t, d.Modified())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadAlertSettings(t *testing.T) {
	db, mock, repo := setupMockDeviceDB(t)
	defer db.Close()

	account := int64(100)
	d := &models.Device{IMEI: "860000000000001", AccountID: &account}
	orphan := &models.Device{IMEI: "860000000000002"}

	rows := sqlmock.NewRows([]string{
		"id", "account_id", "co2_email_alert", "temp_email_alert", "heat_stroke_email_alert",
		"long_disconnect_email_alert", "intruder_email_alert", "long_absence_email_alert",
		"long_absence_alert_time",
	}).AddRow(1, 100, 1, 0, 1, 1, 1, 1, 72)
	mock.ExpectQuery(`SELECT(.|\n)*FROM alert_settings`).WillReturnRows(rows)

	err := repo.LoadAlertSettings(context.Background(), []*models.Device{d, orphan})

	require.NoError(t, err)
	require.NotNil(t, d.AlertSetting)
	assert.True(t, d.AlertSetting.IsEmailAlertEnabled(models.CaseCO2))
	assert.False(t, d.AlertSetting.IsEmailAlertEnabled(models.CaseTemperature))
	assert.Equal(t, 72, d.AbsenceAlertTime())
	assert.Nil(t, orphan.AlertSetting)
	assert.Equal(t, models.DefaultAbsenceAlertTime, orphan.AbsenceAlertTime())

	require.NoError(t, mock.ExpectationsWereMet())
}
