package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gateway-monitor/internal/config"
	"gateway-monitor/internal/models"
	"gateway-monitor/internal/repository"
)

func setupScheduler(t *testing.T) (*Scheduler, *miniredis.Miniredis, sqlmock.Sqlmock) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Monitor.DisconnectStream = "monitor:disconnect"
	cfg.Monitor.IntruderStream = "monitor:intruder"
	cfg.Scheduler.OfflineThreshold = 10 * time.Minute
	cfg.Scheduler.RetentionDays = 7

	logger := zap.NewNop()
	s := New(cfg, client,
		repository.NewDeviceRepository(db, logger),
		repository.NewStatisticRepository(db, logger),
		logger)
	return s, mr, mock
}

func schedulerDeviceRow(imei string, deviceStatus int) *sqlmock.Rows {
	sensorTime := time.Now().UTC().Add(-time.Hour)
	return sqlmock.NewRows([]string{
		"imei", "account_id", "device_name", "device_state", "device_status", "is_push",
		"co2", "temp", "humid", "sensor_time",
		"co2_monitor_status", "temp_monitor_status", "heat_stroke_monitor_status",
		"influenza_monitor_status", "long_disconnect_monitor_status",
		"long_absence_monitor_status", "intruder_monitor_status",
	}).AddRow(imei, 100, "リビング", 2, deviceStatus, 1, 600, 25.0, 50, sensorTime, 1, 1, 1, 1, 1, 4, 3)
}

func readBatch(t *testing.T, mr *miniredis.Miniredis, stream string) models.MonitorBatch {
	t.Helper()
	entries, err := mr.Stream(stream)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var batch models.MonitorBatch
	values := entries[0].Values
	for i := 0; i+1 < len(values); i += 2 {
		if values[i] == "data" {
			require.NoError(t, json.Unmarshal([]byte(values[i+1]), &batch))
			return batch
		}
	}
	t.Fatal("data field not found in stream entry")
	return batch
}

func TestScanOffline(t *testing.T) {
	s, mr, mock := setupScheduler(t)

	// 设备当前在线，扫描后标记离线并触发批处理
	mock.ExpectQuery(`SELECT(.|\n)*FROM devices`).
		WillReturnRows(schedulerDeviceRow("860000000000001", 4))
	mock.ExpectBegin()
	update := mock.ExpectPrepare(`UPDATE devices`)
	update.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.ScanOffline(context.Background()))

	batch := readBatch(t, mr, "monitor:disconnect")
	assert.NotEmpty(t, batch.BatchID)
	assert.Equal(t, []string{"860000000000001"}, batch.IMEIs)

	entries, err := mr.Stream("monitor:disconnect")
	require.NoError(t, err)
	found := false
	values := entries[0].Values
	for i := 0; i+1 < len(values); i += 2 {
		if values[i] == models.DeviceStatusAttribute {
			assert.Equal(t, "3", values[i+1])
			found = true
		}
	}
	assert.True(t, found, "offline batch attribute missing")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanOffline_AlreadyOffline(t *testing.T) {
	s, mr, mock := setupScheduler(t)

	// 已经是离线状态的设备不再写库，但仍触发批处理
	mock.ExpectQuery(`SELECT(.|\n)*FROM devices`).
		WillReturnRows(schedulerDeviceRow("860000000000001", 3))

	require.NoError(t, s.ScanOffline(context.Background()))

	batch := readBatch(t, mr, "monitor:disconnect")
	assert.Equal(t, []string{"860000000000001"}, batch.IMEIs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanOffline_NoDevices(t *testing.T) {
	s, mr, mock := setupScheduler(t)

	// 查询结果为空时不发布任何消息
	mock.ExpectQuery(`SELECT(.|\n)*FROM devices`).
		WillReturnRows(sqlmock.NewRows([]string{
			"imei", "account_id", "device_name", "device_state", "device_status", "is_push",
			"co2", "temp", "humid", "sensor_time",
			"co2_monitor_status", "temp_monitor_status", "heat_stroke_monitor_status",
			"influenza_monitor_status", "long_disconnect_monitor_status",
			"long_absence_monitor_status", "intruder_monitor_status",
		}))

	require.NoError(t, s.ScanOffline(context.Background()))
	_, err := mr.Stream("monitor:disconnect")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanAbsentAbnormal(t *testing.T) {
	s, mr, mock := setupScheduler(t)

	mock.ExpectQuery(`SELECT(.|\n)*FROM devices`).
		WillReturnRows(schedulerDeviceRow("860000000000001", 4))

	require.NoError(t, s.ScanAbsentAbnormal(context.Background()))

	batch := readBatch(t, mr, "monitor:intruder")
	assert.Equal(t, []string{"860000000000001"}, batch.IMEIs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneStatistics(t *testing.T) {
	s, _, mock := setupScheduler(t)

	mock.ExpectExec(`DELETE FROM statistics`).
		WillReturnResult(sqlmock.NewResult(0, 12))

	require.NoError(t, s.PruneStatistics(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
