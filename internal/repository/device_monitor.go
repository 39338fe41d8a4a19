package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gateway-monitor/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DeviceMonitorRepository 监控事件仓库
type DeviceMonitorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeviceMonitorRepository 创建监控事件仓库
func NewDeviceMonitorRepository(db *sql.DB, logger *zap.Logger) *DeviceMonitorRepository {
	return &DeviceMonitorRepository{
		db:     db,
		logger: logger,
	}
}

// BulkInsert 批量写入监控事件（单事务），回填自增 ID
func (r *DeviceMonitorRepository) BulkInsert(ctx context.Context, monitors []*models.DeviceMonitor) error {
	if len(monitors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO device_monitors (imei, occurred_at, monitor_case, monitor_status, message, message_detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare device_monitor insert: %w", err)
	}
	defer stmt.Close()

	for _, monitor := range monitors {
		err := stmt.QueryRowContext(ctx,
			monitor.IMEI,
			monitor.OccurredAt,
			monitor.MonitorCase,
			monitor.MonitorStatus,
			monitor.Message,
			monitor.MessageDetail,
		).Scan(&monitor.ID)
		if err != nil {
			return fmt.Errorf("failed to insert device_monitor for %s: %w", monitor.IMEI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit device_monitor inserts: %w", err)
	}
	return nil
}

// LastForCase 查询每台设备指定事件类型的最新一条监控事件
// 没有记录的设备不会出现在结果里。
func (r *DeviceMonitorRepository) LastForCase(ctx context.Context, imeis []string, monitorCase models.MonitorCase) (map[string]*models.DeviceMonitor, error) {
	if len(imeis) == 0 {
		return map[string]*models.DeviceMonitor{}, nil
	}

	query := `
		SELECT DISTINCT ON (imei)
			id, imei, occurred_at, monitor_case, monitor_status, message, message_detail
		FROM device_monitors
		WHERE imei = ANY($1)
		  AND monitor_case = $2
		ORDER BY imei, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(imeis), monitorCase)
	if err != nil {
		return nil, fmt.Errorf("failed to query last device_monitors: %w", err)
	}
	defer rows.Close()

	monitors := map[string]*models.DeviceMonitor{}
	for rows.Next() {
		var monitor models.DeviceMonitor
		var message, messageDetail sql.NullString
		err := rows.Scan(
			&monitor.ID,
			&monitor.IMEI,
			&monitor.OccurredAt,
			&monitor.MonitorCase,
			&monitor.MonitorStatus,
			&message,
			&messageDetail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device_monitor: %w", err)
		}
		if message.Valid {
			monitor.Message = message.String
		}
		if messageDetail.Valid {
			monitor.MessageDetail = messageDetail.String
		}
		monitors[monitor.IMEI] = &monitor
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device_monitors: %w", err)
	}
	return monitors, nil
}
