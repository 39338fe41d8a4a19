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

// StatisticRepository 传感器统计仓库
type StatisticRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatisticRepository 创建统计仓库
func NewStatisticRepository(db *sql.DB, logger *zap.Logger) *StatisticRepository {
	return &StatisticRepository{
		db:     db,
		logger: logger,
	}
}

func scanStatistic(scanner interface{ Scan(dest ...interface{}) error }) (*models.Statistic, error) {
	var stat models.Statistic
	var co2Diff sql.NullInt64

	err := scanner.Scan(
		&stat.ID,
		&stat.IMEI,
		&stat.SensorTime,
		&stat.CO2,
		&stat.Temp,
		&stat.Humid,
		&co2Diff,
	)
	if err != nil {
		return nil, err
	}
	if co2Diff.Valid {
		v := int(co2Diff.Int64)
		stat.CO2Diff = &v
	}
	return &stat, nil
}

// GroupByIMEI 查询时间窗口 [since, until) 内的统计记录并按 IMEI 分组
// 窗口内没有记录的设备不会出现在结果里。
func (r *StatisticRepository) GroupByIMEI(ctx context.Context, imeis []string, since, until time.Time) (map[string][]*models.Statistic, error) {
	if len(imeis) == 0 {
		return map[string][]*models.Statistic{}, nil
	}

	query := `
		SELECT id, imei, sensor_time, co2, temp, humid, co2_diff
		FROM statistics
		WHERE imei = ANY($1)
		  AND sensor_time >= $2
		  AND sensor_time < $3
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(imeis), since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	groups := map[string][]*models.Statistic{}
	for rows.Next() {
		stat, err := scanStatistic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statistic: %w", err)
		}
		groups[stat.IMEI] = append(groups[stat.IMEI], stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate statistics: %w", err)
	}
	return groups, nil
}

// LoadLastStatistics 查询每台设备的最新统计记录并挂载到设备
func (r *StatisticRepository) LoadLastStatistics(ctx context.Context, devices []*models.Device) error {
	if len(devices) == 0 {
		return nil
	}
	imeis := make([]string, 0, len(devices))
	mapping := make(map[string]*models.Device, len(devices))
	for _, device := range devices {
		imeis = append(imeis, device.IMEI)
		mapping[device.IMEI] = device
	}

	query := `
		SELECT DISTINCT ON (imei)
			id, imei, sensor_time, co2, temp, humid, co2_diff
		FROM statistics
		WHERE imei = ANY($1)
		ORDER BY imei, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(imeis))
	if err != nil {
		return fmt.Errorf("failed to query last statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		stat, err := scanStatistic(rows)
		if err != nil {
			return fmt.Errorf("failed to scan statistic: %w", err)
		}
		if device := mapping[stat.IMEI]; device != nil {
			device.LastStatistic = stat
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate statistics: %w", err)
	}
	return nil
}

// CO2DiffCount abs(co2_diff) 低于阈值的记录数统计结果
type CO2DiffCount struct {
	Match int
	Total int
}

// CountCO2DiffBelow 统计窗口内 abs(co2_diff) < threshold 的记录数和总记录数
// co2_diff 为空的记录不参与统计。
func (r *StatisticRepository) CountCO2DiffBelow(ctx context.Context, imeis []string, since, until time.Time, threshold int) (map[string]CO2DiffCount, error) {
	if len(imeis) == 0 {
		return map[string]CO2DiffCount{}, nil
	}

	query := `
		SELECT
			imei,
			COUNT(*) FILTER (WHERE ABS(co2_diff) < $4) AS match_count,
			COUNT(*) AS total_count
		FROM statistics
		WHERE imei = ANY($1)
		  AND sensor_time >= $2
		  AND sensor_time < $3
		  AND co2_diff IS NOT NULL
		GROUP BY imei
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(imeis), since, until, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to count co2_diff statistics: %w", err)
	}
	defer rows.Close()

	counts := map[string]CO2DiffCount{}
	for rows.Next() {
		var imei string
		var count CO2DiffCount
		if err := rows.Scan(&imei, &count.Match, &count.Total); err != nil {
			return nil, fmt.Errorf("failed to scan co2_diff count: %w", err)
		}
		counts[imei] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate co2_diff counts: %w", err)
	}
	return counts, nil
}

// BulkInsert 批量写入统计记录（单事务）
func (r *StatisticRepository) BulkInsert(ctx context.Context, statistics []*models.Statistic) error {
	if len(statistics) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO statistics (imei, sensor_time, co2, temp, humid, co2_diff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statistic insert: %w", err)
	}
	defer stmt.Close()

	for _, stat := range statistics {
		var co2Diff interface{}
		if stat.CO2Diff != nil {
			co2Diff = *stat.CO2Diff
		}
		err := stmt.QueryRowContext(ctx,
			stat.IMEI,
			stat.SensorTime,
			stat.CO2,
			stat.Temp,
			stat.Humid,
			co2Diff,
		).Scan(&stat.ID)
		if err != nil {
			return fmt.Errorf("failed to insert statistic for %s: %w", stat.IMEI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit statistic inserts: %w", err)
	}
	return nil
}

// DeleteExpired 清理过期统计记录
func (r *StatisticRepository) DeleteExpired(ctx context.Context, expiredDays int) (int64, error) {
	expiredTime := time.Now().UTC().AddDate(0, 0, -expiredDays)

	result, err := r.db.ExecContext(ctx, `DELETE FROM statistics WHERE sensor_time <= $1`, expiredTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired statistics: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
