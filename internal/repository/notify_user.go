package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"gateway-monitor/internal/models"
)

// NotifyUserRepository 报警通知收件人仓库
type NotifyUserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotifyUserRepository 创建收件人仓库
func NewNotifyUserRepository(db *sql.DB, logger *zap.Logger) *NotifyUserRepository {
	return &NotifyUserRepository{
		db:     db,
		logger: logger,
	}
}

// ListByAccounts 按账户查询收件人，空邮箱记录跳过
func (r *NotifyUserRepository) ListByAccounts(ctx context.Context, accountIDs []int64) (map[int64][]models.NotifyUser, error) {
	if len(accountIDs) == 0 {
		return map[int64][]models.NotifyUser{}, nil
	}

	query := `
		SELECT id, account_id, notify_user_name, notify_user_email
		FROM notify_users
		WHERE account_id = ANY($1)
		  AND notify_user_email IS NOT NULL
		  AND notify_user_email <> ''
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(accountIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query notify users: %w", err)
	}
	defer rows.Close()

	users := map[int64][]models.NotifyUser{}
	for rows.Next() {
		var u models.NotifyUser
		var name sql.NullString
		if err := rows.Scan(&u.ID, &u.AccountID, &name, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan notify user: %w", err)
		}
		u.Name = name.String
		users[u.AccountID] = append(users[u.AccountID], u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notify users: %w", err)
	}
	return users, nil
}
