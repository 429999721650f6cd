package errors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConditionNotMet 条件更新未命中任何行：记录状态已被其他操作改变
var ErrConditionNotMet = errors.New("记录状态已被其他操作修改")

// IsUniqueViolation 判断是否为唯一约束冲突（Postgres 23505 / SQLite UNIQUE constraint）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
