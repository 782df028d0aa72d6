package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"

	"go.uber.org/zap"
)

// AlertEventsRepository 报警事件仓库（alert_events 表）
type AlertEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertEventsRepository 创建报警事件仓库
func NewAlertEventsRepository(db *sql.DB, logger *zap.Logger) *AlertEventsRepository {
	return &AlertEventsRepository{
		db:     db,
		logger: logger,
	}
}

// AlertEventFilters 报警事件过滤条件
type AlertEventFilters struct {
	MotorID     *string    // 电机ID
	AlarmStatus *string    // 报警状态（active, cleared）
	Parameter   *string    // 触发参数
	StartTime   *time.Time // triggered_at >= StartTime
	EndTime     *time.Time // triggered_at <= EndTime
	Limit       int        // 0 表示不限制
}

// CreateAlertEvent 写入报警事件
func (r *AlertEventsRepository) CreateAlertEvent(ctx context.Context, event *models.AlertEvent) error {
	if event.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if event.MotorID == "" {
		return fmt.Errorf("motor_id is required")
	}

	query := `
		INSERT INTO alert_events (
			event_id,
			motor_id,
			event_type,
			alarm_level,
			alarm_status,
			parameter,
			parameter_value,
			health_score,
			triggered_at,
			trigger_data,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`

	triggerData := event.TriggerData
	if triggerData == "" {
		triggerData = "{}"
	}

	_, err := r.db.ExecContext(ctx, query,
		event.EventID,
		event.MotorID,
		event.EventType,
		event.AlarmLevel,
		event.AlarmStatus,
		event.Parameter,
		event.ParameterValue,
		event.HealthScore,
		event.TriggeredAt,
		triggerData,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert event: %w", err)
	}

	r.logger.Debug("Alert event created",
		zap.String("event_id", event.EventID),
		zap.String("motor_id", event.MotorID),
		zap.String("parameter", event.Parameter),
	)

	return nil
}

// CloseActiveEvents 把指定电机的所有 active 事件置为 cleared
// 返回受影响的行数
func (r *AlertEventsRepository) CloseActiveEvents(ctx context.Context, motorID string, clearedAt time.Time) (int64, error) {
	if motorID == "" {
		return 0, fmt.Errorf("motor_id is required")
	}

	query := `
		UPDATE alert_events
		SET alarm_status = 'cleared',
		    cleared_at = $2,
		    updated_at = NOW()
		WHERE motor_id = $1
		  AND alarm_status = 'active'
	`

	result, err := r.db.ExecContext(ctx, query, motorID, clearedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to close active events: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected, nil
}

// ListAlertEvents 按过滤条件查询报警事件（按触发时间倒序）
func (r *AlertEventsRepository) ListAlertEvents(ctx context.Context, filters AlertEventFilters) ([]models.AlertEvent, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	addCondition := func(expr string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(expr, argIdx))
		args = append(args, value)
		argIdx++
	}

	if filters.MotorID != nil {
		addCondition("motor_id = $%d", *filters.MotorID)
	}
	if filters.AlarmStatus != nil {
		addCondition("alarm_status = $%d", *filters.AlarmStatus)
	}
	if filters.Parameter != nil {
		addCondition("parameter = $%d", *filters.Parameter)
	}
	if filters.StartTime != nil {
		addCondition("triggered_at >= $%d", *filters.StartTime)
	}
	if filters.EndTime != nil {
		addCondition("triggered_at <= $%d", *filters.EndTime)
	}

	query := `
		SELECT
			event_id,
			motor_id,
			event_type,
			alarm_level,
			alarm_status,
			parameter,
			parameter_value,
			health_score,
			triggered_at,
			cleared_at,
			trigger_data,
			created_at,
			updated_at
		FROM alert_events
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY triggered_at DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert events: %w", err)
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var event models.AlertEvent
		var clearedAt sql.NullTime

		err := rows.Scan(
			&event.EventID,
			&event.MotorID,
			&event.EventType,
			&event.AlarmLevel,
			&event.AlarmStatus,
			&event.Parameter,
			&event.ParameterValue,
			&event.HealthScore,
			&event.TriggeredAt,
			&clearedAt,
			&event.TriggerData,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}

		if clearedAt.Valid {
			event.ClearedAt = &clearedAt.Time
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert events: %w", err)
	}

	return events, nil
}
