package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockAlertEventsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AlertEventsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewAlertEventsRepository(db, logger)

	return db, mock, repo
}

func TestCreateAlertEvent_Success(t *testing.T) {
	db, mock, repo := setupMockAlertEventsDB(t)
	defer db.Close()

	event := &models.AlertEvent{
		EventID:        uuid.New().String(),
		MotorID:        "motor-1",
		EventType:      "threshold_alarm",
		AlarmLevel:     "CRIT",
		AlarmStatus:    "active",
		Parameter:      "vibration_rms",
		ParameterValue: 5.0,
		HealthScore:    65,
		TriggeredAt:    time.Now(),
		TriggerData:    `{"vibration_rms":5.0}`,
	}

	mock.ExpectExec(`INSERT INTO alert_events`).
		WithArgs(
			event.EventID,
			event.MotorID,
			event.EventType,
			event.AlarmLevel,
			event.AlarmStatus,
			event.Parameter,
			event.ParameterValue,
			event.HealthScore,
			event.TriggeredAt,
			event.TriggerData,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateAlertEvent(context.Background(), event)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAlertEvent_EmptyTriggerDataDefaults(t *testing.T) {
	db, mock, repo := setupMockAlertEventsDB(t)
	defer db.Close()

	event := &models.AlertEvent{
		EventID:     uuid.New().String(),
		MotorID:     "motor-1",
		EventType:   "threshold_alarm",
		AlarmLevel:  "CRIT",
		AlarmStatus: "active",
		Parameter:   "bearing_temp",
		TriggeredAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO alert_events`).
		WithArgs(
			event.EventID,
			event.MotorID,
			event.EventType,
			event.AlarmLevel,
			event.AlarmStatus,
			event.Parameter,
			event.ParameterValue,
			event.HealthScore,
			event.TriggeredAt,
			"{}",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateAlertEvent(context.Background(), event)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAlertEvent_MissingRequiredFields(t *testing.T) {
	db, _, repo := setupMockAlertEventsDB(t)
	defer db.Close()

	err := repo.CreateAlertEvent(context.Background(), &models.AlertEvent{MotorID: "motor-1"})
	assert.Error(t, err)

	err = repo.CreateAlertEvent(context.Background(), &models.AlertEvent{EventID: uuid.New().String()})
	assert.Error(t, err)
}

func TestCloseActiveEvents_Success(t *testing.T) {
	db, mock, repo := setupMockAlertEventsDB(t)
	defer db.Close()

	clearedAt := time.Now()

	mock.ExpectExec(`UPDATE alert_events`).
		WithArgs("motor-1", clearedAt).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.CloseActiveEvents(context.Background(), "motor-1", clearedAt)

	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseActiveEvents_DatabaseError(t *testing.T) {
	db, mock, repo := setupMockAlertEventsDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE alert_events`).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.CloseActiveEvents(context.Background(), "motor-1", time.Now())

	assert.Error(t, err)
}

func TestListAlertEvents_WithFilters(t *testing.T) {
	db, mock, repo := setupMockAlertEventsDB(t)
	defer db.Close()

	eventID := uuid.New().String()
	triggeredAt := time.Now()
	clearedAt := triggeredAt.Add(time.Minute)

	rows := sqlmock.NewRows([]string{
		"event_id", "motor_id", "event_type", "alarm_level", "alarm_status",
		"parameter", "parameter_value", "health_score", "triggered_at",
		"cleared_at", "trigger_data", "created_at", "updated_at",
	}).AddRow(
		eventID, "motor-1", "threshold_alarm", "CRIT", "cleared",
		"vibration_rms", 5.0, 65.0, triggeredAt,
		clearedAt, `{"vibration_rms":5.0}`, triggeredAt, clearedAt,
	)

	motorID := "motor-1"
	status := "cleared"

	mock.ExpectQuery(`SELECT`).
		WithArgs(motorID, status).
		WillReturnRows(rows)

	events, err := repo.ListAlertEvents(context.Background(), AlertEventFilters{
		MotorID:     &motorID,
		AlarmStatus: &status,
	})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventID, events[0].EventID)
	assert.Equal(t, "motor-1", events[0].MotorID)
	assert.Equal(t, "vibration_rms", events[0].Parameter)
	assert.Equal(t, 5.0, events[0].ParameterValue)
	require.NotNil(t, events[0].ClearedAt)
	assert.WithinDuration(t, clearedAt, *events[0].ClearedAt, time.Second)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAlertEvents_Empty(t *testing.T) {
	db, mock, repo := setupMockAlertEventsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"event_id", "motor_id", "event_type", "alarm_level", "alarm_status",
		"parameter", "parameter_value", "health_score", "triggered_at",
		"cleared_at", "trigger_data", "created_at", "updated_at",
	})

	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	events, err := repo.ListAlertEvents(context.Background(), AlertEventFilters{})

	require.NoError(t, err)
	assert.Empty(t, events)
}
