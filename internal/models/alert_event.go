package models

import (
	"time"
)

// AlertEvent 报警事件（对应 alert_events 表）
type AlertEvent struct {
	EventID        string     `json:"event_id" db:"event_id"`
	MotorID        string     `json:"motor_id" db:"motor_id"`
	EventType      string     `json:"event_type" db:"event_type"`     // threshold_alarm
	AlarmLevel     string     `json:"alarm_level" db:"alarm_level"`   // CRIT, WARNING
	AlarmStatus    string     `json:"alarm_status" db:"alarm_status"` // active, cleared
	Parameter      string     `json:"parameter" db:"parameter"`       // 触发报警的最严重参数
	ParameterValue float64    `json:"parameter_value" db:"parameter_value"`
	HealthScore    float64    `json:"health_score" db:"health_score"`
	TriggeredAt    time.Time  `json:"triggered_at" db:"triggered_at"`
	ClearedAt      *time.Time `json:"cleared_at,omitempty" db:"cleared_at"`
	TriggerData    string     `json:"trigger_data" db:"trigger_data"` // JSONB，触发时的读数快照
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// HealthAssessment 健康评估结果（写回 Redis，供展示层读取）
type HealthAssessment struct {
	MotorID         string             `json:"motor_id"`
	Score           float64            `json:"score"` // 0-100，基于阈值扣分的公式得分
	Statuses        []ParameterStatus  `json:"statuses"`
	Degraded        bool               `json:"degraded"`         // 远程预测服务不可用时为 true
	PredictorStatus string             `json:"predictor_status"` // ok, unavailable
	Prediction      *FailurePrediction `json:"prediction,omitempty"`
	Timestamp       int64              `json:"timestamp"`
}

// FailurePrediction 远程预测服务返回的故障预测
type FailurePrediction struct {
	WillFailSoon       bool    `json:"will_fail_soon"`
	FailureProbability float64 `json:"failure_probability"`
	Confidence         float64 `json:"confidence"`
	ThresholdMinutes   float64 `json:"threshold_minutes"`
	MinutesToFailure   float64 `json:"minutes_to_failure"`
	HoursToFailure     float64 `json:"hours_to_failure"`
	Status             string  `json:"status"`
	ReadingsUsed       int     `json:"readings_used"`
}
