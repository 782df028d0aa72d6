package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/threshold"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action 一次评估产生的副作用
type Action string

const (
	ActionNone    Action = "none"
	ActionSendOn  Action = "send_on"  // 发布 {W1:1} 触发执行器
	ActionSendOff Action = "send_off" // 发布 {W2:1} 解除执行器
)

// CommandPublisher 控制指令发布接口（由 session.Session 实现）
type CommandPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	ClientID() string
}

// EventRecorder 报警事件持久化接口（由 repository.AlertEventsRepository 实现）
type EventRecorder interface {
	CreateAlertEvent(ctx context.Context, event *models.AlertEvent) error
	CloseActiveEvents(ctx context.Context, motorID string, clearedAt time.Time) (int64, error)
}

// AlertState 单台电机的报警状态（只由本评估步骤修改）
// Latched == true 意味着已经发出 ON 且还没有发出对应的 OFF
type AlertState struct {
	LastAlertAt time.Time
	Latched     bool
}

// Options 调度器配置
type Options struct {
	Table           *threshold.Table
	HealthThreshold float64 // 健康指数低于此值按 Critical 处理
	Cooldown        time.Duration
	CommandTopic    string
	QoS             byte
}

// Dispatcher 报警调度器
// 对每台电机维护闭锁 + 冷却窗口，保证不重复触发、不抖动
type Dispatcher struct {
	opts      Options
	publisher CommandPublisher
	events    EventRecorder // 可以为 nil（不持久化）
	logger    *zap.Logger
	now       func() time.Time // 可注入时钟，冷却逻辑可确定性测试

	mu     sync.Mutex
	states map[string]*AlertState
}

// New 创建报警调度器
func New(opts Options, publisher CommandPublisher, events EventRecorder, logger *zap.Logger) *Dispatcher {
	if opts.Table == nil {
		opts.Table = threshold.DefaultTable()
	}
	return &Dispatcher{
		opts:      opts,
		publisher: publisher,
		events:    events,
		logger:    logger,
		now:       time.Now,
		states:    make(map[string]*AlertState),
	}
}

// Evaluate 评估一条读数并执行相应动作
// 返回执行的动作和触发报警的最严重参数（仅 SendOn 时非 nil）。
// 发布失败时报警状态保持不变，下一个评估周期会重试，返回错误供调用方记录
func (d *Dispatcher) Evaluate(ctx context.Context, reading *models.SensorReading) (Action, *models.ParameterStatus, error) {
	if reading == nil || reading.MotorID == "" {
		return ActionNone, nil, fmt.Errorf("invalid reading: missing motor_id")
	}

	statuses := threshold.EvaluateReading(reading, d.opts.Table)

	healthScore := threshold.HealthIndex(reading, d.opts.Table)
	if reading.HealthIndex != nil {
		healthScore = *reading.HealthIndex
	}

	// 最严重参数的判定顺序：健康指数优先，然后按固定评估顺序取第一个 Critical
	var worst *models.ParameterStatus
	if healthScore < d.opts.HealthThreshold {
		worst = &models.ParameterStatus{
			Parameter: models.ParamHealthIndex,
			Value:     healthScore,
			Level:     models.StatusCritical,
		}
	} else {
		for i := range statuses {
			if statuses[i].Level == models.StatusCritical {
				worst = &statuses[i]
				break
			}
		}
	}

	// 闭锁判定与对应的状态写入必须是同一个临界区，
	// 否则交错的评估会产生重复的 ON 指令
	d.mu.Lock()
	defer d.mu.Unlock()

	state, ok := d.states[reading.MotorID]
	if !ok {
		state = &AlertState{}
		d.states[reading.MotorID] = state
	}

	now := d.now()

	if worst != nil {
		if state.Latched {
			// 已经闭锁，抑制重复 ON
			return ActionNone, nil, nil
		}
		if !state.LastAlertAt.IsZero() && now.Sub(state.LastAlertAt) < d.opts.Cooldown {
			// 冷却窗口内，限流
			return ActionNone, nil, nil
		}

		if err := d.publishCommand(models.ControlCommand{W1: 1, Timestamp: now.Unix(), Source: d.publisher.ClientID()}); err != nil {
			return ActionSendOn, worst, fmt.Errorf("failed to send ON command: %w", err)
		}

		state.Latched = true
		state.LastAlertAt = now

		d.logger.Info("Alarm ON dispatched",
			zap.String("motor_id", reading.MotorID),
			zap.String("parameter", worst.Parameter),
			zap.Float64("value", worst.Value),
			zap.Float64("health_score", healthScore),
		)

		d.recordAlertOn(ctx, reading, worst, healthScore, now)
		return ActionSendOn, worst, nil
	}

	if state.Latched {
		if err := d.publishCommand(models.ControlCommand{W2: 1, Timestamp: now.Unix(), Source: d.publisher.ClientID()}); err != nil {
			return ActionSendOff, nil, fmt.Errorf("failed to send OFF command: %w", err)
		}

		state.Latched = false

		d.logger.Info("Alarm OFF dispatched",
			zap.String("motor_id", reading.MotorID),
			zap.Float64("health_score", healthScore),
		)

		if d.events != nil {
			if _, err := d.events.CloseActiveEvents(ctx, reading.MotorID, now); err != nil {
				d.logger.Error("Failed to close active alert events",
					zap.String("motor_id", reading.MotorID),
					zap.Error(err),
				)
			}
		}
		return ActionSendOff, nil, nil
	}

	return ActionNone, nil, nil
}

// publishCommand 序列化并发布控制指令
func (d *Dispatcher) publishCommand(cmd models.ControlCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal control command: %w", err)
	}
	return d.publisher.Publish(d.opts.CommandTopic, d.opts.QoS, false, payload)
}

// recordAlertOn 持久化报警事件（失败只记录日志，不影响报警状态）
func (d *Dispatcher) recordAlertOn(ctx context.Context, reading *models.SensorReading, worst *models.ParameterStatus, healthScore float64, now time.Time) {
	if d.events == nil {
		return
	}

	snapshot, err := json.Marshal(reading)
	if err != nil {
		snapshot = []byte("{}")
	}

	event := &models.AlertEvent{
		EventID:        uuid.NewString(),
		MotorID:        reading.MotorID,
		EventType:      "threshold_alarm",
		AlarmLevel:     "CRIT",
		AlarmStatus:    "active",
		Parameter:      worst.Parameter,
		ParameterValue: worst.Value,
		HealthScore:    healthScore,
		TriggeredAt:    now,
		TriggerData:    string(snapshot),
	}

	if err := d.events.CreateAlertEvent(ctx, event); err != nil {
		d.logger.Error("Failed to create alert event",
			zap.String("event_id", event.EventID),
			zap.String("motor_id", reading.MotorID),
			zap.Error(err),
		)
	}
}

// ResetState 清除指定电机的报警状态（维护操作后手工复位用）
func (d *Dispatcher) ResetState(motorID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.states, motorID)
}
