package health

import (
	"context"
	"sync"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/predictor"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/threshold"

	"go.uber.org/zap"
)

// FailurePredictor 远程预测接口（由 predictor.Client 实现）
type FailurePredictor interface {
	Predict(ctx context.Context, readings []predictor.Reading) (*models.FailurePrediction, error)
}

// Assessor 健康评估器
// 公式得分（阈值扣分）永远可用；远程预测不可用时置 degraded 标志，
// 评估结果仍然有效，绝不因为预测服务挂了而评估失败
type Assessor struct {
	table     *threshold.Table
	predictor FailurePredictor // 可以为 nil（纯公式模式）
	window    int              // 每次预测携带的振动读数条数
	logger    *zap.Logger

	mu      sync.Mutex
	history map[string][]predictor.Reading // motorID → 最近的振动读数
}

// NewAssessor 创建健康评估器
func NewAssessor(table *threshold.Table, p FailurePredictor, window int, logger *zap.Logger) *Assessor {
	if table == nil {
		table = threshold.DefaultTable()
	}
	if window <= 0 {
		window = 20
	}
	return &Assessor{
		table:     table,
		predictor: p,
		window:    window,
		logger:    logger,
		history:   make(map[string][]predictor.Reading),
	}
}

// Assess 评估一条读数，返回健康评估结果
func (a *Assessor) Assess(ctx context.Context, reading *models.SensorReading) *models.HealthAssessment {
	statuses := threshold.EvaluateReading(reading, a.table)
	score := threshold.HealthIndex(reading, a.table)

	assessment := &models.HealthAssessment{
		MotorID:         reading.MotorID,
		Score:           score,
		Statuses:        statuses,
		PredictorStatus: "ok",
		Timestamp:       time.Now().Unix(),
	}

	samples := a.recordVibration(reading)
	if a.predictor == nil {
		assessment.PredictorStatus = "disabled"
		return assessment
	}
	if len(samples) == 0 {
		// 还没有振动数据可供预测，不算降级
		assessment.PredictorStatus = "no_data"
		return assessment
	}

	prediction, err := a.predictor.Predict(ctx, samples)
	if err != nil {
		// 降级：只用公式得分，继续运行
		assessment.Degraded = true
		assessment.PredictorStatus = "unavailable"
		a.logger.Warn("Predictor unavailable, using formula score only",
			zap.String("motor_id", reading.MotorID),
			zap.Error(err),
		)
		return assessment
	}

	assessment.Prediction = prediction
	return assessment
}

// recordVibration 追加振动读数到滑动窗口，返回窗口快照
func (a *Assessor) recordVibration(reading *models.SensorReading) []predictor.Reading {
	if reading.VibrationRMS == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		return append([]predictor.Reading(nil), a.history[reading.MotorID]...)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	samples := append(a.history[reading.MotorID], predictor.Reading{
		VibrationRMS: *reading.VibrationRMS,
		Timestamp:    reading.Timestamp,
	})
	if len(samples) > a.window {
		samples = samples[len(samples)-a.window:]
	}
	a.history[reading.MotorID] = samples

	return append([]predictor.Reading(nil), samples...)
}
