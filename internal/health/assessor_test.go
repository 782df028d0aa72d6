package health

import (
	"context"
	"errors"
	"testing"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/predictor"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/threshold"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func floatPtr(v float64) *float64 {
	return &v
}

// fakePredictor 按脚本返回预测或错误
type fakePredictor struct {
	prediction *models.FailurePrediction
	err        error
	calls      [][]predictor.Reading
}

func (f *fakePredictor) Predict(_ context.Context, readings []predictor.Reading) (*models.FailurePrediction, error) {
	f.calls = append(f.calls, readings)
	if f.err != nil {
		return nil, f.err
	}
	return f.prediction, nil
}

func testReading(vibration float64) *models.SensorReading {
	return &models.SensorReading{
		MotorID:      "motor-1",
		VibrationRMS: floatPtr(vibration),
		BearingTemp:  floatPtr(72), // Warning，扣 10 分
		Timestamp:    1700000000,
	}
}

func TestAssess_WithPrediction(t *testing.T) {
	fp := &fakePredictor{
		prediction: &models.FailurePrediction{
			WillFailSoon:       true,
			FailureProbability: 0.9,
			Status:             "ok",
		},
	}
	a := NewAssessor(threshold.DefaultTable(), fp, 10, zap.NewNop())

	assessment := a.Assess(context.Background(), testReading(1.0))

	require.NotNil(t, assessment)
	assert.Equal(t, "motor-1", assessment.MotorID)
	assert.Equal(t, 90.0, assessment.Score) // 轴承 Warning -10
	assert.False(t, assessment.Degraded)
	assert.Equal(t, "ok", assessment.PredictorStatus)
	require.NotNil(t, assessment.Prediction)
	assert.True(t, assessment.Prediction.WillFailSoon)
}

func TestAssess_DegradedWhenPredictorUnavailable(t *testing.T) {
	fp := &fakePredictor{err: predictor.ErrUnavailable}
	a := NewAssessor(threshold.DefaultTable(), fp, 10, zap.NewNop())

	assessment := a.Assess(context.Background(), testReading(5.0))

	// 预测不可用时结果依然有效：公式得分照常计算，降级标志置位
	require.NotNil(t, assessment)
	assert.Equal(t, 65.0, assessment.Score) // 振动 Critical -25，轴承 Warning -10
	assert.True(t, assessment.Degraded)
	assert.Equal(t, "unavailable", assessment.PredictorStatus)
	assert.Nil(t, assessment.Prediction)
}

func TestAssess_PredictorDisabled(t *testing.T) {
	a := NewAssessor(threshold.DefaultTable(), nil, 10, zap.NewNop())

	assessment := a.Assess(context.Background(), testReading(1.0))

	assert.False(t, assessment.Degraded)
	assert.Equal(t, "disabled", assessment.PredictorStatus)
}

func TestAssess_NoVibrationData(t *testing.T) {
	fp := &fakePredictor{err: errors.New("should not be called")}
	a := NewAssessor(threshold.DefaultTable(), fp, 10, zap.NewNop())

	reading := &models.SensorReading{
		MotorID:     "motor-1",
		BearingTemp: floatPtr(50),
	}
	assessment := a.Assess(context.Background(), reading)

	assert.False(t, assessment.Degraded)
	assert.Equal(t, "no_data", assessment.PredictorStatus)
	assert.Empty(t, fp.calls)
}

func TestAssess_VibrationWindowIsBounded(t *testing.T) {
	fp := &fakePredictor{prediction: &models.FailurePrediction{Status: "ok"}}
	a := NewAssessor(threshold.DefaultTable(), fp, 3, zap.NewNop())

	for i := 0; i < 5; i++ {
		a.Assess(context.Background(), testReading(float64(i)))
	}

	require.Len(t, fp.calls, 5)
	last := fp.calls[4]
	require.Len(t, last, 3)
	// 窗口里是最近的 3 条
	assert.Equal(t, 2.0, last[0].VibrationRMS)
	assert.Equal(t, 4.0, last[2].VibrationRMS)
}

func TestAssess_StatusesIncluded(t *testing.T) {
	a := NewAssessor(threshold.DefaultTable(), nil, 10, zap.NewNop())

	assessment := a.Assess(context.Background(), testReading(5.0))

	require.Len(t, assessment.Statuses, 2)
	assert.Equal(t, models.ParamVibrationRMS, assessment.Statuses[0].Parameter)
	assert.Equal(t, models.StatusCritical, assessment.Statuses[0].Level)
	assert.Equal(t, models.ParamBearingTemp, assessment.Statuses[1].Parameter)
	assert.Equal(t, models.StatusWarning, assessment.Statuses[1].Level)
}
