package threshold

import (
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"
)

// Direction 参数劣化方向
type Direction int

const (
	HighIsBad Direction = iota // 数值越高越差（温度、振动等）
	LowIsBad                   // 数值越低越差（功率因数）
)

// Bound 单个参数的阈值条目
type Bound struct {
	Parameter       string
	NormalBound     float64 // 正常与警告的分界
	CriticalBound   float64 // 警告与严重的分界
	Direction       Direction
	WarningPenalty  float64 // 警告状态对健康指数的扣分
	CriticalPenalty float64
}

// EvaluationOrder 固定的参数评估顺序
// 报警的"最严重参数"按此顺序取第一个命中的 Critical，顺序不能变，
// 否则历史报警记录和测试预期都会漂移
var EvaluationOrder = []string{
	models.ParamVibrationRMS,
	models.ParamMotorSurfaceTemp,
	models.ParamBearingTemp,
	models.ParamMotorCurrent,
	models.ParamGridVoltage,
	models.ParamPowerFactor,
	models.ParamDustDensity,
}

// Table 阈值表（按 EvaluationOrder 排序）
type Table struct {
	entries map[string]Bound
}

// NewTable 创建阈值表
func NewTable(bounds []Bound) *Table {
	entries := make(map[string]Bound, len(bounds))
	for _, b := range bounds {
		entries[b.Parameter] = b
	}
	return &Table{entries: entries}
}

// DefaultTable 默认阈值表
// 振动 RMS：正常<2.8 mm/s，警告<4.5；表面温度：正常<70°C，警告<85°C；
// 轴承温度：正常<65°C，警告<80°C；功率因数：正常>0.85，警告>0.70（方向反转）
func DefaultTable() *Table {
	return NewTable([]Bound{
		{models.ParamVibrationRMS, 2.8, 4.5, HighIsBad, 10, 25},
		{models.ParamMotorSurfaceTemp, 70, 85, HighIsBad, 10, 25},
		{models.ParamBearingTemp, 65, 80, HighIsBad, 10, 25},
		{models.ParamMotorCurrent, 10, 13, HighIsBad, 5, 15},
		{models.ParamGridVoltage, 240, 250, HighIsBad, 5, 15},
		{models.ParamPowerFactor, 0.85, 0.70, LowIsBad, 5, 15},
		{models.ParamDustDensity, 0.10, 0.20, HighIsBad, 5, 15},
	})
}

// Lookup 查找参数的阈值条目
func (t *Table) Lookup(param string) (Bound, bool) {
	b, ok := t.entries[param]
	return b, ok
}

// Evaluate 评估单个参数值，返回参数状态
// 纯函数，无副作用。边界值归入更差的等级（例如振动 2.8 → Warning，4.5 → Critical）
func Evaluate(param string, value float64, t *Table) (models.ParameterStatus, bool) {
	b, ok := t.Lookup(param)
	if !ok {
		return models.ParameterStatus{}, false
	}

	status := models.ParameterStatus{
		Parameter: param,
		Value:     value,
		Level:     models.StatusNormal,
	}

	switch b.Direction {
	case HighIsBad:
		if value >= b.CriticalBound {
			status.Level = models.StatusCritical
		} else if value >= b.NormalBound {
			status.Level = models.StatusWarning
		}
	case LowIsBad:
		if value <= b.CriticalBound {
			status.Level = models.StatusCritical
		} else if value <= b.NormalBound {
			status.Level = models.StatusWarning
		}
	}

	switch status.Level {
	case models.StatusWarning:
		status.Penalty = b.WarningPenalty
	case models.StatusCritical:
		status.Penalty = b.CriticalPenalty
	}

	return status, true
}

// EvaluateReading 按固定顺序评估读数中存在的所有参数
// 缺失的字段直接跳过（"缺失"和"正常"是两种不同的状态）
func EvaluateReading(r *models.SensorReading, t *Table) []models.ParameterStatus {
	statuses := make([]models.ParameterStatus, 0, len(EvaluationOrder))
	for _, param := range EvaluationOrder {
		value := r.Value(param)
		if value == nil {
			continue
		}
		if status, ok := Evaluate(param, *value, t); ok {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

// HealthIndex 基于各参数扣分计算健康指数（0-100）
func HealthIndex(r *models.SensorReading, t *Table) float64 {
	score := 100.0
	for _, status := range EvaluateReading(r, t) {
		score -= status.Penalty
	}
	if score < 0 {
		return 0
	}
	return score
}
