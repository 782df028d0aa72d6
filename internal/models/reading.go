package models

// 参数标识符（与采集端 JSON 字段保持一致）
const (
	ParamGridVoltage      = "grid_voltage"
	ParamMotorCurrent     = "motor_current"
	ParamPowerConsumption = "power_consumption"
	ParamPowerFactor      = "power_factor"
	ParamDailyEnergyKwh   = "daily_energy_kwh"
	ParamGridFrequency    = "grid_frequency"
	ParamVibrationRMS     = "vibration_rms"
	ParamMotorSurfaceTemp = "motor_surface_temp"
	ParamBearingTemp      = "bearing_temp"
	ParamDustDensity      = "dust_density"
	ParamHealthIndex      = "health_index"
)

// StatusLevel 参数状态等级
type StatusLevel string

const (
	StatusNormal   StatusLevel = "normal"
	StatusWarning  StatusLevel = "warning"
	StatusCritical StatusLevel = "critical"
)

// SensorReading 电机实时读数（从 Redis 读取，与采集端保持一致）
// 每个字段都可能缺失，缺失的参数在评估时跳过，不能按 0 处理
type SensorReading struct {
	MotorID          string   `json:"motor_id"`
	GridVoltage      *float64 `json:"grid_voltage,omitempty"`
	MotorCurrent     *float64 `json:"motor_current,omitempty"`
	PowerConsumption *float64 `json:"power_consumption,omitempty"`
	PowerFactor      *float64 `json:"power_factor,omitempty"`
	DailyEnergyKwh   *float64 `json:"daily_energy_kwh,omitempty"`
	GridFrequency    *float64 `json:"grid_frequency,omitempty"`
	VibrationRMS     *float64 `json:"vibration_rms,omitempty"`
	MotorSurfaceTemp *float64 `json:"motor_surface_temp,omitempty"`
	BearingTemp      *float64 `json:"bearing_temp,omitempty"`
	DustDensity      *float64 `json:"dust_density,omitempty"`
	HealthIndex      *float64 `json:"health_index,omitempty"`
	Timestamp        int64    `json:"timestamp"` // Unix 时间戳
}

// Value 按参数标识符取字段值（缺失返回 nil）
func (r *SensorReading) Value(param string) *float64 {
	switch param {
	case ParamGridVoltage:
		return r.GridVoltage
	case ParamMotorCurrent:
		return r.MotorCurrent
	case ParamPowerConsumption:
		return r.PowerConsumption
	case ParamPowerFactor:
		return r.PowerFactor
	case ParamDailyEnergyKwh:
		return r.DailyEnergyKwh
	case ParamGridFrequency:
		return r.GridFrequency
	case ParamVibrationRMS:
		return r.VibrationRMS
	case ParamMotorSurfaceTemp:
		return r.MotorSurfaceTemp
	case ParamBearingTemp:
		return r.BearingTemp
	case ParamDustDensity:
		return r.DustDensity
	case ParamHealthIndex:
		return r.HealthIndex
	}
	return nil
}

// ParameterStatus 单个参数的评估结果（总是从读数和阈值表重新计算，不单独持久化）
type ParameterStatus struct {
	Parameter string      `json:"parameter"`
	Value     float64     `json:"value"`
	Level     StatusLevel `json:"level"`
	Penalty   float64     `json:"penalty"` // 对健康指数的扣分
}

// ControlCommand 执行器控制指令（MQTT control-command 主题载荷）
// W1=1 触发报警/执行器，W2=1 解除
type ControlCommand struct {
	W1        int    `json:"W1,omitempty"`
	W2        int    `json:"W2,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
}
