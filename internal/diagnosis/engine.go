package diagnosis

import (
	"fmt"

	"go.uber.org/zap"
)

// AnswerLevel 用户对症状问题的模糊回答
type AnswerLevel string

const (
	AnswerNo        AnswerLevel = "no"
	AnswerSometimes AnswerLevel = "sometimes"
	AnswerYes       AnswerLevel = "yes"
)

// fuzzyValue 模糊回答的数值化
func (a AnswerLevel) fuzzyValue() float64 {
	switch a {
	case AnswerSometimes:
		return 0.5
	case AnswerYes:
		return 1.0
	}
	return 0
}

// Operator 规则内症状的组合算子
type Operator string

const (
	OpAnd Operator = "and" // 规则 CF = min(各症状贡献)
	OpOr  Operator = "or"  // 规则 CF = max(各症状贡献)
)

// Severity 故障严重等级
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityScore 聚合结论用的固定分值
func severityScore(s Severity) float64 {
	switch s {
	case SeverityModerate:
		return 70
	case SeveritySevere:
		return 100
	}
	return 40
}

// Symptom 症状条目（专家 CF ∈ [-1,1]，运行时只读）
type Symptom struct {
	ID       string
	Question string
	ExpertCF float64
}

// Rule 诊断规则（运行时只读，不支持动态修改）
type Rule struct {
	ID         string
	SymptomIDs []string
	Operator   Operator
	Severity   Severity
	Damage     string
	Remedy     string
}

// Result 单条规则的诊断结果
type Result struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	CF       float64  `json:"cf"`
	Damage   string   `json:"damage"`
	Remedy   string   `json:"remedy"`
}

// Conclusion 整体结论
type Conclusion struct {
	Percent float64  `json:"percent"` // 0-100
	Label   Severity `json:"label"`
}

// Engine 确定性因子（CF）推理引擎
// 同样的回答集合必须产生字节一致的结果，结果顺序固定为规则目录顺序
type Engine struct {
	symptoms map[string]Symptom
	rules    []Rule
	logger   *zap.Logger
}

// NewEngine 创建推理引擎，启动时加载一次目录
func NewEngine(symptoms []Symptom, rules []Rule, logger *zap.Logger) (*Engine, error) {
	index := make(map[string]Symptom, len(symptoms))
	for _, s := range symptoms {
		if s.ExpertCF < -1 || s.ExpertCF > 1 {
			return nil, fmt.Errorf("symptom %s: expert CF %v out of range [-1,1]", s.ID, s.ExpertCF)
		}
		index[s.ID] = s
	}

	for _, r := range rules {
		if len(r.SymptomIDs) == 0 {
			return nil, fmt.Errorf("rule %s: no symptoms", r.ID)
		}
		for _, sid := range r.SymptomIDs {
			if _, ok := index[sid]; !ok {
				return nil, fmt.Errorf("rule %s references unknown symptom %s", r.ID, sid)
			}
		}
	}

	return &Engine{
		symptoms: index,
		rules:    rules,
		logger:   logger,
	}, nil
}

// Diagnose 根据用户回答评估所有规则
// 未回答的症状不参与该规则的计算（不能当作"否"处理）；
// 规则引用的症状一个都没回答时该规则不产生结果；
// 零回答 → 空结果集 + nil 结论，不是错误
func (e *Engine) Diagnose(answers map[string]AnswerLevel) ([]Result, *Conclusion) {
	results := make([]Result, 0, len(e.rules))

	for _, rule := range e.rules {
		cf, ok := e.evaluateRule(rule, answers)
		if !ok || cf <= 0 {
			continue
		}
		results = append(results, Result{
			RuleID:   rule.ID,
			Severity: rule.Severity,
			CF:       cf,
			Damage:   rule.Damage,
			Remedy:   rule.Remedy,
		})
	}

	if len(results) == 0 {
		return results, nil
	}

	var total float64
	for _, r := range results {
		total += severityScore(r.Severity)
	}
	avg := total / float64(len(results))

	conclusion := &Conclusion{Percent: avg}
	switch {
	case avg <= 40:
		conclusion.Label = SeverityMinor
	case avg <= 70:
		conclusion.Label = SeverityModerate
	default:
		conclusion.Label = SeveritySevere
	}

	e.logger.Debug("Diagnosis completed",
		zap.Int("result_count", len(results)),
		zap.Float64("percent", conclusion.Percent),
		zap.String("label", string(conclusion.Label)),
	)

	return results, conclusion
}

// evaluateRule 计算单条规则的 CF
// 返回 ok=false 表示规则引用的症状都没有被回答
func (e *Engine) evaluateRule(rule Rule, answers map[string]AnswerLevel) (float64, bool) {
	var contributions []float64
	for _, sid := range rule.SymptomIDs {
		answer, answered := answers[sid]
		if !answered {
			continue
		}
		symptom := e.symptoms[sid]
		contributions = append(contributions, answer.fuzzyValue()*symptom.ExpertCF)
	}

	if len(contributions) == 0 {
		return 0, false
	}

	cf := contributions[0]
	for _, c := range contributions[1:] {
		switch rule.Operator {
		case OpAnd:
			if c < cf {
				cf = c
			}
		default: // OpOr
			if c > cf {
				cf = c
			}
		}
	}

	return cf, true
}
