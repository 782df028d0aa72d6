package diagnosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, symptoms []Symptom, rules []Rule) *Engine {
	engine, err := NewEngine(symptoms, rules, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func TestNewEngine_ValidatesCatalog(t *testing.T) {
	// 未知症状引用
	_, err := NewEngine(
		[]Symptom{{ID: "S01", ExpertCF: 0.8}},
		[]Rule{{ID: "R01", SymptomIDs: []string{"S99"}, Operator: OpAnd, Severity: SeverityMinor}},
		zap.NewNop(),
	)
	assert.Error(t, err)

	// CF 超出 [-1,1]
	_, err = NewEngine(
		[]Symptom{{ID: "S01", ExpertCF: 1.5}},
		nil,
		zap.NewNop(),
	)
	assert.Error(t, err)

	// 空规则
	_, err = NewEngine(
		[]Symptom{{ID: "S01", ExpertCF: 0.8}},
		[]Rule{{ID: "R01", Operator: OpAnd, Severity: SeverityMinor}},
		zap.NewNop(),
	)
	assert.Error(t, err)
}

func TestDiagnose_AndRuleUsesMin(t *testing.T) {
	engine := newTestEngine(t,
		[]Symptom{
			{ID: "S01", ExpertCF: 0.8},
			{ID: "S02", ExpertCF: 0.6},
		},
		[]Rule{
			{ID: "R01", SymptomIDs: []string{"S01", "S02"}, Operator: OpAnd, Severity: SeveritySevere},
		},
	)

	results, conclusion := engine.Diagnose(map[string]AnswerLevel{
		"S01": AnswerYes,
		"S02": AnswerYes,
	})

	require.Len(t, results, 1)
	assert.Equal(t, "R01", results[0].RuleID)
	assert.InDelta(t, 0.6, results[0].CF, 1e-9)
	require.NotNil(t, conclusion)
	assert.Equal(t, SeveritySevere, conclusion.Label)
	assert.Equal(t, 100.0, conclusion.Percent)
}

func TestDiagnose_OrRuleUsesMax(t *testing.T) {
	engine := newTestEngine(t,
		[]Symptom{
			{ID: "S01", ExpertCF: 0.8},
			{ID: "S02", ExpertCF: 0.6},
		},
		[]Rule{
			{ID: "R01", SymptomIDs: []string{"S01", "S02"}, Operator: OpOr, Severity: SeverityModerate},
		},
	)

	results, _ := engine.Diagnose(map[string]AnswerLevel{
		"S01": AnswerYes,
		"S02": AnswerYes,
	})

	require.Len(t, results, 1)
	assert.InDelta(t, 0.8, results[0].CF, 1e-9)
}

func TestDiagnose_FuzzyValues(t *testing.T) {
	engine := newTestEngine(t,
		[]Symptom{{ID: "S01", ExpertCF: 0.8}},
		[]Rule{{ID: "R01", SymptomIDs: []string{"S01"}, Operator: OpOr, Severity: SeverityMinor}},
	)

	// Sometimes → 0.5 × 0.8 = 0.4
	results, _ := engine.Diagnose(map[string]AnswerLevel{"S01": AnswerSometimes})
	require.Len(t, results, 1)
	assert.InDelta(t, 0.4, results[0].CF, 1e-9)

	// No → 0，CF 必须严格大于 0 才输出
	results, conclusion := engine.Diagnose(map[string]AnswerLevel{"S01": AnswerNo})
	assert.Empty(t, results)
	assert.Nil(t, conclusion)
}

func TestDiagnose_UnansweredSymptomExcluded(t *testing.T) {
	engine := newTestEngine(t,
		[]Symptom{
			{ID: "S01", ExpertCF: 0.3},
			{ID: "S02", ExpertCF: 0.9},
		},
		[]Rule{
			{ID: "R01", SymptomIDs: []string{"S01", "S02"}, Operator: OpAnd, Severity: SeverityMinor},
		},
	)

	// S02 未回答：不能当作"否"，AND 只在已回答的症状上取 min
	results, _ := engine.Diagnose(map[string]AnswerLevel{"S01": AnswerYes})
	require.Len(t, results, 1)
	assert.InDelta(t, 0.3, results[0].CF, 1e-9)
}

func TestDiagnose_RuleWithNoAnsweredSymptoms(t *testing.T) {
	engine := newTestEngine(t,
		[]Symptom{
			{ID: "S01", ExpertCF: 0.8},
			{ID: "S02", ExpertCF: 0.9},
		},
		[]Rule{
			{ID: "R01", SymptomIDs: []string{"S01"}, Operator: OpOr, Severity: SeverityMinor},
			{ID: "R02", SymptomIDs: []string{"S02"}, Operator: OpOr, Severity: SeveritySevere},
		},
	)

	results, conclusion := engine.Diagnose(map[string]AnswerLevel{"S01": AnswerYes})

	require.Len(t, results, 1)
	assert.Equal(t, "R01", results[0].RuleID)
	require.NotNil(t, conclusion)
	assert.Equal(t, SeverityMinor, conclusion.Label)
	assert.Equal(t, 40.0, conclusion.Percent)
}

func TestDiagnose_EmptyAnswerSet(t *testing.T) {
	engine := newTestEngine(t, DefaultSymptoms(), DefaultRules())

	results, conclusion := engine.Diagnose(nil)

	assert.Empty(t, results)
	assert.Nil(t, conclusion)
}

func TestDiagnose_ConclusionBuckets(t *testing.T) {
	engine := newTestEngine(t,
		[]Symptom{
			{ID: "S01", ExpertCF: 0.8},
			{ID: "S02", ExpertCF: 0.8},
		},
		[]Rule{
			{ID: "R01", SymptomIDs: []string{"S01"}, Operator: OpOr, Severity: SeverityMinor},
			{ID: "R02", SymptomIDs: []string{"S02"}, Operator: OpOr, Severity: SeveritySevere},
		},
	)

	// (40 + 100) / 2 = 70 → Moderate（边界归入较低档）
	_, conclusion := engine.Diagnose(map[string]AnswerLevel{
		"S01": AnswerYes,
		"S02": AnswerYes,
	})
	require.NotNil(t, conclusion)
	assert.Equal(t, 70.0, conclusion.Percent)
	assert.Equal(t, SeverityModerate, conclusion.Label)
}

func TestDiagnose_Deterministic(t *testing.T) {
	engine := newTestEngine(t, DefaultSymptoms(), DefaultRules())

	answers := map[string]AnswerLevel{
		"S02": AnswerYes,
		"S08": AnswerSometimes,
		"S04": AnswerYes,
		"S07": AnswerNo,
	}

	first, firstConclusion := engine.Diagnose(answers)
	require.NotEmpty(t, first)

	// 相同输入多次运行必须得到完全一致的有序结果
	for i := 0; i < 10; i++ {
		results, conclusion := engine.Diagnose(answers)
		assert.Equal(t, first, results)
		assert.Equal(t, firstConclusion, conclusion)
	}

	// 结果顺序 = 规则目录顺序
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].RuleID, first[i].RuleID)
	}
}
