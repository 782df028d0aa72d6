package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/diagnosis"

	"go.uber.org/zap"
)

// 交互式故障诊断问卷。
// 也支持 -answers 'S01=yes,S02=sometimes' 非交互模式（脚本或测试用）。
func main() {
	var answersFlag = flag.String("answers", "", "Non-interactive answers, e.g. 'S01=yes,S02=sometimes,S08=no'")
	flag.Parse()

	engine, err := diagnosis.NewEngine(diagnosis.DefaultSymptoms(), diagnosis.DefaultRules(), zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to load diagnosis catalog: %v", err)
	}

	var answers map[string]diagnosis.AnswerLevel
	if *answersFlag != "" {
		answers, err = parseAnswers(*answersFlag)
		if err != nil {
			log.Fatalf("Invalid -answers value: %v", err)
		}
	} else {
		answers = askQuestions()
	}

	results, conclusion := engine.Diagnose(answers)

	if len(results) == 0 {
		fmt.Println("\nTidak ada kerusakan yang terindikasi dari jawaban Anda.")
		return
	}

	fmt.Println("\n=== Hasil Diagnosis ===")
	for _, r := range results {
		fmt.Printf("[%s] %s (CF %.2f)\n", strings.ToUpper(string(r.Severity)), r.Damage, r.CF)
		fmt.Printf("    Saran: %s\n", r.Remedy)
	}
	fmt.Printf("\nKesimpulan: %s (%.0f%%)\n", strings.ToUpper(string(conclusion.Label)), conclusion.Percent)
}

// askQuestions 按目录顺序逐条提问，回车跳过
func askQuestions() map[string]diagnosis.AnswerLevel {
	answers := make(map[string]diagnosis.AnswerLevel)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Jawab dengan y (ya), k (kadang-kadang), n (tidak), atau Enter untuk lewati.")
	for _, s := range diagnosis.DefaultSymptoms() {
		fmt.Printf("%s %s [y/k/n] ", s.ID, s.Question)
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "ya", "yes":
			answers[s.ID] = diagnosis.AnswerYes
		case "k", "kadang", "sometimes", "s":
			answers[s.ID] = diagnosis.AnswerSometimes
		case "n", "tidak", "no":
			answers[s.ID] = diagnosis.AnswerNo
		}
	}

	return answers
}

// parseAnswers 解析 'S01=yes,S02=sometimes' 形式
func parseAnswers(raw string) (map[string]diagnosis.AnswerLevel, error) {
	answers := make(map[string]diagnosis.AnswerLevel)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected SYMPTOM=ANSWER, got %q", pair)
		}

		id := strings.TrimSpace(parts[0])
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "yes":
			answers[id] = diagnosis.AnswerYes
		case "sometimes":
			answers[id] = diagnosis.AnswerSometimes
		case "no":
			answers[id] = diagnosis.AnswerNo
		default:
			return nil, fmt.Errorf("unknown answer %q for %s (want yes/sometimes/no)", parts[1], id)
		}
	}

	return answers, nil
}
