package diagnosis

// 电机故障诊断静态目录。
// 症状编号与问卷顺序保持一致，专家 CF 由维护工程师给定。

// DefaultSymptoms 默认症状目录
func DefaultSymptoms() []Symptom {
	return []Symptom{
		{ID: "S01", Question: "Apakah motor mengeluarkan suara dengung atau gesekan yang tidak biasa?", ExpertCF: 0.8},
		{ID: "S02", Question: "Apakah getaran motor terasa lebih kuat dari biasanya?", ExpertCF: 0.9},
		{ID: "S03", Question: "Apakah permukaan motor terasa sangat panas saat disentuh?", ExpertCF: 0.7},
		{ID: "S04", Question: "Apakah tercium bau hangus atau terbakar dari motor?", ExpertCF: 0.9},
		{ID: "S05", Question: "Apakah pemutus arus (MCB) sering turun saat motor bekerja?", ExpertCF: 0.8},
		{ID: "S06", Question: "Apakah putaran motor terasa lebih lambat atau tenaganya berkurang?", ExpertCF: 0.6},
		{ID: "S07", Question: "Apakah banyak debu menumpuk di kisi-kisi ventilasi motor?", ExpertCF: 0.5},
		{ID: "S08", Question: "Apakah terdengar suara kasar dari area bantalan (bearing)?", ExpertCF: 0.9},
		{ID: "S09", Question: "Apakah poros motor terasa goyang atau ada celah saat digerakkan?", ExpertCF: 0.7},
		{ID: "S10", Question: "Apakah motor kadang berhenti sendiri lalu menyala kembali?", ExpertCF: 0.6},
	}
}

// DefaultRules 默认规则目录（结果顺序 = 此目录顺序）
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:         "R01",
			SymptomIDs: []string{"S02", "S08"},
			Operator:   OpAnd,
			Severity:   SeveritySevere,
			Damage:     "Kerusakan bantalan (bearing) akibat keausan atau pelumasan yang buruk",
			Remedy:     "Ganti bantalan dan lakukan pelumasan ulang sesuai jadwal perawatan",
		},
		{
			ID:         "R02",
			SymptomIDs: []string{"S04", "S05"},
			Operator:   OpOr,
			Severity:   SeveritySevere,
			Damage:     "Kegagalan isolasi belitan stator (short circuit antar lilitan)",
			Remedy:     "Hentikan motor segera, lakukan uji megger dan gulung ulang belitan bila perlu",
		},
		{
			ID:         "R03",
			SymptomIDs: []string{"S01", "S09"},
			Operator:   OpAnd,
			Severity:   SeverityModerate,
			Damage:     "Ketidaksejajaran (misalignment) antara poros motor dan beban",
			Remedy:     "Lakukan alignment ulang kopling dan periksa dudukan motor",
		},
		{
			ID:         "R04",
			SymptomIDs: []string{"S02", "S06"},
			Operator:   OpAnd,
			Severity:   SeverityModerate,
			Damage:     "Ketidakseimbangan rotor atau beban berlebih",
			Remedy:     "Periksa keseimbangan rotor dan pastikan beban sesuai kapasitas motor",
		},
		{
			ID:         "R05",
			SymptomIDs: []string{"S03", "S07"},
			Operator:   OpAnd,
			Severity:   SeverityMinor,
			Damage:     "Ventilasi tersumbat debu sehingga pendinginan tidak optimal",
			Remedy:     "Bersihkan kisi-kisi ventilasi dan lingkungan sekitar motor",
		},
		{
			ID:         "R06",
			SymptomIDs: []string{"S06", "S10"},
			Operator:   OpOr,
			Severity:   SeverityModerate,
			Damage:     "Suplai daya tidak stabil atau sambungan terminal longgar",
			Remedy:     "Periksa tegangan suplai dan kencangkan sambungan pada terminal box",
		},
	}
}
