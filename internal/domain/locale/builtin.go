package locale

var builtin = map[Kind]table{
	KindStatistical: {
		PtBR: {
			"cons_good_sym":       "Bom Consistente com Simetria",
			"cons_good":           "Bom Consistente",
			"pot_risk_high_var":   "Risco Potencial com Alta Variabilidade",
			"pot_risk_high_vol":   "Risco Potencial com Alta Volatilidade",
			"generally_good":      "Geralmente Bom",
			"cons_bad_high_accum": "Ruim Consistente com Alto Acúmulo",
			"cons_bad":            "Ruim Consistente",
			"vol_high_peaks":      "Volátil com Grandes Picos",
			"range_disp_high":     "Disparidade de Alto Alcance",
			"high_impact_vol":     "Alto Impacto Volátil",
			"pot_risk":            "Risco Potencial",
			"stat_insig":          "Sem relevância estatística",
			"no_match":            "Sem classificação estatística",
		},
		EnUS: {
			"cons_good_sym":       "Consistently Good with Symmetry",
			"cons_good":           "Consistently Good",
			"pot_risk_high_var":   "Potential Risk with High Variability",
			"pot_risk_high_vol":   "Potential Risk with High Volatility",
			"generally_good":      "Generally Good",
			"cons_bad_high_accum": "Consistently Bad with High Accumulation",
			"cons_bad":            "Consistently Bad",
			"vol_high_peaks":      "Volatile with High Peaks",
			"range_disp_high":     "High Range Disparity",
			"high_impact_vol":     "High Impact Volatility",
			"pot_risk":            "Potential Risk",
			"stat_insig":          "Statistical Insignificance",
			"no_match":            "No Statistical Classification",
		},
	},
	KindConsensus: {
		PtBR: {
			"strong_consistent_rel":                    "Alta confiança com padrão consistente e claro",
			"moderate_consistent_rel":                  "Confiança moderada com padrão consistente e claro",
			"weak_consistent_rel":                      "Baixa confiança, mas padrão consistente e claro",
			"potential_anomaly":                        "Anomalia potencial com relações pouco claras",
			"inconsistent_trends":                      "Tendências inconsistentes, mas com relações claras",
			"conflicting_patterns":                     "Padrões conflitantes, tendências inconsistentes com anomalias potenciais",
			"unclassified":                             "Não classificado",
			"strong_consistent_rel_high_reliability":   "Alta confiança com confiabilidade elevada e padrão consistente",
			"moderate_consistent_rel_good_performance": "Confiança moderada e desempenho satisfatório com padrão consistente",
			"weak_consistent_rel_reliable":             "Baixa confiança, mas desempenho confiável e padrão consistente",
			"potential_anomaly_inconsistent_patterns":  "Anomalia potencial com padrões inconsistentes",
			"inconsistent_trends_clear_rel":            "Tendências inconsistentes, mas com relações claras e confiáveis",
			"conflicting_patterns_low_agreement":       "Padrões conflitantes, baixo consenso e tendências inconsistentes",
		},
		EnUS: {
			"strong_consistent_rel":                    "High confidence with a consistent, clear pattern",
			"moderate_consistent_rel":                  "Moderate confidence with a consistent, clear pattern",
			"weak_consistent_rel":                      "Low confidence but consistent, clear pattern",
			"potential_anomaly":                        "Potential anomaly with unclear relationships",
			"inconsistent_trends":                      "Inconsistent trends but clear relationships",
			"conflicting_patterns":                     "Conflicting, inconsistent trends with potential anomalies",
			"unclassified":                             "Unclassified",
			"strong_consistent_rel_high_reliability":   "High confidence with high reliability and consistent pattern",
			"moderate_consistent_rel_good_performance": "Moderate confidence and satisfactory performance with consistent pattern",
			"weak_consistent_rel_reliable":             "Low confidence but reliable performance and consistent pattern",
			"potential_anomaly_inconsistent_patterns":  "Potential anomaly with inconsistent patterns",
			"inconsistent_trends_clear_rel":            "Inconsistent trends but clear, reliable relationships",
			"conflicting_patterns_low_agreement":       "Conflicting patterns with low agreement and inconsistent trends",
		},
	},
	KindAction: {
		PtBR: {
			"immediate_replacement":      "Sugerir substituição imediata devido a problemas críticos na confiabilidade e anomalias.",
			"replace_low_reliability":    "Sugerir substituição devido à baixa confiabilidade, desempenho e tendências inconsistentes.",
			"review_replacement":         "Revisar substituição devido a problemas moderados de confiabilidade ou consistência.",
			"investigate_inconsistency":  "Sugerir investigação devido a potenciais inconsistências.",
			"investigate_anomaly":        "Investigar possíveis inconsistências ou anomalias detectadas nas tendências.",
			"keep_current":               "Alta previsibilidade: continuar com a abordagem atual.",
			"good_performance":           "Bom desempenho: continuar com ação mínima. Monitorar para quaisquer mudanças.",
			"borderline":                 "Desempenho satisfatório porém no limite. Monitorar de perto e ajustar se o desempenho piorar.",
			"replace_low_predictability": "Sugerir substituição devido à baixa previsibilidade.",
			"monitor":                    "Monitorar desempenho e consistência.",
		},
		EnUS: {
			"immediate_replacement":      "Suggest immediate replacement due to critical reliability problems and anomalies.",
			"replace_low_reliability":    "Suggest replacement due to low reliability, performance and inconsistent trends.",
			"review_replacement":         "Review replacement due to moderate reliability or consistency problems.",
			"investigate_inconsistency":  "Suggest investigation due to potential inconsistencies.",
			"investigate_anomaly":        "Investigate possible inconsistencies or anomalies detected in the trends.",
			"keep_current":               "High predictability: keep the current approach.",
			"good_performance":           "Good performance: continue with minimal action. Monitor for any changes.",
			"borderline":                 "Satisfactory but borderline performance. Monitor closely and adjust if performance worsens.",
			"replace_low_predictability": "Suggest replacement due to low predictability.",
			"monitor":                    "Monitor performance and consistency.",
		},
	},
}
