package pipeline

// Flat per-stage cost model
const (
	TokensPerStage  = 700
	CostPer1KTokens = 0.009
)

// EstimateCost returns the estimated model cost in USD for a case whose audit
// trail has stages entries
func EstimateCost(stages int) float64 {
	if stages <= 0 {
		return 0
	}
	tokens := float64(stages * TokensPerStage)
	return tokens / 1000 * CostPer1KTokens
}
