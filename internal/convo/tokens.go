package convo

// TokenWarnThreshold is the estimated token load above which a user is
// advised to clear their history. The advisory does not block the turn.
const TokenWarnThreshold = 2000

// EstimateTokens approximates the number of model tokens a block of text
// will consume, using the ~4 chars per token heuristic. It is deterministic
// and monotonic in text length; it is a gating heuristic, not a billing
// measure.
func EstimateTokens(text string) int {
	chars := len([]rune(text))
	if chars <= 0 {
		return 0
	}
	return (chars + 3) / 4
}
