package engine

import (
	"log"
	"strconv"
	"strings"
)

// Rule conditions. GREATER_THAN and LESS_THAN only apply to numeric values;
// EQUALS works for both numeric and discrete state comparisons.
const (
	ConditionGreaterThan = "GREATER_THAN"
	ConditionLessThan    = "LESS_THAN"
	ConditionEquals      = "EQUALS"
)

// toFloat normalizes the value types a JSON payload can carry into float64.
// Numeric strings count as numeric, so "25.5" compares like 25.5.
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

// stringify renders a live reading for discrete comparison
func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// matchCondition applies a rule condition to a live value. A nil value (absent
// sensor) never matches. Ordered conditions against a non-numeric value or a
// non-numeric threshold are non-matches, logged as configuration warnings.
func matchCondition(value interface{}, condition, threshold string) bool {
	if value == nil {
		return false
	}

	num, numeric := toFloat(value)
	thr, thrErr := strconv.ParseFloat(strings.TrimSpace(threshold), 64)

	switch condition {
	case ConditionGreaterThan:
		if !numeric {
			return false
		}
		if thrErr != nil {
			log.Printf("ENGINE: non-numeric threshold %q used with GREATER_THAN, treating as non-match", threshold)
			return false
		}
		return num > thr
	case ConditionLessThan:
		if !numeric {
			return false
		}
		if thrErr != nil {
			log.Printf("ENGINE: non-numeric threshold %q used with LESS_THAN, treating as non-match", threshold)
			return false
		}
		return num < thr
	case ConditionEquals:
		if numeric && thrErr == nil {
			return num == thr
		}
		return strings.EqualFold(stringify(value), strings.TrimSpace(threshold))
	}

	log.Printf("ENGINE: unknown condition %q, treating as non-match", condition)
	return false
}
