package verification

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Operator enumerates the evaluable rule conditions.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpExists      Operator = "exists"
	OpIn          Operator = "in"
)

// Rule is a single evaluable condition over a dot-notation field path.
type Rule struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Decision is the aggregate outcome of a policy evaluation.
type Decision string

const (
	DecisionApproved       Decision = "approved"
	DecisionDenied         Decision = "denied"
	DecisionReviewRequired Decision = "review_required"
)

// RuleResult reports one rule's evaluation: pass/fail plus a human-readable
// reason on failure.
type RuleResult struct {
	Rule   Rule   `json:"rule"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Outcome aggregates all rule results into a decision.
type Outcome struct {
	Decision Decision     `json:"decision"`
	Results  []RuleResult `json:"results"`
}

// ResolveField walks a dot-separated path through nested objects. It returns
// the value and true, or nil and false the moment it meets a non-object or a
// missing key. It never panics.
func ResolveField(data map[string]any, dotPath string) (any, bool) {
	var current any = data
	for _, segment := range strings.Split(dotPath, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Evaluate applies one rule to the data. Evaluation is total: an unevaluable
// condition (wrong value type for a numeric operator, non-container for
// contains) is a normal failure with an explanatory reason, never an error.
func Evaluate(rule Rule, data map[string]any) RuleResult {
	value, present := ResolveField(data, rule.Field)

	switch rule.Operator {
	case OpEquals:
		if present && reflect.DeepEqual(value, rule.Value) {
			return pass(rule)
		}
		return fail(rule, fmt.Sprintf("%q is %v, want %v", rule.Field, value, rule.Value))
	case OpNotEquals:
		if !present || !reflect.DeepEqual(value, rule.Value) {
			return pass(rule)
		}
		return fail(rule, fmt.Sprintf("%q must not equal %v", rule.Field, rule.Value))
	case OpGreaterThan:
		return compareNumeric(rule, value, present, func(a, b float64) bool { return a > b }, "greater than")
	case OpLessThan:
		return compareNumeric(rule, value, present, func(a, b float64) bool { return a < b }, "less than")
	case OpContains:
		return evalContains(rule, value, present)
	case OpExists:
		if !present || value == nil {
			return fail(rule, fmt.Sprintf("%q does not exist", rule.Field))
		}
		return pass(rule)
	case OpIn:
		return evalIn(rule, value, present)
	default:
		return fail(rule, fmt.Sprintf("unknown operator %q", rule.Operator))
	}
}

// EvaluateAll evaluates every rule independently, then classifies the
// aggregate: all pass approves, failures up to half the rules require
// review, and anything beyond that denies. The majority threshold is
// deliberate: a single brittle rule should not reject an otherwise sound
// presentation outright.
func EvaluateAll(rules []Rule, data map[string]any) Outcome {
	results := make([]RuleResult, 0, len(rules))
	failed := 0
	for _, rule := range rules {
		result := Evaluate(rule, data)
		if !result.Passed {
			failed++
		}
		results = append(results, result)
	}

	outcome := Outcome{Results: results}
	switch {
	case failed == 0:
		outcome.Decision = DecisionApproved
	case failed <= len(rules)/2:
		outcome.Decision = DecisionReviewRequired
	default:
		outcome.Decision = DecisionDenied
	}
	return outcome
}

func pass(rule Rule) RuleResult {
	return RuleResult{Rule: rule, Passed: true}
}

func fail(rule Rule, reason string) RuleResult {
	return RuleResult{Rule: rule, Passed: false, Reason: reason}
}

func compareNumeric(rule Rule, value any, present bool, cmp func(a, b float64) bool, word string) RuleResult {
	if !present {
		return fail(rule, fmt.Sprintf("%q does not exist", rule.Field))
	}
	got, ok := toNumber(value)
	if !ok {
		return fail(rule, fmt.Sprintf("%q is not numeric", rule.Field))
	}
	want, ok := toNumber(rule.Value)
	if !ok {
		return fail(rule, fmt.Sprintf("comparison value for %q is not numeric", rule.Field))
	}
	if cmp(got, want) {
		return pass(rule)
	}
	return fail(rule, fmt.Sprintf("%q is %v, not %s %v", rule.Field, got, word, want))
}

func evalContains(rule Rule, value any, present bool) RuleResult {
	if !present {
		return fail(rule, fmt.Sprintf("%q does not exist", rule.Field))
	}
	switch container := value.(type) {
	case string:
		needle, ok := rule.Value.(string)
		if !ok {
			return fail(rule, fmt.Sprintf("comparison value for %q must be a string", rule.Field))
		}
		if strings.Contains(container, needle) {
			return pass(rule)
		}
		return fail(rule, fmt.Sprintf("%q does not contain %q", rule.Field, needle))
	case []any:
		for _, item := range container {
			if reflect.DeepEqual(item, rule.Value) {
				return pass(rule)
			}
		}
		return fail(rule, fmt.Sprintf("%q does not contain %v", rule.Field, rule.Value))
	default:
		return fail(rule, fmt.Sprintf("%q is not a string or array", rule.Field))
	}
}

func evalIn(rule Rule, value any, present bool) RuleResult {
	if !present {
		return fail(rule, fmt.Sprintf("%q does not exist", rule.Field))
	}
	allowed, ok := rule.Value.([]any)
	if !ok {
		return fail(rule, fmt.Sprintf("comparison value for %q must be a list", rule.Field))
	}
	for _, item := range allowed {
		if reflect.DeepEqual(value, item) {
			return pass(rule)
		}
	}
	return fail(rule, fmt.Sprintf("%q is %v, not one of %v", rule.Field, value, allowed))
}

// toNumber accepts the numeric shapes JSON decoding and typed construction
// produce.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
