// Package condition evaluates declarative comparisons between extracted and
// expected values.
package condition

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/reqrun/internal/extract"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

// Check is a pure comparison of value against expected under the operator.
// Unknown operators evaluate to false.
func Check(value string, op model.Operator, expected string) bool {
	switch op {
	case model.OpEqual:
		return value == expected
	case model.OpNotEqual:
		return value != expected
	case model.OpGreaterThan, model.OpGreaterThanEqual, model.OpLessThan, model.OpLessThanEqual:
		return numericCheck(value, op, expected)
	case model.OpContains:
		return strings.Contains(value, expected)
	case model.OpRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	default:
		return false
	}
}

// numericCheck coerces both sides to numbers. Either side failing to parse
// is the NaN case and the comparison is false.
func numericCheck(value string, op model.Operator, expected string) bool {
	left, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	right, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if err != nil {
		return false
	}

	switch op {
	case model.OpGreaterThan:
		return left > right
	case model.OpGreaterThanEqual:
		return left >= right
	case model.OpLessThan:
		return left < right
	case model.OpLessThanEqual:
		return left <= right
	default:
		return false
	}
}

// Satisfied evaluates a runnable condition against the exchange. AlwaysPass
// and disabled conditions short-circuit before the extractor runs, so an
// unset operator or expected value never surfaces as an error.
func Satisfied(c *model.Condition, req *model.Request, resp *model.Response) (bool, error) {
	if c == nil || c.AlwaysPass {
		return true, nil
	}
	if !c.IsEnabled() {
		return false, nil
	}
	if c.Operator == "" {
		return false, nil
	}

	value, ok, err := extract.Value(c.Source, req, resp)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return Check(value, c.Operator, c.Value), nil
}
