package academic

import "github.com/shopspring/decimal"

// GPA computes the credit-weighted grade point average of the given modules
// against the owner's grading scale.
//
// Dropped attempts are excluded from both the numerator and the denominator.
// A module whose grade label has no entry in the scale contributes nothing
// either; that is a tolerated gap, not an error. When no credit hours remain
// the result is exactly 0.00. Otherwise the result is
// round(points/credits, 2), rounding halves away from zero.
//
// The computation is pure decimal arithmetic: point values like 3.70 combine
// exactly with integer credit hours, with no binary-float artifacts in the
// second decimal digit.
func GPA(scale []GradeScaleEntry, modules []CourseModule) decimal.Decimal {
	points := make(map[string]decimal.Decimal, len(scale))
	for _, entry := range scale {
		points[entry.Label] = entry.PointValue
	}

	var totalPoints decimal.Decimal
	var totalCredits int64
	for _, mod := range modules {
		if mod.AttemptType == AttemptDropped {
			continue
		}
		pointValue, ok := points[mod.GradeLabel]
		if !ok {
			continue
		}
		totalPoints = totalPoints.Add(pointValue.Mul(decimal.NewFromInt(int64(mod.CreditHours))))
		totalCredits += int64(mod.CreditHours)
	}

	if totalCredits == 0 {
		return decimal.Zero
	}
	return totalPoints.DivRound(decimal.NewFromInt(totalCredits), 2)
}
