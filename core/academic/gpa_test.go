package academic

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func scaleOf(t *testing.T, points map[string]string) []GradeScaleEntry {
	t.Helper()
	scale := make([]GradeScaleEntry, 0, len(points))
	for label, pv := range points {
		val, err := decimal.NewFromString(pv)
		if err != nil {
			t.Fatalf("scaleOf(%s): %v", pv, err)
		}
		scale = append(scale, GradeScaleEntry{Label: label, PointValue: val})
	}
	return scale
}

func moduleOf(credits int, grade, attempt string) CourseModule {
	return CourseModule{CreditHours: credits, GradeLabel: grade, AttemptType: attempt}
}

func TestGPA(t *testing.T) {
	scale := func(t *testing.T) []GradeScaleEntry {
		return scaleOf(t, map[string]string{
			"A+": "4.00",
			"A":  "4.00",
			"A-": "3.70",
			"B+": "3.65",
			"B":  "3.00",
			"C":  "2.00",
			"F":  "0.00",
		})
	}

	tests := []struct {
		name    string
		modules []CourseModule
		want    string
	}{
		{name: "no modules", want: "0.00"},
		{
			name:    "single module",
			modules: []CourseModule{moduleOf(3, "A+", AttemptFirst)},
			want:    "4.00",
		},
		{
			name: "weighted average",
			modules: []CourseModule{
				moduleOf(3, "A", AttemptFirst),
				moduleOf(4, "B", AttemptFirst),
			},
			want: "3.43", // round(24/7, 2)
		},
		{
			name:    "all dropped",
			modules: []CourseModule{moduleOf(3, "A", AttemptDropped)},
			want:    "0.00",
		},
		{
			name:    "only unmapped grades",
			modules: []CourseModule{moduleOf(3, "Z", AttemptFirst)},
			want:    "0.00",
		},
		{
			name: "repeats count",
			modules: []CourseModule{
				moduleOf(3, "A", AttemptFirst),
				moduleOf(3, "C", AttemptRepeat),
			},
			want: "3.00",
		},
		{
			name: "failed module drags the average",
			modules: []CourseModule{
				moduleOf(3, "A", AttemptFirst),
				moduleOf(3, "F", AttemptFirst),
			},
			want: "2.00",
		},
		{
			name: "exact decimal combination",
			modules: []CourseModule{
				moduleOf(3, "A-", AttemptFirst), // 3 x 3.70
				moduleOf(1, "B+", AttemptFirst), // 1 x 3.65
			},
			want: "3.69", // round(14.75/4, 2) = round(3.6875, 2)
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GPA(scale(t), tt.modules)
			if got.StringFixed(2) != tt.want {
				t.Errorf("GPA() = %v, want %v", got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestGPADroppedModulesNeverAffectResult(t *testing.T) {
	scale := scaleOf(t, map[string]string{"A": "4.00", "B": "3.00"})
	modules := []CourseModule{
		moduleOf(3, "A", AttemptFirst),
		moduleOf(4, "B", AttemptFirst),
	}
	withDropped := append(append([]CourseModule{}, modules...), moduleOf(5, "A", AttemptDropped))

	assert.True(t, GPA(scale, modules).Equal(GPA(scale, withDropped)))
}

func TestGPAUnmappedGradesNeverAffectResult(t *testing.T) {
	scale := scaleOf(t, map[string]string{"A": "4.00", "B": "3.00"})
	modules := []CourseModule{
		moduleOf(3, "A", AttemptFirst),
		moduleOf(4, "B", AttemptFirst),
	}
	withUnmapped := append(append([]CourseModule{}, modules...), moduleOf(5, "Z", AttemptFirst))

	assert.True(t, GPA(scale, modules).Equal(GPA(scale, withUnmapped)))
}

func TestGPAOrderInvariant(t *testing.T) {
	scale := scaleOf(t, map[string]string{"A": "4.00", "B": "3.00", "C": "2.00"})
	modules := []CourseModule{
		moduleOf(3, "A", AttemptFirst),
		moduleOf(4, "B", AttemptFirst),
		moduleOf(2, "C", AttemptRepeat),
		moduleOf(1, "A", AttemptDropped),
	}
	reversed := make([]CourseModule, len(modules))
	for i, mod := range modules {
		reversed[len(modules)-1-i] = mod
	}

	assert.True(t, GPA(scale, modules).Equal(GPA(scale, reversed)))
}

func TestGPARoundsHalfAwayFromZero(t *testing.T) {
	scale := scaleOf(t, map[string]string{"X": "3.83", "Y": "3.82"})
	modules := []CourseModule{
		moduleOf(1, "X", AttemptFirst),
		moduleOf(1, "Y", AttemptFirst),
	}

	// 7.65 / 2 = 3.825 rounds up, not to even
	got := GPA(scale, modules)
	if got.StringFixed(2) != "3.83" {
		t.Errorf("GPA() = %v, want 3.83", got.StringFixed(2))
	}
}

func TestGPAWithinScaleRange(t *testing.T) {
	scale := scaleOf(t, map[string]string{"A": "4.00", "B": "3.00", "F": "0.00"})
	modules := []CourseModule{
		moduleOf(3, "A", AttemptFirst),
		moduleOf(2, "B", AttemptFirst),
		moduleOf(4, "F", AttemptFirst),
	}

	got := GPA(scale, modules)
	assert.True(t, got.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, got.LessThanOrEqual(decimal.RequireFromString("4.00")))
}
