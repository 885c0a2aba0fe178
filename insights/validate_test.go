// ABOUTME: Tests for stage, tag and confidence validation
// ABOUTME: Table-driven checks of vocabulary enforcement and clamping
package insights

import (
	"math"
	"testing"

	"github.com/harperreed/pagen/models"
	"github.com/stretchr/testify/assert"
)

func TestValidateStage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Core Client", models.StageCoreClient},
		{"VIP Client", models.StageVIPClient},
		{"Lost Client", models.StageLostClient},
		{"core client", models.StageProspect},
		{"Super Client", models.StageProspect},
		{"", models.StageProspect},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateStage(tt.raw))
		})
	}
}

func TestValidateTags(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		maxTags int
		want    []string
	}{
		{"nil", nil, 8, []string{}},
		{"filters unknown", []string{"vip", "bogus", "at-risk"}, 8, []string{"vip", "at-risk"}},
		{"keeps order", []string{"inactive", "calendar-active"}, 8, []string{"inactive", "calendar-active"}},
		{"drops duplicates", []string{"vip", "vip", "at-risk"}, 8, []string{"vip", "at-risk"}},
		{"truncates", []string{"vip", "at-risk", "inactive"}, 2, []string{"vip", "at-risk"}},
		{"default max", models.AllowedTags, 0, models.AllowedTags[:models.DefaultMaxTags]},
		{"limit above default is clamped", models.AllowedTags, 20, models.AllowedTags[:models.DefaultMaxTags]},
		{"case sensitive", []string{"VIP"}, 8, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTags(tt.raw, tt.maxTags))
		})
	}
}

func TestClampMaxTags(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-1, models.DefaultMaxTags},
		{0, models.DefaultMaxTags},
		{1, 1},
		{models.DefaultMaxTags, models.DefaultMaxTags},
		{20, models.DefaultMaxTags},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampMaxTags(tt.in), "ClampMaxTags(%d)", tt.in)
	}
}

func TestClampConfidence(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		raw  *float64
		want float64
	}{
		{"missing", nil, 0.5},
		{"in range", f(0.73), 0.73},
		{"above", f(1.7), 1},
		{"below", f(-0.2), 0},
		{"zero", f(0), 0},
		{"one", f(1), 1},
		{"nan", f(math.NaN()), 0.5},
		{"inf", f(math.Inf(1)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampConfidence(tt.raw))
		})
	}
}
