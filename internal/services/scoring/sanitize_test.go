package scoring

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"FinSignal/internal/domain/models"
)

func TestSanitize(t *testing.T) {
	weights := DefaultCalibration().Weights()
	raw := models.SentimentComponents{
		models.ComponentNews:      0.4,
		models.ComponentSocial:    json.Number("-0.2"),
		models.ComponentTechnical: 3.0,
		models.ComponentOptions:   math.NaN(),
		models.ComponentInsider:   "bullish",
		models.ComponentAnalyst:   true,
		"reddit_hype":             0.9,
	}

	clean, q := Sanitize(raw, weights)

	assert.Equal(t, map[string]float64{
		models.ComponentNews:      0.4,
		models.ComponentSocial:    -0.2,
		models.ComponentTechnical: 1.0,
	}, clean)

	kinds := map[string]models.QualityKind{}
	for _, is := range q.Issues {
		kinds[is.Field] = is.Kind
	}
	assert.Equal(t, models.QualityClamped, kinds[models.ComponentTechnical])
	assert.Equal(t, models.QualityNonFinite, kinds[models.ComponentOptions])
	assert.Equal(t, models.QualityNonNumeric, kinds[models.ComponentInsider])
	assert.Equal(t, models.QualityNonNumeric, kinds[models.ComponentAnalyst])
	assert.Equal(t, models.QualityUnknownComponent, kinds["reddit_hype"])
	assert.False(t, q.Clean())
}

func TestSanitizeCleanInput(t *testing.T) {
	clean, q := Sanitize(models.SentimentComponents{models.ComponentNews: 0.1, models.ComponentSocial: "0.2"}, DefaultCalibration().Weights())
	assert.Len(t, clean, 2)
	assert.InDelta(t, 0.2, clean[models.ComponentSocial], 1e-12)
	assert.True(t, q.Clean())
}

func TestSanitizeNil(t *testing.T) {
	clean, q := Sanitize(nil, DefaultCalibration().Weights())
	assert.Empty(t, clean)
	assert.True(t, q.Clean())
}
