package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
)

// Sanitize validates raw components against the weight table. Unknown keys and
// unusable values are dropped, out-of-range values clamped to [-1, 1]. Every
// correction is reported in the returned quality record.
func Sanitize(raw models.SentimentComponents, weights map[string]float64) (map[string]float64, models.InputQuality) {
	var q models.InputQuality
	clean := make(map[string]float64, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		if _, ok := weights[name]; !ok {
			q.Add(models.QualityUnknownComponent, name, "")
			continue
		}
		v, ok := toFloat(raw[name])
		if !ok {
			q.Add(models.QualityNonNumeric, name, fmt.Sprintf("%T", raw[name]))
			continue
		}
		if !features.Finite(v) {
			q.Add(models.QualityNonFinite, name, strconv.FormatFloat(v, 'g', -1, 64))
			continue
		}
		if v < -1 || v > 1 {
			q.Add(models.QualityClamped, name, strconv.FormatFloat(v, 'g', -1, 64))
			v = features.Clamp(v, -1, 1)
		}
		clean[name] = v
	}
	return clean, q
}

// toFloat accepts Go numeric types, json.Number and numeric strings. Booleans are rejected.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
