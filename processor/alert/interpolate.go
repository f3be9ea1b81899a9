package alert

import (
	"strconv"
	"strings"

	"github.com/industriverse/capstream/pkg/timestamp"
)

// renderTemplate substitutes the {metricValue}, {sourceId} and {timestamp}
// tokens in a capsule template string. Rendering happens once, at capsule
// creation; repeat triggers refresh the stored metrics but never re-run
// interpolation. Unrecognized tokens pass through verbatim so operators
// still see a partially rendered message instead of nothing.
func renderTemplate(s, sourceID string, value float64, ts int64) string {
	if s == "" || !strings.Contains(s, "{") {
		return s
	}

	return strings.NewReplacer(
		"{metricValue}", formatMetricValue(value),
		"{sourceId}", sourceID,
		"{timestamp}", timestamp.Format(ts),
	).Replace(s)
}

// formatMetricValue renders a float without trailing zeros, so a reading of
// 85 interpolates as "85" rather than "85.000000".
func formatMetricValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
