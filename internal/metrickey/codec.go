// Package metrickey converts between structured metric identities and the
// flattened keys stored in the usage_metrics table.
package metrickey

import "strings"

// Separator joins a metric name and its dimension in a flattened key.
// Dimension values must not contain it.
const Separator = "::"

// SeriesKey identifies a metric series by base name and optional dimension.
type SeriesKey struct {
	Name      string `json:"name"`
	Dimension string `json:"dimension,omitempty"`
}

// Encode flattens a SeriesKey into its storage form.
func (k SeriesKey) Encode() string {
	if k.Dimension == "" {
		return k.Name
	}
	return k.Name + Separator + k.Dimension
}

// Decode is the inverse of Encode. It splits on the first separator only, so
// the dimension carries any further separator-free text unchanged.
func Decode(key string) SeriesKey {
	name, dimension, found := strings.Cut(key, Separator)
	if !found {
		return SeriesKey{Name: key}
	}
	return SeriesKey{Name: name, Dimension: dimension}
}
