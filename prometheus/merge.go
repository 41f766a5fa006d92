package prometheus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Ensure Metrics can be exported directly.
var _ prometheus.Gatherer = (*Metrics)(nil)

// MergeTextfile adds the metrics a child process wrote to path to m.
// Counters and histograms are summed with any series that has the same
// labels. A missing or empty file adds nothing.
func (m *Metrics) MergeTextfile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	var families []*dto.MetricFamily
	dec := expfmt.NewDecoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for {
		mf := &dto.MetricFamily{}
		if err := dec.Decode(mf); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		families = append(families, mf)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mf := range families {
		if dst, ok := m.imported[mf.GetName()]; ok {
			mergeFamily(dst, mf)
		} else {
			m.imported[mf.GetName()] = mf
		}
	}
	return nil
}

// Gather implements prometheus.Gatherer. It returns the registry's metrics
// with every merged child metric added in.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	for name, src := range m.imported {
		if dst, ok := byName[name]; ok {
			mergeFamily(dst, src)
			continue
		}
		families = append(families, proto.Clone(src).(*dto.MetricFamily))
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families, nil
}

// mergeFamily adds the series of src into dst. Families of different types
// are left alone.
func mergeFamily(dst, src *dto.MetricFamily) {
	if dst.GetType() != src.GetType() {
		return
	}
	index := make(map[string]*dto.Metric, len(dst.Metric))
	for _, metric := range dst.Metric {
		index[labelKey(metric)] = metric
	}
	for _, metric := range src.Metric {
		if existing, ok := index[labelKey(metric)]; ok {
			addMetric(existing, metric)
			continue
		}
		clone := proto.Clone(metric).(*dto.Metric)
		dst.Metric = append(dst.Metric, clone)
		index[labelKey(clone)] = clone
	}
}

func addMetric(dst, src *dto.Metric) {
	switch {
	case dst.Counter != nil && src.Counter != nil:
		dst.Counter.Value = proto.Float64(dst.Counter.GetValue() + src.Counter.GetValue())
	case dst.Gauge != nil && src.Gauge != nil:
		dst.Gauge.Value = proto.Float64(dst.Gauge.GetValue() + src.Gauge.GetValue())
	case dst.Untyped != nil && src.Untyped != nil:
		dst.Untyped.Value = proto.Float64(dst.Untyped.GetValue() + src.Untyped.GetValue())
	case dst.Histogram != nil && src.Histogram != nil:
		h := dst.Histogram
		h.SampleCount = proto.Uint64(h.GetSampleCount() + src.Histogram.GetSampleCount())
		h.SampleSum = proto.Float64(h.GetSampleSum() + src.Histogram.GetSampleSum())
		for _, b := range src.Histogram.Bucket {
			i := slices.IndexFunc(h.Bucket, func(d *dto.Bucket) bool {
				return d.GetUpperBound() == b.GetUpperBound()
			})
			if i < 0 {
				continue
			}
			h.Bucket[i].CumulativeCount = proto.Uint64(h.Bucket[i].GetCumulativeCount() + b.GetCumulativeCount())
		}
	}
}

// labelKey identifies a series within its family.
func labelKey(metric *dto.Metric) string {
	pairs := make([]string, 0, len(metric.Label))
	for _, l := range metric.Label {
		pairs = append(pairs, l.GetName()+"="+l.GetValue())
	}
	slices.Sort(pairs)
	return strings.Join(pairs, "\xff")
}
