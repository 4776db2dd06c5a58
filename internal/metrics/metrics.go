// Package metrics exposes batch counters in Prometheus format. smbfix is a
// one-shot CLI, so metrics are not served over HTTP: they are written at the
// end of a batch to a file for the node_exporter textfile collector.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/backmassage/smbfix/internal/pipeline"
)

// Collector records batch metrics into its own registry. It implements
// pipeline.Recorder.
type Collector struct {
	reg *prometheus.Registry

	FilesTotal      *prometheus.CounterVec
	EncodeDuration  prometheus.Histogram
	InputBytes      prometheus.Counter
	OutputBytes     prometheus.Counter
	BatchRunning    prometheus.Gauge
	BatchFiles      prometheus.Gauge
	BatchLastFinish prometheus.Gauge
}

var _ pipeline.Recorder = (*Collector)(nil)

// New creates a Collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		reg: reg,
		FilesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbfix_files_total",
				Help: "Files processed, by outcome",
			},
			[]string{"outcome"},
		),
		EncodeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smbfix_encode_duration_seconds",
				Help:    "Wall time of successful encodes in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s .. ~2.3h
			},
		),
		InputBytes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "smbfix_input_bytes_total",
				Help: "Source bytes of successfully encoded files",
			},
		),
		OutputBytes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "smbfix_output_bytes_total",
				Help: "Output bytes of successfully encoded files",
			},
		),
		BatchRunning: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "smbfix_batch_running",
				Help: "Whether a batch is currently running (1 = running, 0 = idle)",
			},
		),
		BatchFiles: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "smbfix_batch_files",
				Help: "Candidate files found in the current or last batch",
			},
		),
		BatchLastFinish: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "smbfix_batch_last_finished_timestamp_seconds",
				Help: "Unix time the last batch finished",
			},
		),
	}
}

// BeginBatch marks a batch as running.
func (c *Collector) BeginBatch(_ context.Context, b pipeline.BatchInfo) error {
	c.BatchRunning.Set(1)
	c.BatchFiles.Set(float64(b.Total))
	return nil
}

// RecordFile counts one result.
func (c *Collector) RecordFile(_ context.Context, r pipeline.FileResult) error {
	c.FilesTotal.WithLabelValues(r.Outcome.String()).Inc()
	if r.Outcome == pipeline.OutcomeEncoded {
		c.EncodeDuration.Observe(r.Duration.Seconds())
		c.InputBytes.Add(float64(r.InputBytes))
		c.OutputBytes.Add(float64(r.OutputBytes))
	}
	return nil
}

// EndBatch marks the batch finished.
func (c *Collector) EndBatch(context.Context, pipeline.RunStats) error {
	c.BatchRunning.Set(0)
	c.BatchLastFinish.Set(float64(time.Now().Unix()))
	return nil
}

// Gatherer exposes the registry, e.g. for a promhttp handler.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.reg }

// WriteTextfile writes every metric to path in the text exposition format.
// The file is written to a temporary name and renamed, so a collector never
// reads a partial file.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
