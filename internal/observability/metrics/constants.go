// Package metrics provides custom Prometheus metrics for StressNet-Go.
package metrics

// Pipeline stages recorded in stage duration histograms.
const (
	// StageDecode covers decoding, cropping and resampling of the upload.
	StageDecode = "decode"
	// StageFeatures covers MFCC extraction.
	StageFeatures = "features"
	// StageInference covers the model invocation.
	StageInference = "inference"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Cache result label values.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)
