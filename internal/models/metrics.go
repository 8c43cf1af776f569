package models

import "time"

// SystemMetrics is a lightweight summary of the process instrumentation.
type SystemMetrics struct {
	CacheHitRatio              float64   `json:"cacheHitRatio"`
	CacheHits                  uint64    `json:"cacheHits"`
	CacheMisses                uint64    `json:"cacheMisses"`
	RequestsTotal              uint64    `json:"requestsTotal"`
	AverageRequestDurationMs   float64   `json:"averageRequestDurationMs"`
	StoreCallCount             uint64    `json:"storeCallCount"`
	AverageStoreCallDurationMs float64   `json:"averageStoreCallDurationMs"`
	ImportBatchesApplied       uint64    `json:"importBatchesApplied"`
	ImportBatchesFailed        uint64    `json:"importBatchesFailed"`
	ImportRecordsApplied       uint64    `json:"importRecordsApplied"`
	ImportRecordsSkipped       uint64    `json:"importRecordsSkipped"`
	Goroutines                 int       `json:"goroutines"`
	GeneratedAt                time.Time `json:"generatedAt"`
}
