// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidvault"

var (
	// CacheOperationsTotal tracks URL cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: memory, redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// CacheEntries reports the in-memory cache size observed by the last sweep.
	// Labels:
	//   - state: active, expired
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Number of in-memory cache entries by state",
		},
		[]string{"state"},
	)

	// CacheEvictionsTotal counts entries removed by the periodic sweep.
	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sweep_evictions_total",
			Help:      "Total number of expired entries removed by the cache sweep",
		},
	)

	// AuthDecisionsTotal tracks API-key gate outcomes.
	// Labels:
	//   - result: authorized, missing_credential, invalid_credential
	AuthDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Total number of API key authorization decisions",
		},
		[]string{"result"},
	)

	// StorageOperationsTotal tracks calls to the storage gateway.
	// Labels:
	//   - operation: upload, list, resolve_url, delete
	//   - status: success, error
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Total number of storage gateway operations",
		},
		[]string{"operation", "status"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Cache entry state constants.
const (
	CacheStateActive  = "active"
	CacheStateExpired = "expired"
)

// Auth result constants.
const (
	AuthResultAuthorized        = "authorized"
	AuthResultMissingCredential = "missing_credential"
	AuthResultInvalidCredential = "invalid_credential"
)

// Storage operation constants.
const (
	StorageOpUpload     = "upload"
	StorageOpList       = "list"
	StorageOpResolveURL = "resolve_url"
	StorageOpDelete     = "delete"

	StorageStatusSuccess = "success"
	StorageStatusError   = "error"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
