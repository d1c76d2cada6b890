package domain

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ImportMetrics is returned by GET /v1/metrics/imports.
type ImportMetrics struct {
	RecordsValid    int64   `json:"recordsValid"`
	RecordsInvalid  int64   `json:"recordsInvalid"`
	RecordsUpdate   int64   `json:"recordsUpdate"`
	InvalidRate     float64 `json:"invalidRate"`
	BatchFailures   int64   `json:"batchFailures"`
	BalanceMismatch int64   `json:"balanceMismatches"`
	CacheHitRate    float64 `json:"cacheHitRate"`
	Period          string  `json:"period"`
}

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
