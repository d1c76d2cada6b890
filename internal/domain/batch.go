package domain

// ============================================================
// Batch operations
// ============================================================

// BatchFailure records why one item of a batch was not applied.
type BatchFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult reports the per-item outcome of a batch. Batches are not
// atomic: items in Succeeded stay applied even when others failed.
type BatchResult struct {
	Operation string         `json:"operation"`
	Requested int            `json:"requested"`
	Succeeded []string       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// NewBatchResult starts an empty result for op.
func NewBatchResult(op string, requested int) *BatchResult {
	return &BatchResult{
		Operation: op,
		Requested: requested,
		Succeeded: []string{},
		Failed:    []BatchFailure{},
	}
}

// Record stores the outcome of a single item.
func (r *BatchResult) Record(id string, err error) {
	if err != nil {
		r.Failed = append(r.Failed, BatchFailure{ID: id, Error: err.Error()})
		return
	}
	r.Succeeded = append(r.Succeeded, id)
}

// Partial reports whether some, but not all, items were applied.
func (r *BatchResult) Partial() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) > 0
}

// BatchUpdateRequest is the body of POST /v1/transactions/batch-update.
type BatchUpdateRequest struct {
	IDs   []string         `json:"ids"`
	Patch TransactionPatch `json:"patch"`
}

// BatchDeleteRequest is the body of POST /v1/transactions/batch-delete.
type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// ReorderRequest is the body of POST /v1/accounts/{accountId}/transactions/reorder.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}
