package importer

import (
	"fmt"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

var statusSynonyms = map[string]domain.TxStatus{
	"completed": domain.StatusCompleted,
	"complete":  domain.StatusCompleted,
	"done":      domain.StatusCompleted,
	"已完成":       domain.StatusCompleted,
	"完成":        domain.StatusCompleted,
	"pending":   domain.StatusPending,
	"待处理":       domain.StatusPending,
	"处理中":       domain.StatusPending,
	"待定":        domain.StatusPending,
	"draft":     domain.StatusDraft,
	"草稿":        domain.StatusDraft,
}

// ParseStatus maps a status cell to a TxStatus. Empty cells default to
// Completed.
func ParseStatus(s string) (domain.TxStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.StatusCompleted, nil
	}
	if st, ok := statusSynonyms[strings.ToLower(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}
