package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// Projects (budget accounts)
// ============================================================

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectOnHold    ProjectStatus = "On Hold"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// BODCategory is the board-of-directors portfolio a project belongs to.
type BODCategory string

const (
	BODPresident       BODCategory = "President"
	BODSecretary       BODCategory = "Secretary"
	BODTreasurer       BODCategory = "Treasurer"
	BODIndividual      BODCategory = "Individual"
	BODBusiness        BODCategory = "Business"
	BODCommunity       BODCategory = "Community"
	BODInternational   BODCategory = "International"
	BODLOM             BODCategory = "LOM"
	BODTraining        BODCategory = "Training"
	BODPublicRelations BODCategory = "PublicRelations"
)

// BODCategories lists every portfolio in display order.
var BODCategories = []BODCategory{
	BODPresident, BODSecretary, BODTreasurer, BODIndividual, BODBusiness,
	BODCommunity, BODInternational, BODLOM, BODTraining, BODPublicRelations,
}

// ParseBODCategory matches a category case-insensitively.
func ParseBODCategory(s string) (BODCategory, bool) {
	s = strings.TrimSpace(s)
	for _, c := range BODCategories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Project is a budgeted activity. Spent and remaining amounts are derived
// from matching bank transactions and are never stored.
type Project struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"projectid"`
	Name        string        `json:"name"`
	BODCategory BODCategory   `json:"bodCategory"`
	Budget      float64       `json:"budget"`
	Status      ProjectStatus `json:"status"`
	EventDate   TxDate        `json:"eventDate,omitempty"`
	Description string        `json:"description,omitempty"`
}

// ProjectCode is the decoded form of a composite project id.
type ProjectCode struct {
	Year        int
	BODCategory BODCategory
	Name        string
}

// String encodes the code as year_BODcategory_name.
func (c ProjectCode) String() string {
	return fmt.Sprintf("%d_%s_%s", c.Year, c.BODCategory, c.Name)
}

// ParseProjectCode decodes year_BODcategory_name. The name part may itself
// contain underscores.
func ParseProjectCode(code string) (ProjectCode, error) {
	parts := strings.SplitN(strings.TrimSpace(code), "_", 3)
	if len(parts) != 3 {
		return ProjectCode{}, &ErrValidation{Field: "projectid", Message: "expected year_BODcategory_name"}
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1900 || year > 9999 {
		return ProjectCode{}, &ErrValidation{Field: "projectid", Message: "invalid year " + strconv.Quote(parts[0])}
	}
	bod, ok := ParseBODCategory(parts[1])
	if !ok {
		return ProjectCode{}, &ErrValidation{Field: "projectid", Message: "unknown BOD category " + strconv.Quote(parts[1])}
	}
	if strings.TrimSpace(parts[2]) == "" {
		return ProjectCode{}, &ErrValidation{Field: "projectid", Message: "missing project name"}
	}
	return ProjectCode{Year: year, BODCategory: bod, Name: parts[2]}, nil
}

// ProjectRequest is the body of POST /v1/projects. When ProjectID is empty it
// is built from Year, BODCategory and Name.
type ProjectRequest struct {
	ProjectID   string        `json:"projectid,omitempty"`
	Year        int           `json:"year,omitempty"`
	Name        string        `json:"name"`
	BODCategory BODCategory   `json:"bodCategory"`
	Budget      float64       `json:"budget"`
	Status      ProjectStatus `json:"status,omitempty"`
	EventDate   string        `json:"eventDate,omitempty"`
	Description string        `json:"description,omitempty"`
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Budget      *float64       `json:"budget,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	EventDate   *string        `json:"eventDate,omitempty"`
	Description *string        `json:"description,omitempty"`
}

// Fields returns the document fields touched by the patch.
func (p *ProjectPatch) Fields() map[string]any {
	f := make(map[string]any)
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.Budget != nil {
		f["budget"] = *p.Budget
	}
	if p.Status != nil {
		f["status"] = string(*p.Status)
	}
	if p.EventDate != nil {
		f["eventDate"] = TxDate(*p.EventDate).Day()
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	return f
}

// ProjectSpending is a project with its derived budget figures.
type ProjectSpending struct {
	Project
	Spent        float64 `json:"spent"`
	Income       float64 `json:"income"`
	Remaining    float64 `json:"remaining"`
	Utilization  float64 `json:"utilization"` // spent / budget, 0 when budget is 0
	Transactions int     `json:"transactions"`
}
