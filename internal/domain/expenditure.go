package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryOperations  Category = "Operations"
	CategoryMaintenance Category = "Maintenance"
	CategoryEvents      Category = "Events"
	CategoryUtilities   Category = "Utilities"
	CategorySupplies    Category = "Supplies"
	CategoryEmergency   Category = "Emergency"
	CategoryOther       Category = "Other"
)

// Categories lists the fixed expenditure categories in display order
func Categories() []Category {
	return []Category{
		CategoryOperations,
		CategoryMaintenance,
		CategoryEvents,
		CategoryUtilities,
		CategorySupplies,
		CategoryEmergency,
		CategoryOther,
	}
}

// ParseCategory returns the category named by s
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type ExpenditureStatus string

const (
	ExpenditureApproved ExpenditureStatus = "approved"
	ExpenditurePending  ExpenditureStatus = "pending"
	ExpenditureRejected ExpenditureStatus = "rejected"
)

// ParseExpenditureStatus returns the status named by s
func ParseExpenditureStatus(s string) (ExpenditureStatus, bool) {
	switch st := ExpenditureStatus(s); st {
	case ExpenditureApproved, ExpenditurePending, ExpenditureRejected:
		return st, true
	}
	return "", false
}

type Expenditure struct {
	ID              int32             `json:"id"`
	CreatedBy       int32             `json:"createdBy"`
	CreatorName     string            `json:"creatorName,omitempty"`
	Amount          decimal.Decimal   `json:"amount"`
	ExpenditureDate time.Time         `json:"expenditureDate"`
	Category        Category          `json:"category"`
	Description     string            `json:"description"`
	ProofFile       *string           `json:"proofFile,omitempty"`
	Status          ExpenditureStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

type ExpenditureFilter struct {
	Category *Category
	Status   *ExpenditureStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

type ExpenditureRepository interface {
	Create(ctx context.Context, e *Expenditure) (*Expenditure, error)
	GetByID(ctx context.Context, id int32) (*Expenditure, error)
	List(ctx context.Context, filter ExpenditureFilter, page PageRequest) (*Page[*Expenditure], error)
	Update(ctx context.Context, e *Expenditure) (*Expenditure, error)
	UpdateStatus(ctx context.Context, id int32, status ExpenditureStatus) (*Expenditure, error)
	SetProof(ctx context.Context, id int32, proof string) (*Expenditure, error)
	Delete(ctx context.Context, id int32) error
	Recent(ctx context.Context, approvedOnly bool, limit int) ([]*Expenditure, error)
}
