package model

import "github.com/google/uuid"

// ProgramStatistics aggregates enrollment counts and partner ranking for one program
type ProgramStatistics struct {
	ProgramID       uuid.UUID        `json:"programId"`
	TotalPartners   int64            `json:"totalPartners"`
	StatusCounts    map[string]int64 `json:"statusCounts"`
	TotalSaleAmount int64            `json:"totalSaleAmount"` // cents
	TotalPaidOut    int64            `json:"totalPaidOut"`    // cents
	TopPartners     []PartnerRanking `json:"topPartners"`
}

// StatusCount is one row of the enrollments-by-status grouping
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// PartnerRanking represents a ranked partner based on attributed sales
type PartnerRanking struct {
	PartnerID  uuid.UUID `json:"partnerId"`
	Name       string    `json:"name"`
	Clicks     int64     `json:"clicks"`
	Sales      int64     `json:"sales"`
	SaleAmount int64     `json:"saleAmount"`
}
