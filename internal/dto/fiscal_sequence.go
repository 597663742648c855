package dto

import "time"

// CreateSequenceRequest registers a numbering range granted by the tax authority.
type CreateSequenceRequest struct {
	TypeCode   string    `json:"typeCode" binding:"required,fiscaltype"`
	Series     string    `json:"series" binding:"max=4"`
	RangeStart int64     `json:"rangeStart" binding:"required,min=1"`
	RangeEnd   int64     `json:"rangeEnd" binding:"required,gtefield=RangeStart,max=99999999"`
	Expiry     time.Time `json:"expiry" binding:"required"`
}

// ReserveNumberRequest reserves a standalone fiscal number.
type ReserveNumberRequest struct {
	TypeCode string `json:"typeCode" binding:"required,fiscaltype"`
}
