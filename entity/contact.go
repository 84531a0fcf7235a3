package entity

import (
	"time"
)

// VerifiedContact records a guest contact that has passed COD verification
type VerifiedContact struct {
	ID             int           `db:"id" json:"id"`
	Contact        string        `db:"contact" json:"contact"`
	Method         ContactMethod `db:"method" json:"method"`
	VerifiedAt     time.Time     `db:"verified_at" json:"verified_at"`
	LastVerifiedAt *time.Time    `db:"last_verified_at" json:"last_verified_at"`
	VerifyCount    int           `db:"verify_count" json:"verify_count"`
}

// TableName returns the table name for the VerifiedContact entity
func (VerifiedContact) TableName() string {
	return "verified_contacts"
}

// ContactResponse represents the verified contact response
type ContactResponse struct {
	ID             int           `json:"id"`
	Contact        string        `json:"contact"`
	Method         ContactMethod `json:"method"`
	VerifiedAt     time.Time     `json:"verified_at"`
	LastVerifiedAt *time.Time    `json:"last_verified_at"`
	VerifyCount    int           `json:"verify_count"`
}

// ContactsListResponse represents the paginated list of verified contacts
type ContactsListResponse struct {
	Contacts   []ContactResponse `json:"contacts"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// CODRedeemResponse is returned when a COD auth token is consumed by an order
type CODRedeemResponse struct {
	Contact string        `json:"contact"`
	Method  ContactMethod `json:"method"`
	Purpose OTPPurpose    `json:"purpose"`
	Message string        `json:"message"`
}
