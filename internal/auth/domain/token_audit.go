package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenAudit records one delegated token issuance through the exchange
// endpoint. Rows are append-only; ordering across concurrent writers is not
// guaranteed.
type TokenAudit struct {
	ID              uuid.UUID
	ServiceClientID uuid.UUID
	ServiceGrantID  uuid.UUID
	UserID          uuid.UUID
	Scope           string // Space-joined scope list as issued
	IPAddress       string
	UserAgent       string
	Signature       []byte // HMAC-SHA256 over the canonical row, tamper evidence
	CreatedAt       time.Time
}
