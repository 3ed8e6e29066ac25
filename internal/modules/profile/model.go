// README: Profile aggregate: identity, role, driver presence, wallet balance and KYC state.
package profile

import (
	"time"

	"gazflow/internal/types"
)

type KYCStatus string

const (
	KYCPending  KYCStatus = "PENDING"
	KYCVerified KYCStatus = "VERIFIED"
	KYCRejected KYCStatus = "REJECTED"
)

func (k KYCStatus) Valid() bool {
	switch k {
	case KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}

type Profile struct {
	ID            types.ID
	Email         string
	FullName      string
	Phone         *string
	Role          types.Role
	IsOnline      bool
	LastLocation  *types.Point
	LastSeenAt    *time.Time
	WalletBalance int64
	KYCStatus     KYCStatus
	CreatedAt     time.Time
}

func (p *Profile) IsDriver() bool {
	return p.Role == types.RoleDriver
}

// Presence is one driver presence write: online flag plus an optional position.
type Presence struct {
	DriverID types.ID
	Online   bool
	Location *types.Point
}
