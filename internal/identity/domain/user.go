package domain

import "time"

// KYC verification states.
const (
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
	KYCStatusRejected = "rejected"
)

// User is a marketplace account. PasswordHash never leaves the identity
// module; everything client-facing goes through Public.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	Role         string
	KYCStatus    string
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-safe view of a user.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	KYCStatus string    `json:"kycStatus"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips credentials and internal flags.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		KYCStatus: u.KYCStatus,
		CreatedAt: u.CreatedAt,
	}
}
