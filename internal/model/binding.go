package model

// BindingStatus is the review state of a user/exchange UID binding.
type BindingStatus string

const (
	BindingStatusPending  BindingStatus = "PENDING"
	BindingStatusVerified BindingStatus = "VERIFIED"
	BindingStatusRejected BindingStatus = "REJECTED"
)

// UserBinding links a platform user to an exchange account UID.
// Unique per (user, exchange); only VERIFIED bindings attract trade data.
type UserBinding struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64         `gorm:"uniqueIndex:uk_user_exchange;not null" json:"user_id"`
	ExchangeID   int64         `gorm:"uniqueIndex:uk_user_exchange;not null" json:"exchange_id"`
	UID          string        `gorm:"type:varchar(64);index;not null" json:"uid"`
	Status       BindingStatus `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	ReviewedBy   int64         `gorm:"type:bigint" json:"reviewed_by"`
	ReviewedAt   int64         `gorm:"type:bigint" json:"reviewed_at"`
	RejectReason string        `gorm:"type:varchar(255)" json:"reject_reason"`
	CreatedAt    int64         `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt    int64         `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (UserBinding) TableName() string {
	return "user_bindings"
}
