package model

// ReplayNonce is a single-use token consumed by the signed-request
// boundary. The unique index makes the second use of a nonce fail the
// insert, which is the whole replay check.
type ReplayNonce struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Nonce     string `gorm:"type:varchar(128);uniqueIndex;not null" json:"nonce"`
	UserID    int64  `gorm:"type:bigint" json:"user_id"`
	CreatedAt int64  `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
}

// TableName returns the table name.
func (ReplayNonce) TableName() string {
	return "replay_nonces"
}
