package model

// SystemConfig is a runtime-tunable key/value setting. Well-known keys are
// listed below; unknown keys are allowed.
type SystemConfig struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string `gorm:"column:config_key;type:varchar(128);uniqueIndex;not null" json:"key"`
	Value     string `gorm:"column:config_value;type:text;not null" json:"value"`
	Remark    string `gorm:"type:varchar(255)" json:"remark"`
	UpdatedBy int64  `gorm:"type:bigint" json:"updated_by"`
	CreatedAt int64  `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64  `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (SystemConfig) TableName() string {
	return "system_configs"
}

// Well-known config keys.
const (
	ConfigKeyAutoBindApprove     = "AUTO_BIND_APPROVE"
	ConfigKeyMinWithdrawalAmount = "MIN_WITHDRAWAL_AMOUNT"
	ConfigKeyWithdrawalFee       = "WITHDRAWAL_FEE"
	ConfigKeyVipGateVolume       = "VIP_GATE_VOLUME"
	ConfigKeyVipInviteLink       = "VIP_INVITE_LINK"
	ConfigKeySettlementHourUTC   = "SETTLEMENT_HOUR_UTC"
	ConfigKeyCheckInBasePoints   = "CHECKIN_BASE_POINTS"
	ConfigKeyCheckInStreakStep   = "CHECKIN_STREAK_STEP"
)
