package model

import (
	"fmt"
	"strings"
)

// Exchange is a supported trading venue, created lazily on first reference.
// Name always holds the canonical casing (see NormalizeExchangeName).
type Exchange struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"type:varchar(32);uniqueIndex;not null" json:"name"`
	CreatedAt int64  `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
}

// TableName returns the table name.
func (Exchange) TableName() string {
	return "exchanges"
}

// Canonical exchange names. The set is closed; anything else is rejected
// at the ingestion boundary.
const (
	ExchangeBinance = "Binance"
	ExchangeOKX     = "OKX"
	ExchangeBitget  = "Bitget"
	ExchangeGate    = "Gate.io"
	ExchangeWeex    = "Weex"
)

// SupportedExchanges lists all canonical exchange names.
var SupportedExchanges = []string{
	ExchangeBinance,
	ExchangeOKX,
	ExchangeBitget,
	ExchangeGate,
	ExchangeWeex,
}

// exchangeAliases folds case/format variants to canonical names.
var exchangeAliases = map[string]string{
	"binance": ExchangeBinance,
	"okx":     ExchangeOKX,
	"bitget":  ExchangeBitget,
	"gate":    ExchangeGate,
	"gate.io": ExchangeGate,
	"weex":    ExchangeWeex,
}

// UnsupportedExchangeError is returned for names outside the closed set.
type UnsupportedExchangeError struct {
	Name string
}

func (e *UnsupportedExchangeError) Error() string {
	return fmt.Sprintf("unsupported exchange: %s", e.Name)
}

// NormalizeExchangeName folds an exchange name alias to its canonical form.
func NormalizeExchangeName(name string) (string, error) {
	canonical, ok := exchangeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &UnsupportedExchangeError{Name: name}
	}
	return canonical, nil
}
