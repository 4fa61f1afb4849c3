package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeExchangeName(t *testing.T) {
	cases := map[string]string{
		"weex":     ExchangeWeex,
		"WEEX":     ExchangeWeex,
		" Weex ":   ExchangeWeex,
		"binance":  ExchangeBinance,
		"OKX":      ExchangeOKX,
		"okx":      ExchangeOKX,
		"bitget":   ExchangeBitget,
		"gate":     ExchangeGate,
		"Gate.io":  ExchangeGate,
		"GATE.IO":  ExchangeGate,
	}
	for input, want := range cases {
		got, err := NormalizeExchangeName(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}
}

func TestNormalizeExchangeName_Unsupported(t *testing.T) {
	for _, input := range []string{"Kraken", "", "weex2"} {
		_, err := NormalizeExchangeName(input)
		var unsupported *UnsupportedExchangeError
		assert.ErrorAs(t, err, &unsupported, "input %q", input)
	}
}
