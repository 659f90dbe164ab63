package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "150.00 быр", FormatMoney(15000))
	assert.Equal(t, "10.50 быр", FormatMoney(1050))
	assert.Equal(t, "0.05 быр", FormatMoney(5))
	assert.Equal(t, "0.00 быр", FormatMoney(0))
	assert.Equal(t, "-5.00 быр", FormatMoney(-500))
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"150", 15000},
		{"150.5", 15050},
		{"150.50", 15050},
		{"150,50", 15050},
		{"  25  ", 2500},
		{"0.01", 1},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseMoneyErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "10.", "10.123", "10.ab"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "игрок", PluralizePlayers(1))
	assert.Equal(t, "игрока", PluralizePlayers(3))
	assert.Equal(t, "игроков", PluralizePlayers(5))
	assert.Equal(t, "игроков", PluralizePlayers(11))
	assert.Equal(t, "игрок", PluralizePlayers(21))
	assert.Equal(t, "номеров", PluralizeNumbers(14))
	assert.Equal(t, "монеты", PluralizeCoins(102))
}
