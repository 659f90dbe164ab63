package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winbingo.dev/bingo-bot/internal/common"
)

func TestParseConfirmationCBE(t *testing.T) {
	text := "Dear customer, you have transferred ETB 150.00 to WIN BINGO on 01/03/2026. Ref FT24123ABC45. CBE thanks you."

	c, err := ParseConfirmation(text)
	require.NoError(t, err)
	assert.Equal(t, ProviderCBE, c.Provider)
	assert.Equal(t, "FT24123ABC45", c.Reference)
	assert.Equal(t, int64(15000), c.Amount)
}

func TestParseConfirmationTelebirr(t *testing.T) {
	text := "You have paid 25.00 Birr via telebirr. Receipt No BAE63KQ2M1 on 01/03/2026."

	c, err := ParseConfirmation(text)
	require.NoError(t, err)
	assert.Equal(t, ProviderTelebirr, c.Provider)
	assert.Equal(t, "BAE63KQ2M1", c.Reference)
	assert.Equal(t, int64(2500), c.Amount)
}

func TestParseConfirmationAmountWithThousands(t *testing.T) {
	text := "CBE: transferred ETB 1,250.50, Ref FT0000AAAA11"

	c, err := ParseConfirmation(text)
	require.NoError(t, err)
	assert.Equal(t, int64(125050), c.Amount)
}

func TestParseConfirmationNoAmount(t *testing.T) {
	// Номер есть, суммы нет — разбор проходит, Amount нулевой
	text := "CBE transfer completed, Ref FT24123ABC45"

	c, err := ParseConfirmation(text)
	require.NoError(t, err)
	assert.Equal(t, "FT24123ABC45", c.Reference)
	assert.Zero(t, c.Amount)
}

func TestParseConfirmationUnknownProvider(t *testing.T) {
	_, err := ParseConfirmation("перевёл тебе стольник, зачисли")
	assert.ErrorIs(t, err, common.ErrParseFailed)
}

func TestParseConfirmationNoReference(t *testing.T) {
	_, err := ParseConfirmation("CBE transfer of ETB 100.00 completed ok")
	assert.ErrorIs(t, err, common.ErrParseFailed)
}
