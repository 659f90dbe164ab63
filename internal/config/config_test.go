package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStakesCSV(t *testing.T) {
	stakes, err := parseStakesCSV("10,25,50,100")
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 2500, 5000, 10000}, stakes, "ставки переводятся в сантимы")
}

func TestParseStakesCSVErrors(t *testing.T) {
	_, err := parseStakesCSV("10,10")
	assert.Error(t, err, "дубликаты запрещены")

	_, err = parseStakesCSV("10,-5")
	assert.Error(t, err, "отрицательная ставка")

	_, err = parseStakesCSV("10,abc")
	assert.Error(t, err)
}

func TestParseInt64CSV(t *testing.T) {
	ids, err := parseInt64CSV(" 1, 2 ,3 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = parseInt64CSV("")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		AdminIDs:                []int64{1},
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		DBMaxConns:              25,
		DBMinConns:              5,
		GameStakes:              []int64{1000},
		GamePayoutFraction:      0.8,
		GameCallInterval:        5 * time.Second,
		GameBoardCount:          100,
	}
	assert.NoError(t, cfg.Validate())

	bad := *cfg
	bad.GamePayoutFraction = 1.5
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.AdminIDs = nil
	assert.Error(t, bad.Validate())
}
