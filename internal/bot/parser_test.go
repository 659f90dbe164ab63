package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cmd, args, ok := p.ParseCommand("!войти 25 7")
	assert.True(t, ok)
	assert.Equal(t, "войти", cmd)
	assert.Equal(t, []string{"25", "7"}, args)

	cmd, _, ok = p.ParseCommand("/start")
	assert.True(t, ok)
	assert.Equal(t, "start", cmd)

	cmd, args, ok = p.ParseCommand("  .БАЛАНС  ")
	assert.True(t, ok)
	assert.Equal(t, "баланс", cmd)
	assert.Empty(t, args)
}

func TestParseCommandNotACommand(t *testing.T) {
	p := NewCommandParser()

	_, _, ok := p.ParseCommand("привет, как дела?")
	assert.False(t, ok)

	_, _, ok = p.ParseCommand("!")
	assert.False(t, ok)

	_, _, ok = p.ParseCommand("")
	assert.False(t, ok)
}
