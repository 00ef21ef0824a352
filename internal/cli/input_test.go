package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/henkan/internal/fixture"
	"github.com/bastiangx/henkan/pkg/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, n int, romaji bool, input string) string {
	t.Helper()
	conv, err := converter.New(converter.DefaultOptions(fixture.Write(t)))
	require.NoError(t, err)
	t.Cleanup(func() { conv.Close() })

	var out bytes.Buffer
	h := NewInputHandlerWithIO(conv, n, romaji, strings.NewReader(input), &out)
	require.NoError(t, h.Start(context.Background()))
	return out.String()
}

func TestKanaInput(t *testing.T) {
	out := run(t, 3, false, "きのう\n")
	assert.Contains(t, out, "昨日")
	assert.Contains(t, out, "機能")
	assert.Contains(t, out, "(2500)")
}

func TestRomajiInput(t *testing.T) {
	out := run(t, 1, true, "toukyou\n")
	assert.Contains(t, out, "とうきょう")
	assert.Contains(t, out, "東京")
}

func TestCommands(t *testing.T) {
	out := run(t, 1, false, ":n 2\n:t\nきのう\n:q\nとうきょう\n")
	assert.Contains(t, out, "candidates: 2")
	assert.Contains(t, out, "tokens: true")
	assert.Contains(t, out, "機能")
	assert.Contains(t, out, "昨日/きのう")
	assert.NotContains(t, out, "東京", "input after :q is not read")
}

func TestClampedN(t *testing.T) {
	out := run(t, 1, false, ":n 1000\n")
	assert.Contains(t, out, "candidates: 100")
}
