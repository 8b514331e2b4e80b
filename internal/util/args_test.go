package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecastro/convobot/core"
)

var currencySpecs = []core.ArgSpec{
	{Name: "amount", Type: core.ArgNumber, Required: true},
	{Name: "from", Type: core.ArgCode, Required: true, Enum: []string{"USD", "EUR", "GBP"}},
	{Name: "to", Type: core.ArgCode, Required: true, Enum: []string{"USD", "EUR", "GBP"}},
}

func TestValidateArgs(t *testing.T) {
	t.Run("normalizes codes and coerces numbers", func(t *testing.T) {
		out, err := ValidateArgs(core.Args{"amount": "100,5", "from": "usd", "to": "eur"}, currencySpecs)
		require.NoError(t, err)
		assert.Equal(t, 100.5, out.Number("amount"))
		assert.Equal(t, "USD", out.String("from"))
		assert.Equal(t, "EUR", out.String("to"))
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		_, err := ValidateArgs(core.Args{"amount": 10.0, "from": "USD", "to": "XXX"}, currencySpecs)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "to", verr.Field)
		assert.Contains(t, verr.Message, `unknown code "XXX"`)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := ValidateArgs(core.Args{"amount": -5.0, "from": "USD", "to": "EUR"}, currencySpecs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive")
	})

	t.Run("rejects missing required argument", func(t *testing.T) {
		_, err := ValidateArgs(core.Args{"amount": 10.0, "from": "USD"}, currencySpecs)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "to", verr.Field)
	})

	t.Run("trims free text and rejects empty required text", func(t *testing.T) {
		specs := []core.ArgSpec{{Name: "text", Type: core.ArgString, Required: true}}
		out, err := ValidateArgs(core.Args{"text": "  hola  "}, specs)
		require.NoError(t, err)
		assert.Equal(t, "hola", out.String("text"))

		_, err = ValidateArgs(core.Args{"text": "   "}, specs)
		require.Error(t, err)
	})

	t.Run("does not mutate the input map", func(t *testing.T) {
		in := core.Args{"amount": "10", "from": "usd", "to": "eur"}
		_, err := ValidateArgs(in, currencySpecs)
		require.NoError(t, err)
		assert.Equal(t, "usd", in["from"])
		assert.Equal(t, "10", in["amount"])
	})
}

func TestParseAmount(t *testing.T) {
	f, err := ParseAmount("100,5")
	require.NoError(t, err)
	assert.Equal(t, 100.5, f)

	_, err = ParseAmount("abc")
	assert.Error(t, err)
	_, err = ParseAmount("-10")
	assert.Error(t, err)
	_, err = ParseAmount("0")
	assert.Error(t, err)
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SplitText("hello", 10))

	long := "line one\nline two\nline three"
	chunks := SplitText(long, 12)
	assert.Greater(t, len(chunks), 1)
	var joined string
	for _, c := range chunks {
		joined += c
	}
	assert.Equal(t, long, joined)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hola", Truncate("hola", 10))
	assert.Equal(t, "hol...", Truncate("hola que tal", 3))
}
