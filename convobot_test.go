package convobot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecastro/convobot/capability/currency"
	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/internal/testutil"
	"github.com/ecastro/convobot/model"
	"github.com/ecastro/convobot/session"
)

func rateServer(t *testing.T) *httptest.Server {
	t.Helper()
	return testutil.JSONServer(t, http.StatusOK, map[string]any{
		"date":  "2026-08-31",
		"rates": map[string]float64{"USD": 1, "EUR": 0.9, "GBP": 0.8},
	})
}

func newBot(t *testing.T, optFns ...func(o *Options)) *Bot {
	t.Helper()
	srv := rateServer(t)

	bot := New(optFns...)
	conv := currency.NewClient(func(o *currency.Options) { o.BaseURL = srv.URL })
	require.NoError(t, bot.RegisterCapability(currency.Descriptor(), conv))
	return bot
}

func TestBotConversationWithMemory(t *testing.T) {
	completer := model.NewMockCompleter("test", "mock")
	completer.AddResponse("my name is Ada", "Nice to meet you, Ada!")
	completer.AddResponse("what is my name?", "You told me your name is Ada.")
	bot := newBot(t, func(o *Options) { o.Completer = completer })

	ctx := context.Background()
	res := bot.Dispatch(ctx, "user-1", "my name is Ada")
	require.True(t, res.OK)
	assert.Equal(t, "Nice to meet you, Ada!", res.Reply)

	res = bot.Dispatch(ctx, "user-1", "what is my name?")
	require.True(t, res.OK)
	assert.Equal(t, "You told me your name is Ada.", res.Reply)
}

func TestBotCurrencyConversion(t *testing.T) {
	bot := newBot(t)

	res := bot.Dispatch(context.Background(), "user-1", "convert 100 USD EUR")
	require.True(t, res.OK, "reply: %s", res.Reply)
	assert.Equal(t, "currency", res.Capability)
	assert.Contains(t, res.Reply, "90.00")
	assert.Contains(t, res.Reply, "EUR")
}

func TestBotValidationErrorKeepsConversation(t *testing.T) {
	bot := newBot(t)
	ctx := context.Background()

	res := bot.Dispatch(ctx, "user-1", "convert 100 USD XYZ")
	require.False(t, res.OK)
	require.NotNil(t, res.Err)
	assert.Equal(t, core.KindValidation, res.Err.Kind)

	// The conversation continues normally afterwards.
	res = bot.Dispatch(ctx, "user-1", "hello again")
	assert.True(t, res.OK)
}

func TestBotUpstreamOutageGenericReply(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded at 10.1.2.3", http.StatusBadGateway)
	}))
	defer down.Close()

	bot := New()
	conv := currency.NewClient(func(o *currency.Options) { o.BaseURL = down.URL })
	require.NoError(t, bot.RegisterCapability(currency.Descriptor(), conv))

	res := bot.Dispatch(context.Background(), "user-1", "convert 100 USD EUR")
	require.False(t, res.OK)
	assert.Equal(t, core.KindUpstream, res.Err.Kind)
	assert.NotContains(t, res.Reply, "10.1.2.3")
	assert.Contains(t, res.Reply, "try again later")
}

func TestBotResetForgetsHistory(t *testing.T) {
	store := session.NewStore()
	bot := newBot(t, func(o *Options) { o.SessionStore = store })
	ctx := context.Background()

	bot.Dispatch(ctx, "user-1", "remember this")
	require.NoError(t, bot.ResetSession("user-1"))

	turns, err := store.History("user-1", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestBotRegisterAfterDispatchFails(t *testing.T) {
	bot := newBot(t)
	bot.Dispatch(context.Background(), "user-1", "hello")

	err := bot.RegisterCapability(core.Descriptor{Name: "late"}, core.InvokerFunc(
		func(ctx context.Context, args core.Args) (string, error) { return "", nil }))
	require.Error(t, err)
}

func TestBotUsersAreIsolated(t *testing.T) {
	store := session.NewStore()
	bot := newBot(t, func(o *Options) { o.SessionStore = store })
	ctx := context.Background()

	bot.Dispatch(ctx, "alice", "alice talking")
	bot.Dispatch(ctx, "bob", "bob talking")

	aliceTurns, err := store.History("alice", 0)
	require.NoError(t, err)
	for _, turn := range aliceTurns {
		assert.NotContains(t, turn.Text, "bob")
	}
}

func TestBotHelpAndCapabilities(t *testing.T) {
	bot := newBot(t)

	descs := bot.Capabilities()
	require.Len(t, descs, 1)
	assert.Equal(t, "currency", descs[0].Name)
	assert.Contains(t, bot.HelpText(), "currency")
}

func TestBotDefaultsAreUsable(t *testing.T) {
	bot := New(func(o *Options) { o.CallTimeout = time.Second })

	res := bot.Dispatch(context.Background(), "user-1", "hello there")
	require.True(t, res.OK)
	assert.NotEmpty(t, res.Reply)
}
