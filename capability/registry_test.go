package capability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecastro/convobot/core"
)

func echoDescriptor(name string) core.Descriptor {
	return core.Descriptor{
		Name:        name,
		Description: "echoes its text argument",
		Args: []core.ArgSpec{
			{Name: "text", Type: core.ArgString, Required: true},
		},
	}
}

func echoInvoker() core.Invoker {
	return core.InvokerFunc(func(_ context.Context, args core.Args) (string, error) {
		return args.String("text"), nil
	})
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoDescriptor("echo"), echoInvoker()))

	err := r.Register(echoDescriptor("echo"), echoInvoker())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterRejectsEmptyNameAndNilInvoker(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(core.Descriptor{}, echoInvoker()))
	assert.Error(t, r.Register(echoDescriptor("echo"), nil))
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"currency", "translate", "lyrics", "weather"} {
		require.NoError(t, r.Register(echoDescriptor(name), echoInvoker()))
	}

	var names []string
	for _, d := range r.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"currency", "translate", "lyrics", "weather"}, names)
}

func TestInvokeValidatesArgs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoDescriptor("echo"), echoInvoker()))

	out, err := r.Invoke(context.Background(), "echo", core.Args{"text": "  hola  "})
	require.NoError(t, err)
	assert.Equal(t, "hola", out)

	_, err = r.Invoke(context.Background(), "echo", core.Args{})
	var derr *core.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.KindValidation, derr.Kind)
	assert.Equal(t, "echo", derr.Capability)
}

func TestInvokeUnknownCapability(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "nope", core.Args{})
	var derr *core.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.KindInternal, derr.Kind)
}

func TestInvokeClassifiesFailures(t *testing.T) {
	r := NewRegistry()

	boom := core.InvokerFunc(func(context.Context, core.Args) (string, error) {
		return "", errors.New("upstream exploded")
	})
	slow := core.InvokerFunc(func(ctx context.Context, _ core.Args) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "too late", nil
		}
	})

	desc := core.Descriptor{Name: "boom"}
	require.NoError(t, r.Register(desc, boom))
	require.NoError(t, r.Register(core.Descriptor{Name: "slow"}, slow))

	_, err := r.Invoke(context.Background(), "boom", nil)
	var derr *core.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.KindUpstream, derr.Kind)
	assert.Equal(t, "boom", derr.Capability)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Invoke(ctx, "slow", nil)
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.KindTimeout, derr.Kind)
}
