package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/log"
)

// fakeProvider is a scripted Provider for registry tests.
type fakeProvider struct {
	name        string
	descriptors []Descriptor
	listErr     error
	callFn      func(name string, args map[string]any) (*Result, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ListTools(ctx context.Context) ([]Descriptor, error) {
	return f.descriptors, f.listErr
}

func (f *fakeProvider) CallTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	return f.callFn(name, args)
}

func descriptor(name string) Descriptor {
	return Descriptor{
		Name:        name,
		Description: name + " description",
		Schema:      json.RawMessage(`{"type":"object"}`),
	}
}

func TestDiscover_AggregatesInProviderOrder(t *testing.T) {
	r := NewRegistry(log.NewNop())

	a := &fakeProvider{name: "a", descriptors: []Descriptor{descriptor("one"), descriptor("two")}}
	b := &fakeProvider{name: "b", descriptors: []Descriptor{descriptor("three")}}

	require.NoError(t, r.Discover(context.Background(), a, b))

	catalog := r.Catalog()
	require.Len(t, catalog, 3)
	assert.Equal(t, "one", catalog[0].Name)
	assert.Equal(t, "two", catalog[1].Name)
	assert.Equal(t, "three", catalog[2].Name)
}

func TestDiscover_LaterProviderShadowsEarlier(t *testing.T) {
	r := NewRegistry(log.NewNop())

	first := &fakeProvider{
		name:        "first",
		descriptors: []Descriptor{descriptor("shared")},
		callFn: func(string, map[string]any) (*Result, error) {
			return &Result{Content: []string{"from first"}}, nil
		},
	}
	second := &fakeProvider{
		name:        "second",
		descriptors: []Descriptor{descriptor("shared")},
		callFn: func(string, map[string]any) (*Result, error) {
			return &Result{Content: []string{"from second"}}, nil
		},
	}

	require.NoError(t, r.Discover(context.Background(), first, second))

	// One catalog entry, owned by the later provider.
	catalog := r.Catalog()
	require.Len(t, catalog, 1)

	res := r.Invoke(context.Background(), "call-1", "shared", nil)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"from second"}, res.Content)
}

func TestDiscover_ProviderFailureFailsDiscovery(t *testing.T) {
	r := NewRegistry(log.NewNop())

	ok := &fakeProvider{name: "ok", descriptors: []Descriptor{descriptor("one")}}
	broken := &fakeProvider{name: "broken", listErr: errors.New("transport down")}

	err := r.Discover(context.Background(), ok, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestInvoke_UnknownToolNeverRaises(t *testing.T) {
	r := NewRegistry(log.NewNop())

	res := r.Invoke(context.Background(), "call-1", "missing_tool", map[string]any{})
	require.NotNil(t, res)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "missing_tool")
	assert.Equal(t, "call-1", res.CallID)
}

func TestInvoke_ProviderErrorBecomesErrorResult(t *testing.T) {
	r := NewRegistry(log.NewNop())

	p := &fakeProvider{
		name:        "p",
		descriptors: []Descriptor{descriptor("flaky")},
		callFn: func(string, map[string]any) (*Result, error) {
			return nil, errors.New("connection reset")
		},
	}
	require.NoError(t, r.Discover(context.Background(), p))

	res := r.Invoke(context.Background(), "call-2", "flaky", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "flaky")
	assert.Contains(t, res.Text(), "connection reset")
}

func TestInvoke_PanicBecomesErrorResult(t *testing.T) {
	r := NewRegistry(log.NewNop())

	p := &fakeProvider{
		name:        "p",
		descriptors: []Descriptor{descriptor("boom")},
		callFn: func(string, map[string]any) (*Result, error) {
			panic("tool exploded")
		},
	}
	require.NoError(t, r.Discover(context.Background(), p))

	res := r.Invoke(context.Background(), "call-3", "boom", nil)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "boom")
}

func TestInvoke_StampsCallIDAndName(t *testing.T) {
	r := NewRegistry(log.NewNop())

	p := &fakeProvider{
		name:        "p",
		descriptors: []Descriptor{descriptor("echo")},
		callFn: func(string, map[string]any) (*Result, error) {
			return &Result{Content: []string{"ok"}}, nil
		},
	}
	require.NoError(t, r.Discover(context.Background(), p))

	res := r.Invoke(context.Background(), "call-9", "echo", nil)
	assert.Equal(t, "call-9", res.CallID)
	assert.Equal(t, "echo", res.Name)
}

func TestResult_Text(t *testing.T) {
	assert.Equal(t, "", (&Result{}).Text())
	assert.Equal(t, "a", (&Result{Content: []string{"a"}}).Text())
	assert.Equal(t, "a\nb", (&Result{Content: []string{"a", "b"}}).Text())
}
