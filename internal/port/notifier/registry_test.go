package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct{ name, url string }

func (s stubNotifier) Name() string                             { return s.name }
func (s stubNotifier) Send(context.Context, Notification) error { return nil }

func init() {
	Register("stub-a", func(url string) (Notifier, error) { return stubNotifier{"stub-a", url}, nil })
	Register("stub-b", func(url string) (Notifier, error) { return stubNotifier{"stub-b", url}, nil })
}

func TestFromTargets(t *testing.T) {
	got, err := FromTargets(map[string]string{"stub-b": "https://b", "stub-a": "https://a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "stub-a", got[0].Name())
	assert.Equal(t, "https://a", got[0].(stubNotifier).url)
	assert.Equal(t, "stub-b", got[1].Name())
}

func TestFromTargetsUnknown(t *testing.T) {
	_, err := FromTargets(map[string]string{"pager": "https://p"})
	assert.ErrorContains(t, err, `unknown provider "pager"`)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("stub-a", func(string) (Notifier, error) { return nil, nil })
	})
}

func TestAvailableSorted(t *testing.T) {
	names := Available()
	assert.True(t, len(names) >= 2)
	assert.IsIncreasing(t, names)
}
