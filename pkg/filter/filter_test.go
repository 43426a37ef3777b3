package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		input  []string
		want   []string
	}{
		{
			name:   "prefix, suffix and denylist",
			policy: Policy{Prefix: "play-", ExcludeSuffix: "license", Denylist: []string{"play-services"}},
			input:  []string{"play-a", "play-b", "play-services", "license-x"},
			want:   []string{"play-a", "play-b"},
		},
		{
			name:   "license suffix excluded even with prefix",
			policy: DefaultPolicy(),
			input:  []string{"play-services-base", "play-services-license", "play-services-basement"},
			want:   []string{"play-services-base", "play-services-basement"},
		},
		{
			name:   "order and duplicates preserved",
			policy: Policy{Prefix: "play-"},
			input:  []string{"play-z", "play-a", "play-z"},
			want:   []string{"play-z", "play-a", "play-z"},
		},
		{
			name:   "empty suffix disables suffix rule",
			policy: Policy{Prefix: "play-"},
			input:  []string{"play-license"},
			want:   []string{"play-license"},
		},
		{
			name:   "nothing survives",
			policy: DefaultPolicy(),
			input:  []string{"firebase-core", "play-services"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Filter(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_DenylistAlwaysExcluded(t *testing.T) {
	p := DefaultPolicy()
	for _, id := range DefaultDenylist {
		got, err := p.Filter([]string{id})
		require.NoError(t, err)
		assert.Empty(t, got, "%s should be excluded", id)
	}
}

func TestFilter_PrefixRequiredRegardlessOfDenylist(t *testing.T) {
	ids := []string{"firebase-messaging", "gms-base", "Play-services-base", ""}
	for _, deny := range [][]string{nil, ids} {
		p := Policy{Prefix: "play-", Denylist: deny}
		got, err := p.Filter(ids)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestFilter_Script(t *testing.T) {
	t.Run("script can drop survivors", func(t *testing.T) {
		p := Policy{
			Prefix: "play-",
			Script: `text := import("text")
keep = !text.has_suffix(name, "-cronet")`,
		}
		got, err := p.Filter([]string{"play-services-base", "play-services-cronet", "other"})
		require.NoError(t, err)
		assert.Equal(t, []string{"play-services-base"}, got)
	})

	t.Run("script runs only after static rules", func(t *testing.T) {
		p := Policy{Prefix: "play-", Denylist: []string{"play-x"}, Script: `keep = true`}
		got, err := p.Filter([]string{"play-x", "nope", "play-y"})
		require.NoError(t, err)
		assert.Equal(t, []string{"play-y"}, got)
	})

	t.Run("compile error is a config error", func(t *testing.T) {
		p := Policy{Prefix: "play-", Script: `keep = (`}
		_, err := p.Filter([]string{"play-a"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, pkgerrors.ErrConfig))
	})

	t.Run("non bool keep is rejected", func(t *testing.T) {
		p := Policy{Prefix: "play-", Script: `keep = "yes"`}
		_, err := p.Filter([]string{"play-a"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, pkgerrors.ErrConfig))
	})
}

func TestDefaultPolicyIsACopy(t *testing.T) {
	p := DefaultPolicy()
	p.Denylist[0] = "changed"
	assert.NotEqual(t, "changed", DefaultDenylist[0])
}
