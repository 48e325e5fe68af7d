package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolSpec(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		wantErr bool
		allows  map[string]bool
	}{
		{
			name:   "explicit set",
			names:  []string{"echo", "greet"},
			allows: map[string]bool{"echo": true, "greet": true, "farewell": false},
		},
		{
			name:   "all tools sentinel",
			names:  []string{"*"},
			allows: map[string]bool{"anything": true, "echo": true},
		},
		{
			name:   "empty set allows nothing",
			names:  nil,
			allows: map[string]bool{"echo": false},
		},
		{
			name:    "sentinel mixed with names rejected",
			names:   []string{"echo", "*"},
			wantErr: true,
		},
		{
			name:    "empty tool name rejected",
			names:   []string{""},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := NewToolSpec(tc.names)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for bare, want := range tc.allows {
				assert.Equal(t, want, spec.Allows(bare), "Allows(%q)", bare)
			}
		})
	}
}

func TestNewTableRejectsDuplicateProvider(t *testing.T) {
	_, err := NewTable(map[string][]Grant{
		"agentA": {
			{Provider: "svcA", Tools: AllToolsSpec()},
			{Provider: "svcA", Tools: AllToolsSpec()},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, &DuplicateProviderError{})
}

func TestNewTableRejectsBadProviderName(t *testing.T) {
	_, err := NewTable(map[string][]Grant{
		"agentA": {{Provider: "svc_a", Tools: AllToolsSpec()}},
	})
	require.Error(t, err)
}

func TestForCallerPreservesOrder(t *testing.T) {
	table, err := NewTable(map[string][]Grant{
		"agentA": {
			{Provider: "svcA", Tools: AllToolsSpec()},
			{Provider: "svcB", Tools: AllToolsSpec()},
			{Provider: "svcC", Tools: AllToolsSpec()},
		},
	})
	require.NoError(t, err)

	grants := table.ForCaller("agentA")
	require.Len(t, grants, 3)
	assert.Equal(t, "svcA", grants[0].Provider)
	assert.Equal(t, "svcB", grants[1].Provider)
	assert.Equal(t, "svcC", grants[2].Provider)
}

func TestForCallerUnknownSubjectIsEmpty(t *testing.T) {
	table, err := NewTable(map[string][]Grant{
		"agentA": {{Provider: "svcA", Tools: AllToolsSpec()}},
	})
	require.NoError(t, err)

	assert.Empty(t, table.ForCaller("stranger"))
	assert.Empty(t, (*Table)(nil).ForCaller("anyone"))
}
