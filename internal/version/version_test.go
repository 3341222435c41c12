package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satishbabariya/ehrquery/internal/version"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		current    string
		constraint string
		wantErr    error
		invalid    bool
	}{
		{current: "0.1.0", constraint: "0.1"},
		{current: "0.3.0", constraint: "0.2"},
		{current: "0.1.0", constraint: ">= 0.1, < 1.0"},
		{current: "1.2.3", constraint: "~> 1.2"},
		{current: "0.1.0", constraint: "0.2", wantErr: version.ErrOutdated},
		{current: "0.1.0", constraint: "> 0.1.0", wantErr: version.ErrOutdated},
		{current: "dev", constraint: "0.1", invalid: true},
		{current: "0.1.0", constraint: "newest", invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.current+" "+tt.constraint, func(t *testing.T) {
			err := version.Check(tt.current, tt.constraint)
			switch {
			case tt.invalid:
				assert.ErrorContains(t, err, "invalid version")
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := version.Get()
	assert.Equal(t, version.Version, info.Version)
	assert.True(t, strings.HasPrefix(info.String(), "ehrquery version "+version.Version))
	assert.Contains(t, info.FullString(), "Git Commit: "+version.GitCommit)
}
