package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTables(t *testing.T) {
	all, err := selectTables(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	some, err := selectTables([]string{"comments", "users"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "comments", some[0].Name)
	assert.Equal(t, "users", some[1].Name)

	_, err = selectTables([]string{"settings"})
	assert.ErrorContains(t, err, "unknown table")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := rootCommand()
	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "status"}, names)
}
