package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skye-hx/watchparty/internal/session"
)

func TestHostCmd_RequiresMedia(t *testing.T) {
	flagMedia = ""

	err := hostCmd.RunE(hostCmd, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrNoMedia))
}

func TestHostCmd_RequiresCodeOrNew(t *testing.T) {
	flagMedia = "movie.ivf"
	flagNewRoom = false
	defer func() { flagMedia = "" }()

	err := hostCmd.RunE(hostCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--new")
}
