package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/omm/internal/omm"
	"github.com/danmuck/omm/internal/testutil/testlog"
)

func TestRunRecyclesInstances(t *testing.T) {
	testlog.Start(t)
	m := omm.NewManager(omm.Options{})
	res, err := run(m, 50, 6)
	require.NoError(t, err)
	require.Equal(t, 50, res.Messages)
	require.Positive(t, res.Bytes)

	// The released message keeps its decoded payload for the next decode, so
	// only the first message allocates entries.
	for _, s := range m.Stats() {
		switch s.Name {
		case "updatemsg":
			require.Zero(t, s.Live)
		case "fieldentry":
			require.Equal(t, uint64(6), s.Misses)
			require.Equal(t, uint64(49*6), s.Hits)
		}
	}

	var out bytes.Buffer
	report(&out, m, res)
	require.Contains(t, out.String(), "50 messages")
	require.Contains(t, out.String(), "fieldentry")
}

func TestRootCmdRejectsBadCounts(t *testing.T) {
	testlog.Start(t)
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--count", "0"})
	require.Error(t, cmd.Execute())

	cmd = newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--count", "3", "--fields", "2"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "3 messages")
}
