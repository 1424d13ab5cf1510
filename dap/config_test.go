package dap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigRestartReissuesSpecificationAndRollsStateBackUp(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	newFakeAdapter(adapterSide)

	session := d.Launch("debug main", "launch", "main.go", false, client)
	cfgID, ok := session.Entity().One("config")
	require.True(t, ok)
	cfg, _ := d.store.Entity(cfgID)

	_, err := session.Send("initialize", map[string]any{"adapterID": "test"}, 0)
	require.NoError(t, err)
	require.Equal(t, "running", cfg.Get("state"))

	session.handleClosed(nil)
	require.Equal(t, "terminated", cfg.Get("state"))
	require.Equal(t, 1, len(cfg.Edge("sessions").Snapshot()), "expected the terminated session to stay linked until restart unlinks it")

	client2, adapterSide2 := NewMemTransportPair()
	newFakeAdapter(adapterSide2)
	restarted := d.Restart(cfg, client2)

	require.Equal(t, "running", cfg.Get("state"), "expected the new session to roll cfg.state back up")
	ids := cfg.Edge("sessions").Snapshot()
	require.Equal(t, 1, len(ids))
	require.Equal(t, restarted.Entity().ID(), ids[0], "expected only the new session linked to the config")
	require.NotEqual(t, session.Entity().ID(), restarted.Entity().ID())
}

func TestConfigStopAllTerminatesSiblingsWhenRootEnds(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	newFakeAdapter(adapterSide)
	root := d.Launch("debug main", "launch", "main.go", true, client)

	childClient, childAdapterSide := NewMemTransportPair()
	newFakeAdapter(childAdapterSide)
	cfgID, _ := root.Entity().One("config")
	cfg, _ := d.store.Entity(cfgID)
	child := d.StartChild(cfg, root, childClient)

	root.handleClosed(nil)

	require.Equal(t, "terminated", root.Entity().Get("state"))
	require.Equal(t, "terminated", child.Entity().Get("state"), "expected stopAll to terminate the sibling session")
}

func TestLeafRollupTracksChildSessionsAndIsQueryable(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	newFakeAdapter(adapterSide)
	root := d.Launch("debug main", "launch", "main.go", false, client)
	require.Equal(t, true, root.Entity().Get("leaf"))

	cfgID, _ := root.Entity().One("config")
	cfg, _ := d.store.Entity(cfgID)
	childClient, childAdapterSide := NewMemTransportPair()
	newFakeAdapter(childAdapterSide)
	child := d.StartChild(cfg, root, childClient)

	require.Equal(t, false, root.Entity().Get("leaf"), "expected a parent with a live child to no longer be a leaf")
	require.Equal(t, true, child.Entity().Get("leaf"))

	leaves, err := d.QueryMany("/sessions(leaf=true)")
	require.NoError(t, err)
	require.Equal(t, 1, len(leaves))
	require.Equal(t, child.Entity().ID(), leaves[0].ID())
}
