package insight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenAgent(t *testing.T) {
	var n agentNode
	n.ID = "fd7eb9b8-99d4-4a63-b4e1-abc123"
	n.Platform = "linux"
	n.Host.Vendor = "Ubuntu"
	n.Host.Version = "22.04"
	n.Host.HostNames = []struct {
		Name string `json:"name"`
	}{{Name: "web-01"}, {Name: "web-01.internal"}}
	n.Host.PrimaryAddress.IP = "10.0.0.5"
	n.Host.PrimaryAddress.MAC = "aa:bb:cc:dd:ee:ff"
	n.Host.Attributes = []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}{{Key: "hostType", Value: "VIRTUAL_MACHINE"}}
	n.Agent.ID = "agent-1"
	n.Agent.AgentStatus = "ONLINE"
	n.Agent.Version = "4.0.13.32"

	a := flattenAgent(n)
	assert.Equal(t, "web-01", a.Hostname)
	assert.Equal(t, "fd7eb9b8-99d4-4a63-b4e1-abc123", a.AssetID)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", a.MACAddress)
	assert.Equal(t, "VIRTUAL_MACHINE", a.HostType)
	assert.Equal(t, "ONLINE", a.AgentStatus)
}

func TestSummarizeAgents(t *testing.T) {
	agents := []Agent{
		{AgentStatus: "online", AgentVersion: "4.0.13.32"},
		{AgentStatus: "ONLINE", AgentVersion: "4.0.13.32"},
		{AgentStatus: "offline", AgentVersion: "3.2.1.9"},
		{AgentStatus: "", AgentVersion: ""},
	}
	sum := SummarizeAgents(agents)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Statuses["ONLINE"])
	assert.Equal(t, 1, sum.Statuses["OFFLINE"])
	assert.Equal(t, 1, sum.Statuses["UNKNOWN"])
	assert.Equal(t, 2, sum.Versions["4.0.13.32"])
	assert.Equal(t, 1, sum.Versions["Unknown"])
}

func TestListAgentsRequiresOrg(t *testing.T) {
	c := testClient(t)
	_, err := c.ListAgents(context.Background(), "", 10)
	assert.Error(t, err)
}
