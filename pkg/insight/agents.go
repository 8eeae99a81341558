package insight

import (
	"context"
	"fmt"
	"strings"
)

// Agent is a flattened view of one Insight Agent asset from the agent
// management GraphQL API.
type Agent struct {
	Hostname      string `json:"hostname"`
	AssetID       string `json:"asset_id"`
	AgentID       string `json:"agent_id"`
	Platform      string `json:"platform"`
	OSVendor      string `json:"os_vendor"`
	OSVersion     string `json:"os_version"`
	OSDescription string `json:"os_description"`
	HostType      string `json:"host_type"`
	PrivateIP     string `json:"private_ip"`
	PublicIP      string `json:"public_ip"`
	MACAddress    string `json:"mac_address"`
	AgentVersion  string `json:"agent_version"`
	AgentStatus   string `json:"agent_status"`
	DeployTime    string `json:"deploy_time"`
	LastUpdate    string `json:"last_update"`
}

const agentsQuery = `query agents($orgId: String!, $first: Int!) {
  organization(id: $orgId) {
    assets(first: $first) {
      edges {
        node {
          id
          platform
          host {
            description
            vendor
            version
            hostNames { name }
            primaryAddress { ip mac }
            publicIpAddress
            attributes { key value }
          }
          agent {
            id
            agentStatus
            version
            deployTime
            lastUpdateTime
          }
        }
      }
    }
  }
}`

type agentNode struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Host     struct {
		Description string `json:"description"`
		Vendor      string `json:"vendor"`
		Version     string `json:"version"`
		HostNames   []struct {
			Name string `json:"name"`
		} `json:"hostNames"`
		PrimaryAddress struct {
			IP  string `json:"ip"`
			MAC string `json:"mac"`
		} `json:"primaryAddress"`
		PublicIPAddress string `json:"publicIpAddress"`
		Attributes      []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"attributes"`
	} `json:"host"`
	Agent struct {
		ID             string `json:"id"`
		AgentStatus    string `json:"agentStatus"`
		Version        string `json:"version"`
		DeployTime     string `json:"deployTime"`
		LastUpdateTime string `json:"lastUpdateTime"`
	} `json:"agent"`
}

// ListAgents fetches up to limit agent-monitored assets for an
// organization via the GraphQL preview API.
func (c *Client) ListAgents(ctx context.Context, orgID string, limit int) ([]Agent, error) {
	if orgID == "" {
		return nil, fmt.Errorf("organization id is required for agent queries")
	}
	if limit <= 0 {
		limit = 1000
	}
	var out struct {
		Assets struct {
			Edges []struct {
				Node agentNode `json:"node"`
			} `json:"edges"`
		} `json:"assets"`
	}
	req := graphqlRequest{
		Query: agentsQuery,
		Variables: map[string]any{
			"orgId": orgID,
			"first": limit,
		},
	}
	if err := c.graphqlAt(ctx, c.BaseURL(ProductAgents), req, &out); err != nil {
		return nil, err
	}
	agents := make([]Agent, 0, len(out.Assets.Edges))
	for _, edge := range out.Assets.Edges {
		agents = append(agents, flattenAgent(edge.Node))
	}
	return agents, nil
}

// GetAgent returns the agent whose asset or agent id matches id.
func (c *Client) GetAgent(ctx context.Context, orgID, id string) (*Agent, error) {
	agents, err := c.ListAgents(ctx, orgID, 0)
	if err != nil {
		return nil, err
	}
	for i := range agents {
		if agents[i].AssetID == id || agents[i].AgentID == id {
			return &agents[i], nil
		}
	}
	return nil, fmt.Errorf("no agent found for asset %s", id)
}

func flattenAgent(n agentNode) Agent {
	a := Agent{
		AssetID:       n.ID,
		Platform:      n.Platform,
		OSVendor:      n.Host.Vendor,
		OSVersion:     n.Host.Version,
		OSDescription: n.Host.Description,
		PrivateIP:     n.Host.PrimaryAddress.IP,
		MACAddress:    strings.ToUpper(n.Host.PrimaryAddress.MAC),
		PublicIP:      n.Host.PublicIPAddress,
		AgentID:       n.Agent.ID,
		AgentStatus:   n.Agent.AgentStatus,
		AgentVersion:  n.Agent.Version,
		DeployTime:    n.Agent.DeployTime,
		LastUpdate:    n.Agent.LastUpdateTime,
	}
	if len(n.Host.HostNames) > 0 {
		a.Hostname = n.Host.HostNames[0].Name
	}
	for _, attr := range n.Host.Attributes {
		if strings.EqualFold(attr.Key, "hostType") {
			a.HostType = attr.Value
		}
	}
	return a
}

// AgentStatusSummary buckets agents by status and version.
type AgentStatusSummary struct {
	Total    int            `json:"total_agents"`
	Statuses map[string]int `json:"status_breakdown"`
	Versions map[string]int `json:"version_breakdown"`
}

// SummarizeAgents counts agents per status and per agent version.
func SummarizeAgents(agents []Agent) *AgentStatusSummary {
	sum := &AgentStatusSummary{
		Total:    len(agents),
		Statuses: map[string]int{},
		Versions: map[string]int{},
	}
	for _, a := range agents {
		status := strings.ToUpper(a.AgentStatus)
		if status == "" {
			status = "UNKNOWN"
		}
		sum.Statuses[status]++
		version := a.AgentVersion
		if version == "" {
			version = "Unknown"
		}
		sum.Versions[version]++
	}
	return sum
}
