package insight

import (
	"context"
	"net/http"
)

// Account platform management: organizations, users, keys, products,
// roles, resource groups, and feature grants.

// accountList fetches a collection endpoint. Some of these return a bare
// array, others wrap it in a "data" envelope.
func (c *Client) accountList(ctx context.Context, path string) ([]map[string]any, error) {
	var raw any
	if err := c.getJSON(ctx, c.BaseURL(ProductAccount)+path, nil, &raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case []any:
		return coerceMaps(v), nil
	case map[string]any:
		if data, ok := v["data"].([]any); ok {
			return coerceMaps(data), nil
		}
	}
	return nil, nil
}

func coerceMaps(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// ListOrganizations returns every organization the key can see.
func (c *Client) ListOrganizations(ctx context.Context) ([]map[string]any, error) {
	return c.accountList(ctx, "/organizations")
}

// ListUsers returns all platform users.
func (c *Client) ListUsers(ctx context.Context) ([]map[string]any, error) {
	return c.accountList(ctx, "/users")
}

// GetUser fetches one user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductAccount)+"/users/"+userID, nil, &out)
	return out, err
}

// ListAPIKeys returns the account's API keys.
func (c *Client) ListAPIKeys(ctx context.Context) ([]map[string]any, error) {
	return c.accountList(ctx, "/api-keys")
}

// CreateAPIKey mints a new key. Organization keys need an orgID.
func (c *Client) CreateAPIKey(ctx context.Context, name, keyType, orgID string) (map[string]any, error) {
	body := map[string]any{"name": name, "type": keyType}
	if orgID != "" {
		body["organization_id"] = orgID
	}
	var out map[string]any
	err := c.postJSON(ctx, c.BaseURL(ProductAccount)+"/api-keys", body, &out)
	return out, err
}

// DeleteAPIKey revokes a key by ID.
func (c *Client) DeleteAPIKey(ctx context.Context, keyID string) error {
	_, _, err := c.Do(ctx, http.MethodDelete, c.BaseURL(ProductAccount)+"/api-keys/"+keyID, nil, nil)
	return err
}

// ListProducts returns product entitlements.
func (c *Client) ListProducts(ctx context.Context) ([]map[string]any, error) {
	return c.accountList(ctx, "/products")
}

// GetProduct fetches one product by token.
func (c *Client) GetProduct(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductAccount)+"/products/"+token, nil, &out)
	return out, err
}

// ListProductUsers returns users with access to a product.
func (c *Client) ListProductUsers(ctx context.Context, token string) ([]map[string]any, error) {
	return c.accountList(ctx, "/products/"+token+"/users")
}

// ListRoles returns all defined roles.
func (c *Client) ListRoles(ctx context.Context) ([]map[string]any, error) {
	return c.accountList(ctx, "/roles")
}

// GetRole fetches one role by ID.
func (c *Client) GetRole(ctx context.Context, roleID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductAccount)+"/roles/"+roleID, nil, &out)
	return out, err
}

// DeleteRole removes a role.
func (c *Client) DeleteRole(ctx context.Context, roleID string) error {
	_, _, err := c.Do(ctx, http.MethodDelete, c.BaseURL(ProductAccount)+"/roles/"+roleID, nil, nil)
	return err
}

// ListResourceGroups returns the raw resource group response. Groups are
// split across granular_control_resource_groups and
// non_granular_control_resource_groups.
func (c *Client) ListResourceGroups(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductAccount)+"/resource-groups", nil, &out)
	return out, err
}

// ListFeatures returns feature and permission definitions.
func (c *Client) ListFeatures(ctx context.Context) ([]map[string]any, error) {
	return c.accountList(ctx, "/features")
}

// TestConnection checks key validity by listing organizations.
func (c *Client) TestConnection(ctx context.Context) (int, error) {
	orgs, err := c.ListOrganizations(ctx)
	if err != nil {
		return 0, err
	}
	return len(orgs), nil
}
