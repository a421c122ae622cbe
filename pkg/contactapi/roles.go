package contactapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/me/contactbook/pkg/model"
)

// CurrentRoles returns the roles held by the token's owner.
func (c *Client) CurrentRoles(ctx context.Context) ([]string, error) {
	return c.names(ctx, "CurrentRoles", "/CurrentRoles")
}

// ListUsers returns the names of all registered users.
func (c *Client) ListUsers(ctx context.Context) ([]string, error) {
	return c.names(ctx, "ListUsers", "/GetUsers")
}

// ListAdmins returns the names of users holding the Admin role.
func (c *Client) ListAdmins(ctx context.Context) ([]string, error) {
	return c.names(ctx, "ListAdmins", "/GetAdmins")
}

func (c *Client) names(ctx context.Context, op, path string) ([]string, error) {
	if err := c.requireToken(op); err != nil {
		return nil, err
	}
	names, err := getJSON[[]string](ctx, c, op, path)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// CreateRole creates a role. The result holds ResultRoleCreated or ResultRoleExists.
func (c *Client) CreateRole(ctx context.Context, roleName string) (model.Result, error) {
	return c.resultCall(ctx, "CreateRole", "/RoleCreate", model.RoleModel{RoleName: roleName}, kindCreateRole)
}

// AssignRole grants roleName to userName.
func (c *Client) AssignRole(ctx context.Context, roleName, userName string) (model.Result, error) {
	body := model.RoleModel{RoleName: roleName, UserName: userName}
	return c.resultCall(ctx, "AssignRole", "/AddRoleToUser", body, kindAssignRole)
}

// RevokeRole takes roleName away from userName.
func (c *Client) RevokeRole(ctx context.Context, roleName, userName string) (model.Result, error) {
	body := model.RoleModel{RoleName: roleName, UserName: userName}
	return c.resultCall(ctx, "RevokeRole", "/RemoveUserRole", body, kindRevokeRole)
}

// RemoveUser deletes the account userName.
func (c *Client) RemoveUser(ctx context.Context, userName string) (model.Result, error) {
	return c.resultCall(ctx, "RemoveUser", "/RemoveUser", model.RoleModel{UserName: userName}, kindRemoveUser)
}

// resultCall posts a command and decodes its outcome. The identity API
// answers refusals such as a missing user with 4xx and a readable body, so
// those bodies are decoded too. Auth failures and 5xx remain errors.
func (c *Client) resultCall(ctx context.Context, op, path string, body model.RoleModel, kind resultKind) (model.Result, error) {
	if err := c.requireToken(op); err != nil {
		return model.Result{}, err
	}

	resp, err := c.send(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return model.Result{}, err
	}

	switch {
	case resp.ok():
	case resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden:
		return model.Result{}, WrapError(op, resp.asError())
	case resp.Status >= 500 || strings.TrimSpace(string(resp.Body)) == "":
		return model.Result{}, WrapError(op, resp.asError())
	}

	return decodeResult(kind, resp.Body), nil
}
