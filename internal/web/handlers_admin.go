package web

import (
	"net/http"
	"strings"

	"github.com/me/contactbook/internal/session"
	"github.com/me/contactbook/pkg/model"
)

// Flash slots of the account administration page.
const (
	flashCreateRole = "createRole"
	flashAssignRole = "assignRole"
	flashRevokeRole = "revokeRole"
	flashRemoveUser = "removeUser"
)

const recentEventsLimit = 20

// HandleRoles renders the administration page: the caller's roles, all
// users, admins and the recent local activity.
func (ui *UI) HandleRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	api := ui.client(r)

	roles, err := api.CurrentRoles(ctx)
	if err != nil {
		ui.logger.Error("current roles failed", "error", err)
	}
	users, err := api.ListUsers(ctx)
	if err != nil {
		ui.logger.Error("list users failed", "error", err)
		users = []string{}
	}
	admins, err := api.ListAdmins(ctx)
	if err != nil {
		ui.logger.Error("list admins failed", "error", err)
		admins = []string{}
	}
	events, err := ui.audit.ListRecent(ctx, "", recentEventsLimit)
	if err != nil {
		ui.logger.Error("list audit events failed", "error", err)
	}

	data := ui.page(w, r, "Roles")
	data["Roles"] = roles
	if len(roles) == 0 {
		data["RolesText"] = "Role not defined"
	} else {
		data["RolesText"] = strings.Join(roles, ", ")
	}
	data["Users"] = users
	data["Admins"] = admins
	data["Events"] = events
	ui.render(w, http.StatusOK, "account/roles", data)
}

// HandleCreateRole creates a role.
func (ui *UI) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	roleName, _, ok := ui.roleForm(w, r, flashCreateRole, true, false)
	if !ok {
		return
	}

	res, err := ui.client(r).CreateRole(r.Context(), roleName)
	var f session.Flash
	switch {
	case err != nil:
		ui.logger.Error("create role failed", "role", roleName, "error", err)
		f.Set(flashCreateRole, "Error")
	case res.Has(model.ResultRoleCreated):
		f.Set(flashCreateRole, "Role created successfully!")
		f.Flag("isCreate", true)
	default:
		f.Set(flashCreateRole, "Role already exists")
		f.Flag("isCreate", false)
	}
	ui.audited(r, model.AuditRoleCreate, roleName, err == nil && res.Has(model.ResultRoleCreated))
	ui.flash(w, f)
	http.Redirect(w, r, rolesPath, http.StatusSeeOther)
}

// HandleAssignRole grants a role to a user.
func (ui *UI) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	roleName, userName, ok := ui.roleForm(w, r, flashAssignRole, true, true)
	if !ok {
		return
	}

	res, err := ui.client(r).AssignRole(r.Context(), roleName, userName)
	var f session.Flash
	switch {
	case err != nil:
		ui.logger.Error("assign role failed", "role", roleName, "user", userName, "error", err)
		f.Set(flashAssignRole, "Error")
	case res.Has(model.ResultRoleAssigned):
		f.Set(flashAssignRole, "Role added successfully")
		f.Set("assignRoleUser", "User is valid")
		f.Set("assignRoleRole", "Role is available for assignment")
		f.Flag("isRoleAvailable", true)
		f.Flag("isUserAvailable", true)
	default:
		f.Set(flashAssignRole, "The role was not added")
		if res.Has(model.ResultRoleAvailable) {
			f.Set("assignRoleRole", "Role is available for assignment")
		} else {
			f.Set("assignRoleRole", "Error: the role does not exist")
		}
		if res.Has(model.ResultUserFound) {
			f.Set("assignRoleUser", "User is valid")
		} else {
			f.Set("assignRoleUser", "User not found")
		}
		f.Flag("isRoleAvailable", res.Has(model.ResultRoleAvailable))
		f.Flag("isUserAvailable", res.Has(model.ResultUserFound))
	}
	ui.audited(r, model.AuditRoleAssign, userName+":"+roleName, err == nil && res.Has(model.ResultRoleAssigned))
	ui.flash(w, f)
	http.Redirect(w, r, rolesPath, http.StatusSeeOther)
}

// HandleRevokeRole takes a role away from a user.
func (ui *UI) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	roleName, userName, ok := ui.roleForm(w, r, flashRevokeRole, true, true)
	if !ok {
		return
	}

	res, err := ui.client(r).RevokeRole(r.Context(), roleName, userName)
	var f session.Flash
	switch {
	case err != nil:
		ui.logger.Error("revoke role failed", "role", roleName, "user", userName, "error", err)
		f.Set(flashRevokeRole, "Error")
	case res.Has(model.ResultRoleRevoked):
		f.Set(flashRevokeRole, "Role removed successfully")
		f.Flag("isUserHaveRole", true)
	case res.Has(model.ResultRoleNotHeld):
		f.Set(flashRevokeRole, "Role is not held by the user")
		f.Flag("isUserHaveRole", false)
	default:
		f.Set(flashRevokeRole, "The role was not removed")
		if res.Has(model.ResultRoleAvailable) {
			f.Set("revokeRoleRole", "Role is available for removal")
		} else {
			f.Set("revokeRoleRole", "Error: the role does not exist")
		}
		if !res.Has(model.ResultUserFound) {
			f.Set("revokeRoleUser", "User not found")
		}
		f.Flag("isUserHaveRole", false)
	}
	ui.audited(r, model.AuditRoleRevoke, userName+":"+roleName, err == nil && res.Has(model.ResultRoleRevoked))
	ui.flash(w, f)
	http.Redirect(w, r, rolesPath, http.StatusSeeOther)
}

// HandleRemoveUser deletes a user account.
func (ui *UI) HandleRemoveUser(w http.ResponseWriter, r *http.Request) {
	_, userName, ok := ui.roleForm(w, r, flashRemoveUser, false, true)
	if !ok {
		return
	}

	res, err := ui.client(r).RemoveUser(r.Context(), userName)
	var f session.Flash
	switch {
	case err != nil:
		ui.logger.Error("remove user failed", "user", userName, "error", err)
		f.Set(flashRemoveUser, "Error")
		f.Flag("isRemoveUser", false)
	case res.Has(model.ResultUserRemoved):
		f.Set(flashRemoveUser, "User deleted successfully")
		f.Flag("isRemoveUser", true)
	case res.Has(model.ResultUserMissing):
		f.Set(flashRemoveUser, "User not found")
		f.Flag("isRemoveUser", false)
	default:
		f.Set(flashRemoveUser, "Error")
		f.Flag("isRemoveUser", false)
	}
	ui.audited(r, model.AuditUserRemove, userName, err == nil && res.Has(model.ResultUserRemoved))
	ui.flash(w, f)
	http.Redirect(w, r, rolesPath, http.StatusSeeOther)
}

// roleForm reads roleName and userName, requiring the ones asked for. A
// missing field redirects back with a flash in slot and returns false.
func (ui *UI) roleForm(w http.ResponseWriter, r *http.Request, slot string, needRole, needUser bool) (string, string, bool) {
	if err := r.ParseForm(); err != nil {
		ui.flashRedirect(w, r, rolesPath, slot, "Invalid request")
		return "", "", false
	}
	roleName := strings.TrimSpace(r.PostFormValue("roleName"))
	userName := strings.TrimSpace(r.PostFormValue("userName"))

	switch {
	case needRole && roleName == "":
		ui.flashRedirect(w, r, rolesPath, slot, "Enter a role name")
		return "", "", false
	case needUser && userName == "":
		ui.flashRedirect(w, r, rolesPath, slot, "Enter a user name")
		return "", "", false
	}
	return roleName, userName, true
}

// audited records an administrative action by the current user.
func (ui *UI) audited(r *http.Request, action model.AuditAction, target string, ok bool) {
	outcome := model.OutcomeOK
	if !ok {
		outcome = model.OutcomeFailed
	}
	ui.record(r, action, SessionFromContext(r.Context()).Username, target, outcome)
}
