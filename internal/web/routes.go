package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	loginPath         = "/Account/Login"
	registerPath      = "/Account/Register"
	rolesPath         = "/Account/AddRole"
	adminRegisterPath = "/Account/AdminRegister"
)

// RegisterRoutes registers all UI routes on the given router. Paths follow
// the {controller}/{action}/{id} convention of the original site.
func (ui *UI) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(ui.SessionMiddleware)

		// Public routes.
		r.Get("/", ui.HandleIndex)
		r.Get("/Contact/Index", ui.HandleIndex)

		r.Get(loginPath, ui.HandleLogin)
		r.Post(loginPath, ui.HandleLoginPost)
		r.Get(registerPath, ui.HandleRegister)
		r.Post(registerPath, ui.HandleRegisterPost)
		r.Post("/Account/Logout", ui.HandleLogout)

		// Routes that need a token the remote API still accepts.
		r.Group(func(r chi.Router) {
			r.Use(ui.TokenGuard)

			r.Get("/Contact/Add", ui.HandleAddContact)
			r.Post("/Contact/Add", ui.HandleAddContactPost)
			r.Get("/Contact/Details/{id}", ui.HandleDetails)
			// Non-admins are sent home rather than to the login page.
			r.Get("/Contact/Change/{id}", ui.HandleChange)

			// Admin routes.
			r.Group(func(r chi.Router) {
				r.Use(ui.AdminGuard)

				r.Post("/Contact/Change", ui.HandleChangePost)
				r.Post("/Contact/Delete/{id}", ui.HandleDelete)

				r.Get(rolesPath, ui.HandleRoles)
				r.Post("/Account/CreateNewRole", ui.HandleCreateRole)
				r.Post("/Account/AddUserRole", ui.HandleAssignRole)
				r.Post("/Account/RemoveUserRole", ui.HandleRevokeRole)
				r.Post("/Account/RemoveUser", ui.HandleRemoveUser)
				r.Get(adminRegisterPath, ui.HandleAdminRegister)
				r.Post(adminRegisterPath, ui.HandleAdminRegisterPost)
			})
		})
	})
}

// StaticHandler returns an http.Handler that serves static files from the given directory.
func StaticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.StripPrefix("/static/", fs)
}
