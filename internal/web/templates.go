package web

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"join": strings.Join,
	"outcomeColor": func(outcome string) string {
		switch outcome {
		case "ok":
			return "bg-green-100 text-green-800"
		case "denied":
			return "bg-yellow-100 text-yellow-800"
		default:
			return "bg-red-100 text-red-800"
		}
	},
	"inputClass": func(errMsg string) string {
		if errMsg != "" {
			return "border-red-400"
		}
		return "border-gray-300"
	},
}

// renderTemplate renders a page template inside the shared layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	if _, err = tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	// Add shared components.
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			if _, err = tmpl.New(filepath.Base(compName)).Parse(compContent); err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}

	return tmpl.Execute(w, data)
}

var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <link rel="stylesheet" href="/static/css/app.css">
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex justify-between h-16">
                <div class="flex">
                    <a href="/" class="flex items-center px-2 py-2 text-xl font-bold text-indigo-600">Contact Book</a>
                    <div class="hidden sm:ml-6 sm:flex sm:space-x-8">
                        <a href="/Contact/Index" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Contacts</a>
                        {{if .IsAuth}}
                        <a href="/Contact/Add" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Add contact</a>
                        {{end}}
                        {{if eq .RoleName "Admin"}}
                        <a href="/Account/AddRole" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Roles</a>
                        <a href="/Account/AdminRegister" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Create account</a>
                        {{end}}
                    </div>
                </div>
                <div class="flex items-center space-x-4">
                    {{if .IsAuth}}
                    <span class="text-sm text-gray-500" data-user="{{.UserName}}">{{.UserName}} ({{.RoleName}})</span>
                    <form action="/Account/Logout" method="POST">
                        <button type="submit" class="text-sm text-gray-500 hover:text-gray-700">Logout</button>
                    </form>
                    {{else}}
                    <a href="/Account/Login" class="text-sm text-gray-500 hover:text-gray-700">Login</a>
                    <a href="/Account/Register" class="text-sm text-gray-500 hover:text-gray-700">Register</a>
                    {{end}}
                </div>
            </div>
        </div>
    </nav>

    <main class="max-w-7xl mx-auto py-6 sm:px-6 lg:px-8">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"account/login": `{{define "content"}}
<div class="flex items-center justify-center py-12 px-4">
    <div class="max-w-md w-full space-y-8">
        <h2 class="text-center text-3xl font-extrabold text-gray-900">Sign in</h2>
        {{with index .Flash.Messages "login"}}
        <div class="rounded-md bg-red-50 p-4"><div class="text-sm text-red-700" id="flash-login">{{.}}</div></div>
        {{end}}
        <form class="mt-8 space-y-6" action="/Account/Login" method="POST">
            <input type="hidden" name="ReturnUrl" value="{{.ReturnUrl}}">
            <div class="rounded-md shadow-sm -space-y-px">
                <input id="LoginProp" name="LoginProp" type="text" required maxlength="20"
                       class="appearance-none rounded-t-md relative block w-full px-3 py-2 border border-gray-300 sm:text-sm"
                       placeholder="Login">
                <input id="Password" name="Password" type="password" required
                       class="appearance-none rounded-b-md relative block w-full px-3 py-2 border border-gray-300 sm:text-sm"
                       placeholder="Password">
            </div>
            <button type="submit" class="w-full flex justify-center py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Sign in</button>
        </form>
        <p class="text-center text-sm text-gray-600">No account? <a href="/Account/Register" class="text-indigo-600">Register</a></p>
    </div>
</div>
{{end}}`,

	"account/register": `{{define "content"}}
<div class="flex items-center justify-center py-12 px-4">
    <div class="max-w-md w-full space-y-8">
        <h2 class="text-center text-3xl font-extrabold text-gray-900">Create an account</h2>
        {{with index .Flash.Messages "register"}}
        <div class="rounded-md bg-red-50 p-4"><div class="text-sm text-red-700" id="flash-register">{{.}}</div></div>
        {{end}}
        <form class="mt-8 space-y-4" action="/Account/Register" method="POST">
            {{template "registration_fields" .}}
            <button type="submit" class="w-full py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Register</button>
        </form>
    </div>
</div>
{{end}}`,

	"account/admin_register": `{{define "content"}}
<div class="max-w-md mx-auto space-y-6">
    <h1 class="text-2xl font-semibold text-gray-900">Create an account</h1>
    {{with index .Flash.Messages "userCreate"}}
    <div class="rounded-md p-4 {{if index $.Flash.Flags "isSuccess"}}bg-green-50 text-green-700{{else}}bg-red-50 text-red-700{{end}}" id="flash-userCreate">{{.}}</div>
    {{end}}
    <form class="space-y-4" action="/Account/AdminRegister" method="POST">
        {{template "registration_fields" .}}
        <button type="submit" class="w-full py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Create</button>
    </form>
</div>
{{end}}`,

	"components/registration_fields": `{{define "registration_fields"}}
<div>
    <label for="LoginProp" class="block text-sm font-medium text-gray-700">Login</label>
    <input id="LoginProp" name="LoginProp" type="text" maxlength="20" value="{{.Form.LoginProp}}"
           class="mt-1 block w-full px-3 py-2 border {{inputClass (index .Errors "LoginProp")}} rounded-md sm:text-sm">
    {{with index .Errors "LoginProp"}}<p class="mt-1 text-sm text-red-600" data-error="LoginProp">Login: {{.}}</p>{{end}}
</div>
<div>
    <label for="Password" class="block text-sm font-medium text-gray-700">Password</label>
    <input id="Password" name="Password" type="password"
           class="mt-1 block w-full px-3 py-2 border {{inputClass (index .Errors "Password")}} rounded-md sm:text-sm">
    {{with index .Errors "Password"}}<p class="mt-1 text-sm text-red-600" data-error="Password">Password: {{.}}</p>{{end}}
</div>
<div>
    <label for="ConfirmPassword" class="block text-sm font-medium text-gray-700">Confirm password</label>
    <input id="ConfirmPassword" name="ConfirmPassword" type="password"
           class="mt-1 block w-full px-3 py-2 border {{inputClass (index .Errors "ConfirmPassword")}} rounded-md sm:text-sm">
    {{with index .Errors "ConfirmPassword"}}<p class="mt-1 text-sm text-red-600" data-error="ConfirmPassword">Confirm password: {{.}}</p>{{end}}
</div>
{{end}}`,

	"contacts/index": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="flex justify-between items-center mb-6">
        <h1 class="text-2xl font-semibold text-gray-900">Contacts</h1>
        {{if .IsAuth}}<a href="/Contact/Add" class="px-4 py-2 text-sm rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Add contact</a>{{end}}
    </div>
    {{with index .Flash.Messages "contact"}}
    <div class="rounded-md bg-blue-50 p-4 mb-4 text-sm text-blue-700" id="flash-contact">{{.}}</div>
    {{end}}
    {{if .Contacts}}
    <div class="bg-white shadow overflow-hidden sm:rounded-md">
        <table class="min-w-full divide-y divide-gray-200">
            <thead class="bg-gray-50">
                <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Name</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Telephone</th>
                    <th class="px-6 py-3"></th>
                </tr>
            </thead>
            <tbody class="divide-y divide-gray-200">
                {{range .Contacts}}
                <tr class="contact-row">
                    <td class="px-6 py-4 text-sm text-gray-900">{{.FullName}}</td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{.TelephoneNumber}}</td>
                    <td class="px-6 py-4 text-right text-sm space-x-3">
                        {{if $.IsAuth}}<a href="/Contact/Details/{{.ID}}" class="text-indigo-600">Details</a>{{end}}
                        {{if eq $.RoleName "Admin"}}
                        <a href="/Contact/Change/{{.ID}}" class="text-indigo-600">Edit</a>
                        <form action="/Contact/Delete/{{.ID}}" method="POST" class="inline">
                            <button type="submit" class="text-red-600">Delete</button>
                        </form>
                        {{end}}
                    </td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
    {{else}}
    <p class="text-sm text-gray-500">No contacts yet.</p>
    {{end}}
</div>
{{end}}`,

	"contacts/details": `{{define "content"}}
<div class="bg-white shadow sm:rounded-lg max-w-2xl">
    <div class="px-4 py-5 sm:px-6">
        <h1 class="text-lg font-medium text-gray-900">{{.Contact.FullName}}</h1>
    </div>
    <dl class="border-t border-gray-200 divide-y divide-gray-200">
        <div class="px-4 py-4 grid grid-cols-3"><dt class="text-sm text-gray-500">Surname</dt><dd class="col-span-2 text-sm">{{.Contact.Surname}}</dd></div>
        <div class="px-4 py-4 grid grid-cols-3"><dt class="text-sm text-gray-500">Name</dt><dd class="col-span-2 text-sm">{{.Contact.Name}}</dd></div>
        <div class="px-4 py-4 grid grid-cols-3"><dt class="text-sm text-gray-500">Father name</dt><dd class="col-span-2 text-sm">{{.Contact.FatherName}}</dd></div>
        <div class="px-4 py-4 grid grid-cols-3"><dt class="text-sm text-gray-500">Telephone</dt><dd class="col-span-2 text-sm">{{.Contact.TelephoneNumber}}</dd></div>
        <div class="px-4 py-4 grid grid-cols-3"><dt class="text-sm text-gray-500">Address</dt><dd class="col-span-2 text-sm">{{.Contact.ResidenceAddress}}</dd></div>
        <div class="px-4 py-4 grid grid-cols-3"><dt class="text-sm text-gray-500">Description</dt><dd class="col-span-2 text-sm">{{.Contact.Description}}</dd></div>
    </dl>
    <div class="px-4 py-4 space-x-3">
        <a href="/" class="text-sm text-gray-600">Back</a>
        {{if eq .RoleName "Admin"}}<a href="/Contact/Change/{{.Contact.ID}}" class="text-sm text-indigo-600">Edit</a>{{end}}
    </div>
</div>
{{end}}`,

	"contacts/add": `{{define "content"}}
<div class="max-w-2xl space-y-6">
    <h1 class="text-2xl font-semibold text-gray-900">Add contact</h1>
    {{with .Error}}<div class="rounded-md bg-red-50 p-4 text-sm text-red-700" id="form-error">{{.}}</div>{{end}}
    <form action="/Contact/Add" method="POST" class="space-y-4">
        {{template "contact_form" .}}
        <button type="submit" class="px-4 py-2 text-sm rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Save</button>
    </form>
</div>
{{end}}`,

	"contacts/change": `{{define "content"}}
<div class="max-w-2xl space-y-6">
    <h1 class="text-2xl font-semibold text-gray-900">Edit contact</h1>
    {{with .Error}}<div class="rounded-md bg-red-50 p-4 text-sm text-red-700" id="form-error">{{.}}</div>{{end}}
    <form action="/Contact/Change" method="POST" class="space-y-4">
        {{template "contact_form" .}}
        <button type="submit" class="px-4 py-2 text-sm rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Save</button>
    </form>
</div>
{{end}}`,

	"components/contact_form": `{{define "contact_form"}}
{{$e := .Errors}}
<div>
    <label for="surname" class="block text-sm font-medium text-gray-700">Surname</label>
    <input id="surname" name="surname" type="text" value="{{.Contact.Surname}}" class="mt-1 block w-full px-3 py-2 border {{inputClass (index $e "surname")}} rounded-md sm:text-sm">
    {{with index $e "surname"}}<p class="text-sm text-red-600" data-error="surname">{{.}}</p>{{end}}
</div>
<div>
    <label for="name" class="block text-sm font-medium text-gray-700">Name</label>
    <input id="name" name="name" type="text" value="{{.Contact.Name}}" class="mt-1 block w-full px-3 py-2 border {{inputClass (index $e "name")}} rounded-md sm:text-sm">
    {{with index $e "name"}}<p class="text-sm text-red-600" data-error="name">{{.}}</p>{{end}}
</div>
<div>
    <label for="fatherName" class="block text-sm font-medium text-gray-700">Father name</label>
    <input id="fatherName" name="fatherName" type="text" value="{{.Contact.FatherName}}" class="mt-1 block w-full px-3 py-2 border {{inputClass (index $e "fatherName")}} rounded-md sm:text-sm">
    {{with index $e "fatherName"}}<p class="text-sm text-red-600" data-error="fatherName">{{.}}</p>{{end}}
</div>
<div>
    <label for="telephoneNumber" class="block text-sm font-medium text-gray-700">Telephone</label>
    <input id="telephoneNumber" name="telephoneNumber" type="tel" value="{{.Contact.TelephoneNumber}}" class="mt-1 block w-full px-3 py-2 border {{inputClass (index $e "telephoneNumber")}} rounded-md sm:text-sm">
    {{with index $e "telephoneNumber"}}<p class="text-sm text-red-600" data-error="telephoneNumber">{{.}}</p>{{end}}
</div>
<div>
    <label for="residenceAdress" class="block text-sm font-medium text-gray-700">Address</label>
    <input id="residenceAdress" name="residenceAdress" type="text" value="{{.Contact.ResidenceAddress}}" class="mt-1 block w-full px-3 py-2 border {{inputClass (index $e "residenceAddress")}} rounded-md sm:text-sm">
    {{with index $e "residenceAddress"}}<p class="text-sm text-red-600" data-error="residenceAddress">{{.}}</p>{{end}}
</div>
<div>
    <label for="description" class="block text-sm font-medium text-gray-700">Description</label>
    <textarea id="description" name="description" rows="3" class="mt-1 block w-full px-3 py-2 border {{inputClass (index $e "description")}} rounded-md sm:text-sm">{{.Contact.Description}}</textarea>
    {{with index $e "description"}}<p class="text-sm text-red-600" data-error="description">{{.}}</p>{{end}}
</div>
{{end}}`,

	"account/roles": `{{define "content"}}
<div class="px-4 py-6 sm:px-0 space-y-8">
    <div>
        <h1 class="text-2xl font-semibold text-gray-900">Roles and users</h1>
        <p class="mt-1 text-sm text-gray-500">Your roles: <span id="current-roles">{{.RolesText}}</span></p>
    </div>

    <div class="grid grid-cols-1 gap-6 lg:grid-cols-2">
        <form action="/Account/CreateNewRole" method="POST" class="bg-white shadow rounded-lg p-4 space-y-3">
            <h2 class="text-lg font-medium">Create role</h2>
            {{with index .Flash.Messages "createRole"}}
            <p class="text-sm {{if index $.Flash.Flags "isCreate"}}text-green-700{{else}}text-red-700{{end}}" id="flash-createRole">{{.}}</p>
            {{end}}
            <input name="roleName" type="text" placeholder="Role" class="block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            <button type="submit" class="px-4 py-2 text-sm rounded-md text-white bg-indigo-600">Create</button>
        </form>

        <form action="/Account/AddUserRole" method="POST" class="bg-white shadow rounded-lg p-4 space-y-3">
            <h2 class="text-lg font-medium">Assign role</h2>
            {{with index .Flash.Messages "assignRole"}}<p class="text-sm font-medium" id="flash-assignRole">{{.}}</p>{{end}}
            {{with index .Flash.Messages "assignRoleRole"}}
            <p class="text-sm {{if index $.Flash.Flags "isRoleAvailable"}}text-green-700{{else}}text-red-700{{end}}" id="flash-assignRoleRole">{{.}}</p>
            {{end}}
            {{with index .Flash.Messages "assignRoleUser"}}
            <p class="text-sm {{if index $.Flash.Flags "isUserAvailable"}}text-green-700{{else}}text-red-700{{end}}" id="flash-assignRoleUser">{{.}}</p>
            {{end}}
            <input name="userName" type="text" placeholder="User" class="block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            <input name="roleName" type="text" placeholder="Role" class="block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            <button type="submit" class="px-4 py-2 text-sm rounded-md text-white bg-indigo-600">Assign</button>
        </form>

        <form action="/Account/RemoveUserRole" method="POST" class="bg-white shadow rounded-lg p-4 space-y-3">
            <h2 class="text-lg font-medium">Revoke role</h2>
            {{with index .Flash.Messages "revokeRole"}}
            <p class="text-sm {{if index $.Flash.Flags "isUserHaveRole"}}text-green-700{{else}}text-red-700{{end}}" id="flash-revokeRole">{{.}}</p>
            {{end}}
            {{with index .Flash.Messages "revokeRoleRole"}}<p class="text-sm text-gray-700" id="flash-revokeRoleRole">{{.}}</p>{{end}}
            {{with index .Flash.Messages "revokeRoleUser"}}<p class="text-sm text-red-700" id="flash-revokeRoleUser">{{.}}</p>{{end}}
            <input name="userName" type="text" placeholder="User" class="block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            <input name="roleName" type="text" placeholder="Role" class="block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            <button type="submit" class="px-4 py-2 text-sm rounded-md text-white bg-indigo-600">Revoke</button>
        </form>

        <form action="/Account/RemoveUser" method="POST" class="bg-white shadow rounded-lg p-4 space-y-3">
            <h2 class="text-lg font-medium">Remove user</h2>
            {{with index .Flash.Messages "removeUser"}}
            <p class="text-sm {{if index $.Flash.Flags "isRemoveUser"}}text-green-700{{else}}text-red-700{{end}}" id="flash-removeUser">{{.}}</p>
            {{end}}
            <input name="userName" type="text" placeholder="User" class="block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            <button type="submit" class="px-4 py-2 text-sm rounded-md text-white bg-red-600">Remove</button>
        </form>
    </div>

    <div class="grid grid-cols-1 gap-6 lg:grid-cols-2">
        <div class="bg-white shadow rounded-lg p-4">
            <h2 class="text-lg font-medium mb-2">Users</h2>
            <ul class="text-sm text-gray-700" id="users">{{range .Users}}<li>{{.}}</li>{{else}}<li class="text-gray-400">None</li>{{end}}</ul>
        </div>
        <div class="bg-white shadow rounded-lg p-4">
            <h2 class="text-lg font-medium mb-2">Administrators</h2>
            <ul class="text-sm text-gray-700" id="admins">{{range .Admins}}<li>{{.}}</li>{{else}}<li class="text-gray-400">None</li>{{end}}</ul>
        </div>
    </div>

    <div class="bg-white shadow rounded-lg p-4">
        <h2 class="text-lg font-medium mb-2">Recent activity</h2>
        {{if .Events}}
        <table class="min-w-full text-sm" id="events">
            <tbody class="divide-y divide-gray-100">
                {{range .Events}}
                <tr>
                    <td class="py-2 text-gray-500" title="{{formatTime .CreatedAt}}">{{ago .CreatedAt}}</td>
                    <td class="py-2">{{.Actor}}</td>
                    <td class="py-2 font-mono">{{.Action}}</td>
                    <td class="py-2">{{.Target}}</td>
                    <td class="py-2"><span class="px-2 rounded-full text-xs {{outcomeColor .Outcome}}">{{.Outcome}}</span></td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{else}}
        <p class="text-sm text-gray-400">No recorded activity.</p>
        {{end}}
    </div>
</div>
{{end}}`,

	"error": `{{define "content"}}
<div class="max-w-md mx-auto py-12 text-center">
    <h1 class="text-2xl font-semibold text-gray-900">Something went wrong</h1>
    <p class="mt-2 text-sm text-gray-600" id="error-message">{{.Message}}</p>
    <a href="/" class="mt-4 inline-block text-sm text-indigo-600">Back to contacts</a>
</div>
{{end}}`,
}
