package web

import (
	"net/http"

	"github.com/me/contactbook/internal/session"
	"github.com/me/contactbook/pkg/contactapi"
	"github.com/me/contactbook/pkg/model"
)

const flashContact = "contact"

// HandleIndex lists all contacts. An unreachable API yields an empty list.
func (ui *UI) HandleIndex(w http.ResponseWriter, r *http.Request) {
	contacts, err := ui.client(r).ListContacts(r.Context())
	if err != nil {
		ui.logger.Error("list contacts failed", "error", err)
		contacts = []model.Contact{}
	}

	data := ui.page(w, r, "Contacts")
	data["Contacts"] = contacts
	ui.render(w, http.StatusOK, "contacts/index", data)
}

// HandleDetails shows one contact. Unknown ids go back to the list.
func (ui *UI) HandleDetails(w http.ResponseWriter, r *http.Request) {
	contact, ok := ui.loadContact(w, r)
	if !ok {
		return
	}
	data := ui.page(w, r, contact.FullName())
	data["Contact"] = contact
	ui.render(w, http.StatusOK, "contacts/details", data)
}

// HandleAddContact renders the empty contact form.
func (ui *UI) HandleAddContact(w http.ResponseWriter, r *http.Request) {
	data := ui.page(w, r, "Add Contact")
	data["Contact"] = model.Contact{}
	ui.render(w, http.StatusOK, "contacts/add", data)
}

// HandleAddContactPost creates a contact on the remote API.
func (ui *UI) HandleAddContactPost(w http.ResponseWriter, r *http.Request) {
	contact, ok := ui.parseContact(w, r, "contacts/add", "Add Contact")
	if !ok {
		return
	}

	if err := ui.client(r).AddContact(r.Context(), contact); err != nil {
		ui.logger.Error("add contact failed", "error", err)
		data := ui.page(w, r, "Add Contact")
		data["Contact"] = contact
		data["Error"] = "The contact could not be saved"
		ui.render(w, http.StatusBadGateway, "contacts/add", data)
		return
	}

	ui.logger.Info("contact added", "username", SessionFromContext(r.Context()).Username)
	ui.flashRedirect(w, r, "/", flashContact, "Contact added")
}

// HandleChange renders the edit form and remembers which contact is being
// edited in the CurrentId cookie. Non-admins are sent to the list.
func (ui *UI) HandleChange(w http.ResponseWriter, r *http.Request) {
	if !SessionFromContext(r.Context()).IsAdmin() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	contact, ok := ui.loadContact(w, r)
	if !ok {
		return
	}
	session.SetCurrentID(w, contact.ID, ui.cookies)

	data := ui.page(w, r, "Edit Contact")
	data["Contact"] = contact
	ui.render(w, http.StatusOK, "contacts/change", data)
}

// HandleChangePost saves the edit form for the contact named by CurrentId.
func (ui *UI) HandleChangePost(w http.ResponseWriter, r *http.Request) {
	id, ok := session.CurrentID(r)
	if !ok {
		ui.flashRedirect(w, r, "/", flashContact, "No contact is being edited")
		return
	}

	contact, ok := ui.parseContact(w, r, "contacts/change", "Edit Contact")
	if !ok {
		return
	}

	if err := ui.client(r).UpdateContact(r.Context(), id, contact); err != nil {
		ui.logger.Error("update contact failed", "id", id, "error", err)
		contact.ID = id
		data := ui.page(w, r, "Edit Contact")
		data["Contact"] = contact
		data["Error"] = "The contact could not be saved"
		ui.render(w, http.StatusBadGateway, "contacts/change", data)
		return
	}

	session.ClearCurrentID(w, ui.cookies)
	ui.logger.Info("contact updated", "id", id, "username", SessionFromContext(r.Context()).Username)
	ui.flashRedirect(w, r, "/", flashContact, "Contact updated")
}

// HandleDelete removes a contact.
func (ui *UI) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := ui.pathID(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	msg := "Contact deleted"
	if err := ui.client(r).DeleteContact(r.Context(), id); err != nil {
		ui.logger.Error("delete contact failed", "id", id, "error", err)
		msg = "The contact could not be deleted"
	} else {
		ui.logger.Info("contact deleted", "id", id, "username", SessionFromContext(r.Context()).Username)
	}
	ui.flashRedirect(w, r, "/", flashContact, msg)
}

// loadContact fetches the contact named by the {id} path segment. Missing
// contacts redirect to the list; other failures render an error page.
func (ui *UI) loadContact(w http.ResponseWriter, r *http.Request) (*model.Contact, bool) {
	id, ok := ui.pathID(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}

	contact, err := ui.client(r).GetContact(r.Context(), id)
	switch {
	case contactapi.IsNotFound(err):
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	case err != nil:
		ui.renderError(w, r, http.StatusBadGateway, "The contact could not be loaded", err)
		return nil, false
	}
	return contact, true
}

// parseContact reads the contact form. Invalid input re-renders page with
// field errors and returns false.
func (ui *UI) parseContact(w http.ResponseWriter, r *http.Request, page, title string) (model.Contact, bool) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request", err)
		return model.Contact{}, false
	}

	contact := model.Contact{
		Surname:          r.PostFormValue("surname"),
		Name:             r.PostFormValue("name"),
		FatherName:       r.PostFormValue("fatherName"),
		TelephoneNumber:  r.PostFormValue("telephoneNumber"),
		ResidenceAddress: r.PostFormValue("residenceAdress"),
		Description:      r.PostFormValue("description"),
	}
	contact.Normalize()

	if errs := contact.Validate(); len(errs) > 0 {
		if id, ok := session.CurrentID(r); ok && page == "contacts/change" {
			contact.ID = id
		}
		data := ui.page(w, r, title)
		data["Contact"] = contact
		data["Errors"] = fieldErrors(errs)
		ui.render(w, http.StatusBadRequest, page, data)
		return model.Contact{}, false
	}
	return contact, true
}
