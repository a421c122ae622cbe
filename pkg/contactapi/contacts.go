package contactapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/me/contactbook/pkg/model"
)

// ListContacts returns every contact. Listing is allowed without a token.
func (c *Client) ListContacts(ctx context.Context) ([]model.Contact, error) {
	contacts, err := getJSON[[]model.Contact](ctx, c, "ListContacts", "")
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contacts, nil
}

// GetContact returns a single contact. A 404 or a null body yields ErrNotFound.
func (c *Client) GetContact(ctx context.Context, id int) (*model.Contact, error) {
	const op = "GetContact"
	resp, err := c.send(ctx, op, http.MethodGet, "/Details/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		return nil, WrapError(op, ErrNotFound)
	}
	if err := resp.asError(); err != nil {
		return nil, WrapError(op, err)
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, WrapError(op, ErrNotFound)
	}

	var contact model.Contact
	if err := json.Unmarshal(body, &contact); err != nil {
		return nil, WrapError(op, fmt.Errorf("unmarshaling contact: %w", err))
	}
	return &contact, nil
}

// AddContact creates a contact.
func (c *Client) AddContact(ctx context.Context, contact model.Contact) error {
	const op = "AddContact"
	if err := c.requireToken(op); err != nil {
		return err
	}
	_, err := c.call(ctx, op, http.MethodPost, "", contact)
	return err
}

// UpdateContact replaces the contact with the given id.
func (c *Client) UpdateContact(ctx context.Context, id int, contact model.Contact) error {
	const op = "UpdateContact"
	if err := c.requireToken(op); err != nil {
		return err
	}
	contact.ID = id
	_, err := c.call(ctx, op, http.MethodPost, "/ChangeContactById/"+strconv.Itoa(id), contact)
	return err
}

// DeleteContact removes the contact with the given id.
func (c *Client) DeleteContact(ctx context.Context, id int) error {
	const op = "DeleteContact"
	if err := c.requireToken(op); err != nil {
		return err
	}
	resp, err := c.send(ctx, op, http.MethodDelete, "/"+strconv.Itoa(id), nil)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusNotFound {
		return WrapError(op, ErrNotFound)
	}
	if err := resp.asError(); err != nil {
		return WrapError(op, err)
	}
	return nil
}
