package model

import "strings"

// Contact is a single address-book entry. Contacts live on the remote API;
// this tier only carries them between forms and the API.
type Contact struct {
	ID               int    `json:"id"`
	Surname          string `json:"surname"`
	Name             string `json:"name"`
	FatherName       string `json:"fatherName"`
	TelephoneNumber  string `json:"telephoneNumber"`
	ResidenceAddress string `json:"residenceAdress"` // remote API spelling
	Description      string `json:"description"`
}

// FullName joins surname, name and father name, skipping empty parts.
func (c *Contact) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Surname, c.Name, c.FatherName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Normalize trims surrounding whitespace from every field.
func (c *Contact) Normalize() {
	c.Surname = strings.TrimSpace(c.Surname)
	c.Name = strings.TrimSpace(c.Name)
	c.FatherName = strings.TrimSpace(c.FatherName)
	c.TelephoneNumber = strings.TrimSpace(c.TelephoneNumber)
	c.ResidenceAddress = strings.TrimSpace(c.ResidenceAddress)
	c.Description = strings.TrimSpace(c.Description)
}

// Validate reports every required field that is empty.
func (c *Contact) Validate() []FieldError {
	var errs []FieldError
	required := []struct {
		field string
		value string
	}{
		{"surname", c.Surname},
		{"name", c.Name},
		{"fatherName", c.FatherName},
		{"telephoneNumber", c.TelephoneNumber},
		{"residenceAddress", c.ResidenceAddress},
		{"description", c.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "required"})
		}
	}
	return errs
}
