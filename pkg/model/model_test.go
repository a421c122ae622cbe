package model

import "testing"

func TestSession_IsAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"all present", Session{Token: "t", Role: "User", Username: "alice"}, true},
		{"missing token", Session{Role: "User", Username: "alice"}, false},
		{"missing role", Session{Token: "t", Username: "alice"}, false},
		{"missing username", Session{Token: "t", Role: "User"}, false},
		{"empty", Session{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.IsAuthenticated(); got != tt.want {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_IsAdmin(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
		{"admin", false},
		{"Admin ", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := (Session{Role: tt.role}).IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContact_Validate(t *testing.T) {
	c := Contact{Surname: "Ivanov", Name: "Ivan", FatherName: "Ivanovich", TelephoneNumber: "123",
		ResidenceAddress: "Moscow", Description: "friend"}
	if errs := c.Validate(); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}

	c.Name = "  "
	c.Description = ""
	errs := c.Validate()
	if len(errs) != 2 {
		t.Fatalf("Validate() returned %d errors, want 2: %v", len(errs), errs)
	}
	if errs[0].Field != "name" || errs[1].Field != "description" {
		t.Errorf("fields = %q, %q", errs[0].Field, errs[1].Field)
	}
}

func TestContact_FullName(t *testing.T) {
	c := Contact{Surname: "Ivanov", Name: " Ivan ", FatherName: ""}
	if got := c.FullName(); got != "Ivanov Ivan" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name  string
		reg   Registration
		wantN int
	}{
		{"valid", Registration{LoginProp: "alice", Password: "secret1", ConfirmPassword: "secret1"}, 0},
		{"empty login", Registration{Password: "secret1", ConfirmPassword: "secret1"}, 1},
		{"long login", Registration{LoginProp: "abcdefghijklmnopqrstu", Password: "secret1", ConfirmPassword: "secret1"}, 1},
		{"short password", Registration{LoginProp: "alice", Password: "abc", ConfirmPassword: "abc"}, 1},
		{"mismatch", Registration{LoginProp: "alice", Password: "secret1", ConfirmPassword: "secret2"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reg.Validate(); len(got) != tt.wantN {
				t.Errorf("Validate() = %v, want %d errors", got, tt.wantN)
			}
		})
	}
}

func TestCredentials_Validate(t *testing.T) {
	if errs := (&Credentials{UserName: "bob", Password: "x"}).Validate(); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs := (&Credentials{}).Validate(); len(errs) != 2 {
		t.Errorf("want 2 errors, got %v", errs)
	}
}

func TestResult_Has(t *testing.T) {
	r := Result{Codes: []ResultCode{ResultRoleAvailable, ResultUserFound}}
	if !r.Has(ResultUserFound) {
		t.Error("expected user_found")
	}
	if r.Has(ResultRoleAssigned) {
		t.Error("unexpected role_assigned")
	}
	if r.Empty() {
		t.Error("Empty() = true")
	}
	if !(Result{}).Empty() {
		t.Error("zero Result should be empty")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrUpstream, Message: "contacts API unreachable"}
	want := "UPSTREAM_ERROR: contacts API unreachable"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("Invalid contact",
		FieldError{Field: "surname", Message: "required"},
		FieldError{Field: "name", Message: "required"},
	)
	if err.Code != ErrValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidation)
	}
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
	if s := err.Details[0].String(); s != "surname: required" {
		t.Errorf("String() = %q", s)
	}
}
