package contactapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/me/contactbook/internal/apitest"
	"github.com/me/contactbook/pkg/model"
)

func newTestClient(t *testing.T) (*Client, *apitest.API) {
	t.Helper()
	api := apitest.New(t)
	client := NewClient(DefaultConfig().WithBaseURL(api.URL), nil)
	return client, api
}

func TestConfig_WithBuilders(t *testing.T) {
	base := DefaultConfig()
	derived := base.WithToken("abc").WithTimeout(time.Second).WithRetries(2, time.Millisecond)

	if base.Token != "" {
		t.Errorf("base config was modified: token = %q", base.Token)
	}
	if derived.Token != "abc" || derived.Timeout != time.Second || derived.MaxRetries != 2 {
		t.Errorf("unexpected derived config: %+v", derived)
	}
	if base.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", base.BaseURL)
	}
}

func TestClient_WithTokenDoesNotMutateShared(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("alice", "secret1", model.RoleUser)
	api.AddUser("bob", "secret2", model.RoleUser)

	alice := client.WithToken(api.Token("alice"))
	bob := client.WithToken(api.Token("bob"))

	if client.Token() != "" {
		t.Fatalf("shared client gained a token: %q", client.Token())
	}

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i, c := range []*Client{alice, bob} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.CheckToken(context.Background())
		}()
	}
	wg.Wait()

	if !results[0] || !results[1] {
		t.Errorf("expected both tokens valid, got %v", results)
	}
}

func TestClient_Authenticate(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("alice", "secret1", model.RoleUser)

	token, err := client.Authenticate(context.Background(), model.Credentials{UserName: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected token")
	}

	_, err = client.Authenticate(context.Background(), model.Credentials{UserName: "alice", Password: "wrong"})
	if !IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestClient_Authenticate_EmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"","username":"alice"}`))
	}))
	defer server.Close()

	client := NewClient(DefaultConfig().WithBaseURL(server.URL), nil)
	_, err := client.Authenticate(context.Background(), model.Credentials{UserName: "alice", Password: "x"})
	if !errors.Is(err, ErrEmptyToken) {
		t.Errorf("expected ErrEmptyToken, got %v", err)
	}
}

func TestClient_RegisterAndAdminRegister(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("root", "rootpw", model.RoleAdmin)

	token, err := client.Register(context.Background(), model.Registration{
		LoginProp: "carol", Password: "secret1", ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if token == "" || !api.HasUser("carol") {
		t.Fatal("expected carol to be registered with a token")
	}

	reg := model.Registration{LoginProp: "dave", Password: "secret1", ConfirmPassword: "secret1"}
	if err := client.AdminRegister(context.Background(), reg); !IsAuthError(err) {
		t.Errorf("expected auth error without token, got %v", err)
	}

	admin := client.WithToken(api.Token("root"))
	if err := admin.AdminRegister(context.Background(), reg); err != nil {
		t.Fatalf("AdminRegister() error = %v", err)
	}
	roles := api.UserRoles("dave")
	if len(roles) != 1 || roles[0] != model.RoleAdmin {
		t.Errorf("expected dave to be Admin, got %v", roles)
	}

	// Duplicate registration is reported as a failure, not silently accepted.
	if err := admin.AdminRegister(context.Background(), reg); err == nil {
		t.Error("expected error for duplicate admin registration")
	}
}

func TestClient_CheckToken(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("alice", "secret1", model.RoleUser)
	token := api.Token("alice")

	if client.CheckToken(context.Background()) {
		t.Error("expected false without token")
	}
	if !client.WithToken(token).CheckToken(context.Background()) {
		t.Error("expected valid token")
	}

	api.Revoke(token)
	if client.WithToken(token).CheckToken(context.Background()) {
		t.Error("expected revoked token to be rejected")
	}

	if client.WithToken("garbage").CheckToken(context.Background()) {
		t.Error("expected garbage token to be rejected")
	}
}

func TestClient_CheckToken_Bodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"bare true", http.StatusOK, "true", true},
		{"quoted true", http.StatusOK, `"true"`, true},
		{"padded", http.StatusOK, " True\n", true},
		{"false", http.StatusOK, "false", false},
		{"empty", http.StatusOK, "", false},
		{"other", http.StatusOK, "yes", false},
		{"server error", http.StatusInternalServerError, "true", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if r.URL.Path != "/api/values/CheckToken" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			cfg := DefaultConfig().WithBaseURL(server.URL).WithRetries(3, time.Millisecond)
			client := NewClient(cfg, nil).WithToken("tok")
			if got := client.CheckToken(context.Background()); got != tt.want {
				t.Errorf("CheckToken() = %v, want %v", got, tt.want)
			}
			if calls != 1 {
				t.Errorf("expected exactly one call, got %d", calls)
			}
		})
	}
}

func TestClient_CheckToken_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(DefaultConfig().WithBaseURL(url), nil).WithToken("tok")
	if client.CheckToken(context.Background()) {
		t.Error("expected false for unreachable API")
	}
}

func TestClient_Contacts(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("root", "rootpw", model.RoleAdmin)
	admin := client.WithToken(api.Token("root"))
	ctx := context.Background()

	contacts, err := client.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if contacts == nil || len(contacts) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", contacts)
	}

	c := model.Contact{
		Surname: "Ivanov", Name: "Ivan", FatherName: "Ivanovich",
		TelephoneNumber: "+7 900 000", ResidenceAddress: "Moscow", Description: "friend",
	}
	if err := client.AddContact(ctx, c); !IsAuthError(err) {
		t.Errorf("expected auth error without token, got %v", err)
	}
	if err := admin.AddContact(ctx, c); err != nil {
		t.Fatalf("AddContact() error = %v", err)
	}

	contacts, err = client.ListContacts(ctx)
	if err != nil || len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %v (err %v)", contacts, err)
	}
	id := contacts[0].ID
	if contacts[0].ResidenceAddress != "Moscow" {
		t.Errorf("expected address to survive the wire, got %q", contacts[0].ResidenceAddress)
	}

	got, err := admin.GetContact(ctx, id)
	if err != nil {
		t.Fatalf("GetContact() error = %v", err)
	}
	if got.Surname != "Ivanov" {
		t.Errorf("expected Ivanov, got %q", got.Surname)
	}

	c.Description = "colleague"
	if err := admin.UpdateContact(ctx, id, c); err != nil {
		t.Fatalf("UpdateContact() error = %v", err)
	}
	stored, _ := api.Contact(id)
	if stored.Description != "colleague" {
		t.Errorf("expected update to apply, got %q", stored.Description)
	}

	if err := admin.DeleteContact(ctx, id); err != nil {
		t.Fatalf("DeleteContact() error = %v", err)
	}
	if _, err := admin.GetContact(ctx, id); !IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := admin.DeleteContact(ctx, id); !IsNotFound(err) {
		t.Errorf("expected not found deleting twice, got %v", err)
	}
}

func TestClient_GetContact_NullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer server.Close()

	client := NewClient(DefaultConfig().WithBaseURL(server.URL), nil)
	if _, err := client.GetContact(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_BearerHeader(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("alice", "secret1", model.RoleUser)
	token := api.Token("alice")

	if _, err := client.WithToken(token).CurrentRoles(context.Background()); err != nil {
		t.Fatalf("CurrentRoles() error = %v", err)
	}
	if got := api.LastAuthorization(); got != "Bearer "+token {
		t.Errorf("expected bearer header, got %q", got)
	}

	if _, err := client.ListContacts(context.Background()); err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if got := api.LastAuthorization(); got != "" {
		t.Errorf("expected no header from tokenless client, got %q", got)
	}
}

func TestClient_RoleAdministration(t *testing.T) {
	for _, structured := range []bool{false, true} {
		name := "legacy"
		if structured {
			name = "structured"
		}
		t.Run(name, func(t *testing.T) {
			client, api := newTestClient(t)
			api.SetStructured(structured)
			api.AddUser("root", "rootpw", model.RoleAdmin)
			api.AddUser("alice", "secret1", model.RoleUser)
			admin := client.WithToken(api.Token("root"))
			ctx := context.Background()

			res, err := admin.CreateRole(ctx, "Manager")
			if err != nil {
				t.Fatalf("CreateRole() error = %v", err)
			}
			if !res.Has(model.ResultRoleCreated) {
				t.Errorf("expected role_created, got %v", res.Codes)
			}

			res, err = admin.CreateRole(ctx, "Manager")
			if err != nil {
				t.Fatalf("CreateRole() error = %v", err)
			}
			if !res.Has(model.ResultRoleExists) || res.Has(model.ResultRoleCreated) {
				t.Errorf("expected role_exists only, got %v", res.Codes)
			}

			res, err = admin.AssignRole(ctx, "Manager", "alice")
			if err != nil {
				t.Fatalf("AssignRole() error = %v", err)
			}
			if !res.Has(model.ResultRoleAssigned) || !res.Has(model.ResultUserFound) {
				t.Errorf("expected assigned and user_found, got %v", res.Codes)
			}

			res, err = admin.AssignRole(ctx, "Ghost", "nobody")
			if err != nil {
				t.Fatalf("AssignRole() error = %v", err)
			}
			if res.Has(model.ResultRoleAssigned) || res.Has(model.ResultRoleAvailable) || res.Has(model.ResultUserFound) {
				t.Errorf("expected no positive codes, got %v", res.Codes)
			}

			res, err = admin.AssignRole(ctx, "Manager", "nobody")
			if err != nil {
				t.Fatalf("AssignRole() error = %v", err)
			}
			if !res.Has(model.ResultRoleAvailable) || res.Has(model.ResultUserFound) {
				t.Errorf("expected role_available without user_found, got %v", res.Codes)
			}

			res, err = admin.RevokeRole(ctx, "Manager", "alice")
			if err != nil {
				t.Fatalf("RevokeRole() error = %v", err)
			}
			if !res.Has(model.ResultRoleRevoked) {
				t.Errorf("expected role_revoked, got %v", res.Codes)
			}

			res, err = admin.RevokeRole(ctx, "Manager", "alice")
			if err != nil {
				t.Fatalf("RevokeRole() error = %v", err)
			}
			if !res.Has(model.ResultRoleNotHeld) {
				t.Errorf("expected role_not_held, got %v", res.Codes)
			}

			res, err = admin.RemoveUser(ctx, "alice")
			if err != nil {
				t.Fatalf("RemoveUser() error = %v", err)
			}
			if !res.Has(model.ResultUserRemoved) || api.HasUser("alice") {
				t.Errorf("expected alice removed, got %v", res.Codes)
			}

			res, err = admin.RemoveUser(ctx, "alice")
			if err != nil {
				t.Fatalf("RemoveUser() error = %v", err)
			}
			if !res.Has(model.ResultUserMissing) {
				t.Errorf("expected user_missing, got %v", res.Codes)
			}
		})
	}
}

func TestClient_RoleAdministration_Forbidden(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("alice", "secret1", model.RoleUser)

	_, err := client.WithToken(api.Token("alice")).CreateRole(context.Background(), "Manager")
	if !IsAuthError(err) {
		t.Errorf("expected auth error for non-admin, got %v", err)
	}
	if api.HasRole("Manager") {
		t.Error("role must not be created by a non-admin")
	}
}

func TestClient_Lists(t *testing.T) {
	client, api := newTestClient(t)
	api.AddUser("root", "rootpw", model.RoleAdmin)
	api.AddUser("alice", "secret1", model.RoleUser, "Manager")
	admin := client.WithToken(api.Token("root"))
	ctx := context.Background()

	users, err := admin.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("ListUsers() = %v, %v", users, err)
	}
	admins, err := admin.ListAdmins(ctx)
	if err != nil || len(admins) != 1 || admins[0] != "root" {
		t.Fatalf("ListAdmins() = %v, %v", admins, err)
	}

	roles, err := client.WithToken(api.Token("alice")).CurrentRoles(ctx)
	if err != nil {
		t.Fatalf("CurrentRoles() error = %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("expected 2 roles, got %v", roles)
	}

	if _, err := client.ListUsers(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestClient_RetryOnlyGet(t *testing.T) {
	attempts := map[string]int{}
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts[r.Method]++
		n := attempts[r.Method]
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	count := func(method string) int {
		mu.Lock()
		defer mu.Unlock()
		return attempts[method]
	}

	cfg := DefaultConfig().WithBaseURL(server.URL).WithRetries(3, time.Millisecond).WithToken("tok")
	client := NewClient(cfg, nil)

	if _, err := client.ListContacts(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := count(http.MethodGet); n != 3 {
		t.Errorf("expected 3 GET attempts, got %d", n)
	}

	err := client.AddContact(context.Background(), model.Contact{Surname: "x"})
	if err == nil {
		t.Fatal("expected POST to fail without retry")
	}
	if n := count(http.MethodPost); n != 1 {
		t.Errorf("expected 1 POST attempt, got %d", n)
	}
	if !IsRetryable(err) {
		t.Errorf("expected 503 to be classified retryable, got %v", err)
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	codes []int
}

func (o *recordingObserver) ObserveCall(op string, status int, err error, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, op)
	o.codes = append(o.codes, status)
}

func TestClient_Observer(t *testing.T) {
	client, api := newTestClient(t)
	obs := &recordingObserver{}
	client.SetObserver(obs)
	api.AddUser("alice", "secret1", model.RoleUser)

	client.ListContacts(context.Background())
	client.WithToken(api.Token("alice")).CheckToken(context.Background())

	if len(obs.calls) != 2 {
		t.Fatalf("expected 2 observed calls, got %v", obs.calls)
	}
	if obs.calls[0] != "ListContacts" || obs.calls[1] != "CheckToken" {
		t.Errorf("unexpected ops %v", obs.calls)
	}
	if obs.codes[0] != http.StatusOK {
		t.Errorf("expected 200, got %d", obs.codes[0])
	}
}

func TestError_Unwrap(t *testing.T) {
	err := WrapError("GetContact", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to see through Error")
	}
	if err.Error() != "GetContact: not found" {
		t.Errorf("unexpected message %q", err.Error())
	}

	httpErr := &HTTPError{StatusCode: http.StatusForbidden}
	if !IsAuthError(WrapError("x", httpErr)) {
		t.Error("expected 403 to be an auth error")
	}
	if httpErr.IsRetryable() {
		t.Error("403 must not be retryable")
	}
}

func TestClient_Ping(t *testing.T) {
	client, api := newTestClient(t)

	if err := client.WithToken("abc").Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if api.LastAuthorization() != "" {
		t.Error("Ping sent a bearer token")
	}

	// A 503 still means the API answered.
	api.SetDown(true)
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() with 503 error = %v", err)
	}

	api.Close()
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping() against a closed server succeeded")
	}
}
