// Package apitest provides an in-memory fake of the remote contacts and
// identity API for tests.
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/me/contactbook/pkg/model"
)

// Claim URIs used by the identity API when it issues tokens.
const (
	RoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	NameClaim = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

// Legacy replies. They mirror the phrases the client classifier understands.
const (
	phraseRoleAdded     = "Роль успешно добавлена"
	phraseRoleAddable   = "Роль доступна для добавления"
	phraseRoleUnknown   = "Ошибка: указанная роль не существует"
	phraseUserValid     = "Пользователь указан верно"
	phraseRoleRemoved   = "Роль успешно удалена"
	phraseRoleNotHeld   = "Роль отсутствует у указанного пользователя"
	phraseRoleRemovable = "Роль доступна для удаления"
	phraseUserRemoved   = "Пользователь успешно удален"
	phraseUserMissing   = "Пользователь отсутствует"
	phraseRoleExists    = "Роль уже существует"
)

type user struct {
	password string
	roles    []string
}

// API is a running fake. All methods are safe for concurrent use.
type API struct {
	*httptest.Server

	secret []byte

	mu         sync.Mutex
	contacts   map[int]model.Contact
	nextID     int
	users      map[string]*user
	roles      map[string]bool
	revoked    map[string]bool
	structured bool
	down       bool
	hits       map[string]int
	lastAuth   string
}

// New starts a fake seeded with the Admin and User roles. It is closed
// when the test ends.
func New(t testing.TB) *API {
	t.Helper()

	a := &API{
		secret:   []byte("apitest-signing-key"),
		contacts: make(map[int]model.Contact),
		nextID:   1,
		users:    make(map[string]*user),
		roles:    map[string]bool{model.RoleAdmin: true, model.RoleUser: true},
		revoked:  make(map[string]bool),
		hits:     make(map[string]int),
	}
	a.Server = httptest.NewServer(a.routes())
	t.Cleanup(a.Close)
	return a
}

func (a *API) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(a.track)

	r.Route("/api/values", func(r chi.Router) {
		r.Get("/", a.handleListContacts)
		r.Post("/Authenticate/", a.handleAuthenticate)
		r.Post("/Registration/", a.handleRegister)
		r.Get("/CheckToken", a.handleCheckToken)

		r.Group(func(r chi.Router) {
			r.Use(a.requireToken)
			r.Post("/", a.handleAddContact)
			r.Get("/Details/{id}", a.handleGetContact)
			r.Post("/ChangeContactById/{id}", a.handleUpdateContact)
			r.Get("/CurrentRoles", a.handleCurrentRoles)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireToken, a.requireAdmin)
			r.Delete("/{id}", a.handleDeleteContact)
			r.Get("/GetUsers", a.handleListUsers)
			r.Get("/GetAdmins", a.handleListAdmins)
			r.Post("/AdminRegistration/", a.handleAdminRegister)
			r.Post("/RoleCreate", a.handleRoleCreate)
			r.Post("/AddRoleToUser", a.handleAssignRole)
			r.Post("/RemoveUserRole", a.handleRevokeRole)
			r.Post("/RemoveUser", a.handleRemoveUser)
		})
	})
	return r
}

// --- test controls ---

// AddUser registers an account with the given roles.
func (a *API) AddUser(name, password string, roles ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[name] = &user{password: password, roles: slices.Clone(roles)}
}

// AddContact stores a contact and returns its id.
func (a *API) AddContact(c model.Contact) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.insertLocked(c)
}

// Contact returns a stored contact.
func (a *API) Contact(id int) (model.Contact, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.contacts[id]
	return c, ok
}

// ContactCount returns the number of stored contacts.
func (a *API) ContactCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.contacts)
}

// HasUser reports whether an account exists.
func (a *API) HasUser(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.users[name]
	return ok
}

// HasRole reports whether a role exists.
func (a *API) HasRole(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.roles[name]
}

// UserRoles returns the roles held by an account.
func (a *API) UserRoles(name string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u, ok := a.users[name]; ok {
		return slices.Clone(u.roles)
	}
	return nil
}

// Token issues a signed token for an existing account.
func (a *API) Token(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[name]
	if !ok {
		return ""
	}
	return a.issueLocked(name, u.roles)
}

// Revoke makes CheckToken and guarded endpoints reject token.
func (a *API) Revoke(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[token] = true
}

// SetStructured switches role and user commands to JSON result codes.
func (a *API) SetStructured(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.structured = on
}

// SetDown makes every endpoint answer 503.
func (a *API) SetDown(down bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.down = down
}

// Hits returns how many requests reached path (method included, e.g. "GET /api/values/CheckToken").
func (a *API) Hits(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[key]
}

// LastAuthorization returns the Authorization header of the latest request.
func (a *API) LastAuthorization() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAuth
}

// --- middleware ---

type ctxKey struct{}

func (a *API) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.hits[r.Method+" "+r.URL.Path]++
		a.lastAuth = r.Header.Get("Authorization")
		down := a.down
		a.mu.Unlock()

		if down {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, err := a.verify(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r, name)))
	})
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, _ := r.Context().Value(ctxKey{}).(string)
		a.mu.Lock()
		u, ok := a.users[name]
		isAdmin := ok && slices.Contains(u.roles, model.RoleAdmin)
		a.mu.Unlock()
		if !isAdmin {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (a *API) handleListContacts(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	list := make([]model.Contact, 0, len(a.contacts))
	for _, c := range a.contacts {
		list = append(list, c)
	}
	a.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var c model.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid contact", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	id := a.insertLocked(c)
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"id": id})
}

func (a *API) handleGetContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	c, ok := a.Contact(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var c model.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid contact", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.contacts[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	c.ID = id
	a.contacts[id] = c
	w.WriteHeader(http.StatusOK)
}

func (a *API) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.contacts[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(a.contacts, id)
	w.WriteHeader(http.StatusOK)
}

func (a *API) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	u, ok := a.users[creds.UserName]
	if !ok || u.password != creds.Password {
		a.mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	token := a.issueLocked(creds.UserName, u.roles)
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, model.TokenResponse{AccessToken: token, Username: creds.UserName})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	a.register(w, r, model.RoleUser)
}

func (a *API) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	a.register(w, r, model.RoleAdmin)
}

func (a *API) register(w http.ResponseWriter, r *http.Request, role string) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if errs := reg.Validate(); len(errs) > 0 {
		http.Error(w, errs[0].String(), http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	if _, exists := a.users[reg.LoginProp]; exists {
		a.mu.Unlock()
		http.Error(w, "user already exists", http.StatusBadRequest)
		return
	}
	u := &user{password: reg.Password, roles: []string{role}}
	a.users[reg.LoginProp] = u
	token := a.issueLocked(reg.LoginProp, u.roles)
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, model.TokenResponse{AccessToken: token, Username: reg.LoginProp})
}

func (a *API) handleCheckToken(w http.ResponseWriter, r *http.Request) {
	if _, err := a.verify(r); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("true"))
}

func (a *API) handleCurrentRoles(w http.ResponseWriter, r *http.Request) {
	name, _ := r.Context().Value(ctxKey{}).(string)
	roles := a.UserRoles(name)
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, roles)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.userNames(func(*user) bool { return true }))
}

func (a *API) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.userNames(func(u *user) bool {
		return slices.Contains(u.roles, model.RoleAdmin)
	}))
}

func (a *API) handleRoleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRoleModel(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.roles[body.RoleName] {
		a.replyLocked(w, http.StatusBadRequest, phraseRoleExists, model.ResultRoleExists)
		return
	}
	a.roles[body.RoleName] = true
	a.replyLocked(w, http.StatusOK, phraseRoleAdded, model.ResultRoleCreated)
}

func (a *API) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRoleModel(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	roleOK := a.roles[body.RoleName]
	u, userOK := a.users[body.UserName]
	if roleOK && userOK {
		if !slices.Contains(u.roles, body.RoleName) {
			u.roles = append(u.roles, body.RoleName)
		}
		a.replyLocked(w, http.StatusOK, phraseRoleAdded,
			model.ResultRoleAssigned, model.ResultRoleAvailable, model.ResultUserFound)
		return
	}
	a.replyPartsLocked(w, roleOK, userOK, phraseRoleAddable)
}

func (a *API) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRoleModel(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	roleOK := a.roles[body.RoleName]
	u, userOK := a.users[body.UserName]
	if roleOK && userOK {
		idx := slices.Index(u.roles, body.RoleName)
		if idx < 0 {
			a.replyLocked(w, http.StatusBadRequest, phraseRoleNotHeld, model.ResultRoleNotHeld)
			return
		}
		u.roles = slices.Delete(u.roles, idx, idx+1)
		a.replyLocked(w, http.StatusOK, phraseRoleRemoved,
			model.ResultRoleRevoked, model.ResultRoleAvailable, model.ResultUserFound)
		return
	}
	a.replyPartsLocked(w, roleOK, userOK, phraseRoleRemovable)
}

func (a *API) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRoleModel(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.users[body.UserName]; !exists {
		a.replyLocked(w, http.StatusNotFound, phraseUserMissing, model.ResultUserMissing)
		return
	}
	delete(a.users, body.UserName)
	a.replyLocked(w, http.StatusOK, phraseUserRemoved, model.ResultUserRemoved)
}

// --- helpers ---

func (a *API) insertLocked(c model.Contact) int {
	c.ID = a.nextID
	a.nextID++
	a.contacts[c.ID] = c
	return c.ID
}

func (a *API) issueLocked(name string, roles []string) string {
	claims := jwt.MapClaims{
		NameClaim: name,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	switch len(roles) {
	case 0:
	case 1:
		claims[RoleClaim] = roles[0]
	default:
		claims[RoleClaim] = slices.Clone(roles)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// verify checks the bearer token and returns the account it belongs to.
func (a *API) verify(r *http.Request) (string, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return "", errors.New("missing bearer token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	name, _ := claims[NameClaim].(string)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.revoked[raw] {
		return "", errors.New("token revoked")
	}
	if _, exists := a.users[name]; !exists {
		return "", errors.New("unknown user")
	}
	return name, nil
}

func (a *API) userNames(keep func(*user) bool) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.users))
	for name, u := range a.users {
		if keep(u) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (a *API) replyLocked(w http.ResponseWriter, status int, phrase string, codes ...model.ResultCode) {
	if a.structured {
		writeJSON(w, status, model.Result{Codes: codes, Message: phrase})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(phrase))
}

// replyPartsLocked reports a refused role command, one sentence per checked fact.
func (a *API) replyPartsLocked(w http.ResponseWriter, roleOK, userOK bool, roleAvailable string) {
	var (
		parts []string
		codes []model.ResultCode
	)
	if roleOK {
		parts = append(parts, roleAvailable)
		codes = append(codes, model.ResultRoleAvailable)
	} else {
		parts = append(parts, phraseRoleUnknown)
	}
	if userOK {
		parts = append(parts, phraseUserValid)
		codes = append(codes, model.ResultUserFound)
	} else {
		parts = append(parts, phraseUserMissing)
	}
	a.replyLocked(w, http.StatusBadRequest, strings.Join(parts, ". "), codes...)
}

func decodeRoleModel(w http.ResponseWriter, r *http.Request) (model.RoleModel, bool) {
	var body model.RoleModel
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return body, false
	}
	return body, true
}

func contextWithUser(r *http.Request, name string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, name)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
