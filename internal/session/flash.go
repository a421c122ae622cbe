package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// FlashCookie carries messages across one redirect.
const FlashCookie = "Flash"

const flashTTL = time.Minute

// Flash is a set of one-shot messages for the next rendered page.
// Messages are keyed by slot (e.g. "role", "user"); Flags carry the outcome
// the page uses to pick a style.
type Flash struct {
	Messages map[string]string `json:"m,omitempty"`
	Flags    map[string]bool   `json:"f,omitempty"`
}

// Set stores a message in slot.
func (f *Flash) Set(slot, msg string) {
	if f.Messages == nil {
		f.Messages = make(map[string]string)
	}
	f.Messages[slot] = msg
}

// Flag stores an outcome flag.
func (f *Flash) Flag(name string, v bool) {
	if f.Flags == nil {
		f.Flags = make(map[string]bool)
	}
	f.Flags[name] = v
}

// Empty reports whether the flash holds nothing.
func (f Flash) Empty() bool {
	return len(f.Messages) == 0 && len(f.Flags) == 0
}

// SetFlash stores f for the next request.
func SetFlash(w http.ResponseWriter, f Flash, opts Options) {
	if f.Empty() {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	c := opts.cookie(FlashCookie, base64.RawURLEncoding.EncodeToString(raw))
	c.MaxAge = int(flashTTL.Seconds())
	c.Expires = time.Now().Add(flashTTL)
	http.SetCookie(w, c)
}

// TakeFlash reads and clears the pending flash. A malformed cookie is
// discarded.
func TakeFlash(w http.ResponseWriter, r *http.Request, opts Options) Flash {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return Flash{}
	}
	http.SetCookie(w, opts.expired(FlashCookie))

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return Flash{}
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return Flash{}
	}
	return f
}
