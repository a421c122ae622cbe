package contactapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/me/contactbook/pkg/model"
)

// Phrases returned by identity API versions that predate structured codes.
// Nothing outside this file matches on response text.
const (
	PhraseRoleAdded     = "Роль успешно добавлена"
	PhraseRoleAddable   = "Роль доступна для добавления"
	PhraseUserValid     = "Пользователь указан верно"
	PhraseRoleRemoved   = "Роль успешно удалена"
	PhraseRoleNotHeld   = "Роль отсутствует у указанного пользователя"
	PhraseRoleRemovable = "Роль доступна для удаления"
	PhraseUserRemoved   = "Пользователь успешно удален"
	PhraseUserMissing   = "Пользователь отсутствует"
)

type resultKind int

const (
	kindCreateRole resultKind = iota
	kindAssignRole
	kindRevokeRole
	kindRemoveUser
)

// structuredResult accepts both the list form and a single code.
type structuredResult struct {
	Codes   []model.ResultCode `json:"codes"`
	Code    model.ResultCode   `json:"code"`
	Message string             `json:"message"`
}

// decodeResult prefers a structured JSON body and falls back to the legacy phrases.
func decodeResult(kind resultKind, body []byte) model.Result {
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var sr structuredResult
		if json.Unmarshal(trimmed, &sr) == nil && (len(sr.Codes) > 0 || sr.Code != "") {
			codes := sr.Codes
			if sr.Code != "" {
				codes = append(codes, sr.Code)
			}
			return model.Result{Codes: codes, Message: sr.Message}
		}
	}

	text := unquote(trimmed)
	return model.Result{Codes: classifyLegacy(kind, text), Message: text}
}

// classifyLegacy maps the plain-text replies of the identity API to result codes.
func classifyLegacy(kind resultKind, text string) []model.ResultCode {
	var codes []model.ResultCode
	if text == "" {
		return codes
	}

	switch kind {
	case kindCreateRole:
		// Only an exact success phrase counts; any other reply means the role was not created.
		if strings.TrimSuffix(text, "!") == PhraseRoleAdded {
			return append(codes, model.ResultRoleCreated)
		}
		return append(codes, model.ResultRoleExists)

	case kindAssignRole:
		if strings.Contains(text, PhraseRoleAdded) {
			return append(codes, model.ResultRoleAssigned, model.ResultRoleAvailable, model.ResultUserFound)
		}
		if strings.Contains(text, PhraseRoleAddable) {
			codes = append(codes, model.ResultRoleAvailable)
		}
		if strings.Contains(text, PhraseUserValid) {
			codes = append(codes, model.ResultUserFound)
		}

	case kindRevokeRole:
		if strings.Contains(text, PhraseRoleRemoved) {
			return append(codes, model.ResultRoleRevoked, model.ResultRoleAvailable, model.ResultUserFound)
		}
		if strings.Contains(text, PhraseRoleNotHeld) {
			return append(codes, model.ResultRoleNotHeld)
		}
		if strings.Contains(text, PhraseRoleRemovable) {
			codes = append(codes, model.ResultRoleAvailable)
		}
		if strings.Contains(text, PhraseUserValid) {
			codes = append(codes, model.ResultUserFound)
		}

	case kindRemoveUser:
		if strings.Contains(text, PhraseUserRemoved) {
			return append(codes, model.ResultUserRemoved)
		}
		if strings.Contains(text, PhraseUserMissing) {
			codes = append(codes, model.ResultUserMissing)
		}
	}
	return codes
}
