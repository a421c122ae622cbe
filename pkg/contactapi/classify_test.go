package contactapi

import (
	"slices"
	"testing"

	"github.com/me/contactbook/pkg/model"
)

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name string
		kind resultKind
		body string
		want []model.ResultCode
	}{
		{"create ok", kindCreateRole, PhraseRoleAdded, []model.ResultCode{model.ResultRoleCreated}},
		{"create ok quoted", kindCreateRole, `"` + PhraseRoleAdded + `"`, []model.ResultCode{model.ResultRoleCreated}},
		{"create other text", kindCreateRole, "Роль уже существует", []model.ResultCode{model.ResultRoleExists}},
		{"create phrase inside longer text", kindCreateRole, "Ошибка: " + PhraseRoleAdded + " не", []model.ResultCode{model.ResultRoleExists}},
		{"create empty", kindCreateRole, "", nil},

		{"assign ok", kindAssignRole, PhraseRoleAdded,
			[]model.ResultCode{model.ResultRoleAssigned, model.ResultRoleAvailable, model.ResultUserFound}},
		{"assign role only", kindAssignRole, PhraseRoleAddable + ". " + PhraseUserMissing,
			[]model.ResultCode{model.ResultRoleAvailable}},
		{"assign user only", kindAssignRole, "Ошибка. " + PhraseUserValid,
			[]model.ResultCode{model.ResultUserFound}},
		{"assign nothing", kindAssignRole, "Ошибка", nil},

		{"revoke ok", kindRevokeRole, PhraseRoleRemoved,
			[]model.ResultCode{model.ResultRoleRevoked, model.ResultRoleAvailable, model.ResultUserFound}},
		{"revoke not held", kindRevokeRole, PhraseRoleNotHeld, []model.ResultCode{model.ResultRoleNotHeld}},
		{"revoke partial", kindRevokeRole, PhraseRoleRemovable + ". " + PhraseUserValid,
			[]model.ResultCode{model.ResultRoleAvailable, model.ResultUserFound}},

		{"remove ok", kindRemoveUser, PhraseUserRemoved, []model.ResultCode{model.ResultUserRemoved}},
		{"remove missing", kindRemoveUser, PhraseUserMissing, []model.ResultCode{model.ResultUserMissing}},
		{"remove unknown", kindRemoveUser, "Ошибка", nil},

		{"structured list", kindAssignRole, `{"codes":["role_available","user_found"]}`,
			[]model.ResultCode{model.ResultRoleAvailable, model.ResultUserFound}},
		{"structured single", kindRemoveUser, `{"code":"user_removed","message":"done"}`,
			[]model.ResultCode{model.ResultUserRemoved}},
		{"json without codes falls back", kindRemoveUser, `{"detail":"x"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeResult(tt.kind, []byte(tt.body))
			if !slices.Equal(got.Codes, tt.want) {
				t.Errorf("decodeResult() codes = %v, want %v", got.Codes, tt.want)
			}
		})
	}
}

func TestDecodeResult_KeepsMessage(t *testing.T) {
	got := decodeResult(kindRemoveUser, []byte(`{"code":"user_removed","message":"done"}`))
	if got.Message != "done" {
		t.Errorf("expected message done, got %q", got.Message)
	}

	got = decodeResult(kindRemoveUser, []byte(`"`+PhraseUserMissing+`"`))
	if got.Message != PhraseUserMissing {
		t.Errorf("expected unquoted phrase, got %q", got.Message)
	}
}
