package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories_SetOnlyTheirTag(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
		code Code
	}{
		{"validation", Validation("title", "required"), KindValidation, CodeValidation},
		{"not found", NotFound("bucket_item", "item-1"), KindNotFound, CodeNotFound},
		{"database", Database("find_all", "query failed", DBCodeBusy, nil), KindDatabase, CodeDatabase},
		{"business rule", BusinessRule("completed_item_immutable", "locked", nil), KindBusinessRule, CodeBusinessRule},
		{"authentication", Authentication("no token"), KindAuthentication, CodeUnauthorized},
		{"network", Network("offline", nil), KindNetwork, CodeUnavailable},
		{"application", Application("boom", nil), KindApplication, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestNotFound_Fields(t *testing.T) {
	err := NotFound("bucket_item", "item-42")

	assert.Equal(t, "bucket_item", err.Resource)
	assert.Equal(t, "item-42", err.ResourceID)
	assert.Contains(t, err.Error(), "item-42")
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
}

func TestDatabase_DefaultsUnknownCode(t *testing.T) {
	err := Database("create", "insert failed", "", nil)
	assert.Equal(t, DBCodeUnknown, err.DBCode)
	assert.Equal(t, "create", err.Operation)
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("category", "7"))

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
}

func TestIs_RespectsKindWhenTargetNamesOne(t *testing.T) {
	err := AlreadyExists("unique_email", "email taken")

	assert.True(t, Is(err, &Error{Kind: KindBusinessRule, Code: CodeAlreadyExists}))
	assert.False(t, Is(err, &Error{Kind: KindValidation, Code: CodeAlreadyExists}))
}

func TestWithCause_Unwraps(t *testing.T) {
	root := New("disk full")
	err := Internal("save failed").WithCause(root)

	assert.True(t, Is(err, root))
	assert.Equal(t, "save failed: disk full", err.Error())
}

func TestKindOf_ForeignErrors(t *testing.T) {
	assert.Equal(t, KindApplication, KindOf(New("plain")))
	assert.Equal(t, KindNetwork, KindOf(context.DeadlineExceeded))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	tagged := Validation("title", "required")
	assert.Same(t, tagged, From(fmt.Errorf("ctx: %w", tagged)))

	converted := From(New("unexpected"))
	require.NotNil(t, converted)
	assert.Equal(t, KindApplication, converted.Kind)
	assert.Equal(t, "unexpected", converted.Message)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"busy database", Database("update", "locked", DBCodeBusy, nil), true},
		{"lost connection", Database("find", "conn reset", DBCodeConnection, nil), true},
		{"constraint violation", Database("create", "fk", DBCodeForeignKey, nil), false},
		{"network", Network("timeout", context.DeadlineExceeded), true},
		{"canceled", From(context.Canceled), false},
		{"validation", Validation("title", "required"), false},
		{"foreign", New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestCode_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, CodeBusinessRule.HTTPStatus())
	assert.Equal(t, http.StatusConflict, CodeAlreadyExists.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, CodeUnavailable.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeDatabase.HTTPStatus())
}
