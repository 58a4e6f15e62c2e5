package shared

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type labelRequest struct {
	Label  string `json:"label"  validate:"required"`
	Weight *int   `json:"weight" validate:"omitempty,gt=0"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid json",
			requestBody: `{"label": "easy", "weight": 3}`,
		},
		{
			name:        "invalid json",
			requestBody: `{"label": "easy",}`,
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "unknown field",
			requestBody: `{"label": "easy", "colour": "red"}`,
			wantErr:     true,
			errContains: "unknown field",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))

			var target labelRequest
			err := DecodeJSON(req, &target)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "easy", target.Label)
			require.NotNil(t, target.Weight)
			assert.Equal(t, 3, *target.Weight)
		})
	}
}

type errorReader struct{}

func (errorReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target struct{}
	err := DecodeJSON(req, &target)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeOptionalJSON(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/test", nil)
		target := labelRequest{Label: "kept"}
		require.NoError(t, DecodeOptionalJSON(req, &target))
		assert.Equal(t, "kept", target.Label)
	})

	t.Run("present body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/test", bytes.NewBufferString(`{"label":"new"}`))
		var target labelRequest
		require.NoError(t, DecodeOptionalJSON(req, &target))
		assert.Equal(t, "new", target.Label)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/test", bytes.NewBufferString(`{`))
		var target labelRequest
		assert.Error(t, DecodeOptionalJSON(req, &target))
	})
}

type selfValidating struct {
	Name string
}

func (v *selfValidating) Validate() error {
	if v.Name == "invalid" {
		return errors.New("invalid name")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	zero := 0

	tests := []struct {
		name      string
		req       interface{}
		wantErr   bool
		wantField string
	}{
		{name: "valid struct", req: &labelRequest{Label: "easy"}},
		{name: "missing required", req: &labelRequest{}, wantErr: true, wantField: "label"},
		{name: "bad optional", req: &labelRequest{Label: "x", Weight: &zero}, wantErr: true, wantField: "weight"},
		{name: "self validating ok", req: &selfValidating{Name: "ok"}},
		{name: "self validating failure", req: &selfValidating{Name: "invalid"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tc.wantField != "" {
				var verrs validator.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.Equal(t, tc.wantField, verrs[0].Field())
			}
		})
	}
}
