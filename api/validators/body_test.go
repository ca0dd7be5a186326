package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
)

type samplePayload struct {
	Name        string `json:"name" validate:"required,max=255"`
	TriggerType string `json:"trigger_type" validate:"required,oneof=product collection all"`
	MinQuantity int    `json:"min_quantity" validate:"min=1"`
}

func TestDecodeJSONBodySuccess(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Bundle","trigger_type":"product","min_quantity":2}`))

	var payload samplePayload
	require.NoError(t, DecodeJSONBody(req, &payload))
	assert.Equal(t, "Bundle", payload.Name)
	assert.Equal(t, 2, payload.MinQuantity)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Bundle","trigger_type":"product","min_quantity":1,"bogus":true}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)

	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)

	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestDecodeJSONBodyFieldMessages(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"","trigger_type":"bogus","min_quantity":0}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)

	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)

	details, ok := domainErr.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be one of product collection all", details["trigger_type"])
	assert.Equal(t, "must be at least 1", details["min_quantity"])
}
