package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shashiranjanraj/shopfront/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItem struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"required,min=1"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
}

func TestJSONDecodesValidBody(t *testing.T) {
	var in addItem
	errs, err := JSON(post(`{"product_id": 3, "quantity": 2}`), &in)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, addItem{ProductID: 3, Quantity: 2}, in)
}

func TestJSONEmptyBodyReportsRequiredFields(t *testing.T) {
	var in addItem
	errs, err := JSON(post(""), &in)
	require.NoError(t, err)
	assert.Contains(t, errs, "product_id")
	assert.Contains(t, errs, "quantity")
}

func TestJSONRejectsBadBodies(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"syntax":    {`{"product_id": 3,,}`, "malformed JSON at offset"},
		"truncated": {`{"product_id": 3,`, "malformed JSON (truncated body)"},
		"type":      {`{"product_id": "three", "quantity": 1}`, `field "product_id"`},
		"trailing":  {`{"product_id": 3, "quantity": 1} {"x": 1}`, "unexpected data"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var in addItem
			errs, err := JSON(post(tc.body), &in)
			require.ErrorIs(t, err, ErrBody)
			assert.Contains(t, err.Error(), tc.want)
			assert.Nil(t, errs)
		})
	}
}

func TestJSONEnforcesBodyLimit(t *testing.T) {
	config.Set("MAX_BODY_BYTES", "16")
	t.Cleanup(func() { config.Set("MAX_BODY_BYTES", "1048576") })

	var in addItem
	_, err := JSON(post(`{"product_id": 3, "quantity": 100000}`), &in)
	require.ErrorIs(t, err, ErrBody)
	assert.Contains(t, err.Error(), "larger than 16 bytes")
}
