package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := NewClient(config.ShopifyConfig{
		AccessToken:   "shpat_test",
		APIVersion:    "2024-10",
		FunctionTitle: "bxgy-discount",
		RateLimit:     1000,
		Timeout:       5 * time.Second,
	}, logg, nil)
	require.NoError(t, err)
	client.endpointFor = func(string) string { return server.URL }
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	_, err := NewClient(config.ShopifyConfig{APIVersion: "2024-10"}, logg, nil)
	require.Error(t, err)

	_, err = NewClient(config.ShopifyConfig{AccessToken: "tok", APIVersion: "2024-10"}, nil, nil)
	require.Error(t, err)
}

func TestExecuteSendsAuthHeaderAndDecodesData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "shop")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"shop":{"id":"gid://shopify/Shop/77"}}}`)
	})

	gid, err := client.ShopGID(context.Background(), "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Shop/77", gid)
}

func TestExecuteMapsHTTPStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ShopGID(context.Background(), "demo.myshopify.com")
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeRateLimit, domainErr.Code())
}

func TestExecuteSurfacesGraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`)
	})

	_, err := client.ShopGID(context.Background(), "demo.myshopify.com")
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeRateLimit, domainErr.Code())
}

func TestCreateDiscountReturnsUserErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"discountAutomaticAppCreate":{"automaticAppDiscount":null,"userErrors":[{"field":["title"],"message":"Title is taken"}]}}}`)
	})

	_, err := client.CreateDiscount(context.Background(), "demo.myshopify.com", DiscountInput{
		Title:      "Bundle",
		FunctionID: "fn-1",
		StartsAt:   time.Now(),
		Config:     `{}`,
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeDependency, domainErr.Code())
	assert.Equal(t, []string{"Title is taken"}, domainErr.Details())
}

func TestDeleteDiscountToleratesMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"discountAutomaticDelete":{"deletedAutomaticDiscountId":null,"userErrors":[{"field":["id"],"message":"Discount not found"}]}}}`)
	})

	err := client.DeleteDiscount(context.Background(), "demo.myshopify.com", "gid://shopify/DiscountAutomaticApp/9")
	require.NoError(t, err)
}

func TestDiscountFunctionIDMatchesTitleAndType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"shopifyFunctions":{"nodes":[
			{"id":"fn-order","title":"bxgy-discount","apiType":"order_discounts"},
			{"id":"fn-other","title":"other","apiType":"product_discounts"},
			{"id":"fn-match","title":"bxgy-discount","apiType":"product_discounts"}
		]}}}`)
	})

	id, err := client.DiscountFunctionID(context.Background(), "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "fn-match", id)
}

func TestDeleteProductMetafieldSkipsMissing(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{"data":{"product":{"metafield":null}}}`)
	})

	err := client.DeleteProductMetafield(context.Background(), "demo.myshopify.com", "gid://shopify/Product/1", BundleNamespace, "config")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCollectionProductIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"collection":{"products":{"edges":[
			{"node":{"id":"gid://shopify/Product/1"}},
			{"node":{"id":"gid://shopify/Product/2"}}
		]}}}}`)
	})

	ids, err := client.CollectionProductIDs(context.Background(), "demo.myshopify.com", "gid://shopify/Collection/5")
	require.NoError(t, err)
	assert.Equal(t, []string{"gid://shopify/Product/1", "gid://shopify/Product/2"}, ids)
}

func TestGetProductMapsVariant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"product":{
			"id":"gid://shopify/Product/10",
			"title":"Widget",
			"handle":"widget",
			"featuredImage":{"url":"https://cdn.example/widget.png"},
			"variants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/998877","price":"12.50"}}]}
		}}}`)
	})

	product, err := client.GetProduct(context.Background(), "demo.myshopify.com", "gid://shopify/Product/10")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Widget", product.Title)
	assert.Equal(t, "widget", product.Handle)
	assert.Equal(t, "https://cdn.example/widget.png", product.ImageURL)
	assert.Equal(t, "gid://shopify/ProductVariant/998877", product.VariantID)
	assert.Equal(t, "12.50", product.Price)
}
