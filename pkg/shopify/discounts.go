package shopify

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
)

// Discount function configuration lives in the app-reserved namespace the
// deployed function extension reads at checkout.
const (
	DiscountConfigNamespace = "$app:bxgy-discount"
	DiscountConfigKey       = "function-configuration"
)

const functionAPIType = "product_discounts"

// DiscountInput carries everything discountAutomaticAppCreate needs.
type DiscountInput struct {
	Title      string
	FunctionID string
	StartsAt   time.Time
	Config     string
}

// DiscountFunctionID resolves the deployed product-discount function by title.
func (c *Client) DiscountFunctionID(ctx context.Context, shop string) (string, error) {
	const query = `query {
		shopifyFunctions(first: 25) {
			nodes { id title apiType }
		}
	}`

	var out struct {
		ShopifyFunctions struct {
			Nodes []struct {
				ID      string `json:"id"`
				Title   string `json:"title"`
				APIType string `json:"apiType"`
			} `json:"nodes"`
		} `json:"shopifyFunctions"`
	}
	if err := c.execute(ctx, shop, "shopifyFunctions", query, nil, &out); err != nil {
		return "", err
	}
	for _, node := range out.ShopifyFunctions.Nodes {
		if node.APIType == functionAPIType && node.Title == c.functionTitle {
			return node.ID, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("discount function %q is not deployed on this shop", c.functionTitle))
}

// CreateDiscount creates an automatic app discount backed by the function,
// seeding the function configuration metafield in the same mutation.
func (c *Client) CreateDiscount(ctx context.Context, shop string, input DiscountInput) (string, error) {
	const mutation = `mutation discountAutomaticAppCreate($automaticAppDiscount: DiscountAutomaticAppInput!) {
		discountAutomaticAppCreate(automaticAppDiscount: $automaticAppDiscount) {
			automaticAppDiscount { discountId }
			userErrors { field message }
		}
	}`

	variables := map[string]any{
		"automaticAppDiscount": map[string]any{
			"title":      input.Title,
			"functionId": input.FunctionID,
			"startsAt":   input.StartsAt.UTC().Format(time.RFC3339),
			"metafields": []map[string]any{{
				"namespace": DiscountConfigNamespace,
				"key":       DiscountConfigKey,
				"type":      "json",
				"value":     input.Config,
			}},
		},
	}

	var out struct {
		DiscountAutomaticAppCreate struct {
			AutomaticAppDiscount struct {
				DiscountID string `json:"discountId"`
			} `json:"automaticAppDiscount"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"discountAutomaticAppCreate"`
	}
	if err := c.execute(ctx, shop, "discountAutomaticAppCreate", mutation, variables, &out); err != nil {
		return "", err
	}
	if len(out.DiscountAutomaticAppCreate.UserErrors) > 0 {
		return "", userErrorsFailure("discountAutomaticAppCreate", out.DiscountAutomaticAppCreate.UserErrors)
	}
	return out.DiscountAutomaticAppCreate.AutomaticAppDiscount.DiscountID, nil
}

// UpdateDiscountTitle renames the automatic discount.
func (c *Client) UpdateDiscountTitle(ctx context.Context, shop, discountGID, title string) error {
	return c.updateDiscount(ctx, shop, discountGID, map[string]any{"title": title})
}

// UpdateDiscount renames the discount and replaces its function configuration
// in one mutation.
func (c *Client) UpdateDiscount(ctx context.Context, shop, discountGID, title, configJSON string) error {
	return c.updateDiscount(ctx, shop, discountGID, map[string]any{
		"title": title,
		"metafields": []map[string]any{{
			"namespace": DiscountConfigNamespace,
			"key":       DiscountConfigKey,
			"type":      "json",
			"value":     configJSON,
		}},
	})
}

// SetDiscountDates moves the discount's active window. Nil values serialize
// as explicit nulls, which is how deactivation clears startsAt.
func (c *Client) SetDiscountDates(ctx context.Context, shop, discountGID string, startsAt, endsAt *time.Time) error {
	discount := map[string]any{
		"startsAt": nil,
		"endsAt":   nil,
	}
	if startsAt != nil {
		discount["startsAt"] = startsAt.UTC().Format(time.RFC3339)
	}
	if endsAt != nil {
		discount["endsAt"] = endsAt.UTC().Format(time.RFC3339)
	}
	return c.updateDiscount(ctx, shop, discountGID, discount)
}

func (c *Client) updateDiscount(ctx context.Context, shop, discountGID string, discount map[string]any) error {
	const mutation = `mutation discountAutomaticAppUpdate($id: ID!, $automaticAppDiscount: DiscountAutomaticAppInput!) {
		discountAutomaticAppUpdate(id: $id, automaticAppDiscount: $automaticAppDiscount) {
			automaticAppDiscount { discountId }
			userErrors { field message }
		}
	}`

	variables := map[string]any{
		"id":                   discountGID,
		"automaticAppDiscount": discount,
	}
	var out struct {
		DiscountAutomaticAppUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"discountAutomaticAppUpdate"`
	}
	if err := c.execute(ctx, shop, "discountAutomaticAppUpdate", mutation, variables, &out); err != nil {
		return err
	}
	if len(out.DiscountAutomaticAppUpdate.UserErrors) > 0 {
		return userErrorsFailure("discountAutomaticAppUpdate", out.DiscountAutomaticAppUpdate.UserErrors)
	}
	return nil
}

// SetDiscountConfig replaces the function configuration metafield wholesale.
func (c *Client) SetDiscountConfig(ctx context.Context, shop, discountGID, configJSON string) error {
	return c.SetMetafield(ctx, shop, discountGID, DiscountConfigNamespace, DiscountConfigKey, configJSON)
}

// DeleteDiscount removes the automatic discount. A discount that is already
// gone is treated as success.
func (c *Client) DeleteDiscount(ctx context.Context, shop, discountGID string) error {
	const mutation = `mutation discountAutomaticDelete($id: ID!) {
		discountAutomaticDelete(id: $id) {
			deletedAutomaticDiscountId
			userErrors { field message }
		}
	}`

	var out struct {
		DiscountAutomaticDelete struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"discountAutomaticDelete"`
	}
	err := c.execute(ctx, shop, "discountAutomaticDelete", mutation, map[string]any{"id": discountGID}, &out)
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil && domainErr.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	userErrors := out.DiscountAutomaticDelete.UserErrors
	if len(userErrors) > 0 {
		if discountMissing(userErrors) {
			return nil
		}
		return userErrorsFailure("discountAutomaticDelete", userErrors)
	}
	return nil
}

func discountMissing(userErrors []UserError) bool {
	for _, ue := range userErrors {
		lower := strings.ToLower(ue.Message)
		if strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist") {
			return true
		}
	}
	return false
}
