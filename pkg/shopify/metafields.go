package shopify

import (
	"context"
)

// BundleNamespace is where the storefront theme extension reads bundle
// projections from.
const BundleNamespace = "bxgy_bundle"

// SetMetafield upserts a JSON metafield on any owner resource.
func (c *Client) SetMetafield(ctx context.Context, shop, ownerGID, namespace, key, valueJSON string) error {
	const mutation = `mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
		metafieldsSet(metafields: $metafields) {
			metafields { id }
			userErrors { field message }
		}
	}`

	variables := map[string]any{
		"metafields": []map[string]any{{
			"ownerId":   ownerGID,
			"namespace": namespace,
			"key":       key,
			"type":      "json",
			"value":     valueJSON,
		}},
	}
	var out struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.execute(ctx, shop, "metafieldsSet", mutation, variables, &out); err != nil {
		return err
	}
	if len(out.MetafieldsSet.UserErrors) > 0 {
		return userErrorsFailure("metafieldsSet", out.MetafieldsSet.UserErrors)
	}
	return nil
}

// ProductMetafieldID looks up a metafield id on a product, returning empty
// when the metafield does not exist.
func (c *Client) ProductMetafieldID(ctx context.Context, shop, productGID, namespace, key string) (string, error) {
	const query = `query productMetafield($id: ID!, $namespace: String!, $key: String!) {
		product(id: $id) {
			metafield(namespace: $namespace, key: $key) { id }
		}
	}`

	variables := map[string]any{"id": productGID, "namespace": namespace, "key": key}
	var out struct {
		Product *struct {
			Metafield *struct {
				ID string `json:"id"`
			} `json:"metafield"`
		} `json:"product"`
	}
	if err := c.execute(ctx, shop, "productMetafield", query, variables, &out); err != nil {
		return "", err
	}
	if out.Product == nil || out.Product.Metafield == nil {
		return "", nil
	}
	return out.Product.Metafield.ID, nil
}

// ShopMetafieldID looks up a metafield id on the shop resource, returning
// empty when the metafield does not exist.
func (c *Client) ShopMetafieldID(ctx context.Context, shop, namespace, key string) (string, error) {
	const query = `query shopMetafield($namespace: String!, $key: String!) {
		shop {
			metafield(namespace: $namespace, key: $key) { id }
		}
	}`

	variables := map[string]any{"namespace": namespace, "key": key}
	var out struct {
		Shop struct {
			Metafield *struct {
				ID string `json:"id"`
			} `json:"metafield"`
		} `json:"shop"`
	}
	if err := c.execute(ctx, shop, "shopMetafield", query, variables, &out); err != nil {
		return "", err
	}
	if out.Shop.Metafield == nil {
		return "", nil
	}
	return out.Shop.Metafield.ID, nil
}

// DeleteMetafield removes a metafield by id.
func (c *Client) DeleteMetafield(ctx context.Context, shop, metafieldID string) error {
	const mutation = `mutation metafieldDelete($input: MetafieldDeleteInput!) {
		metafieldDelete(input: $input) {
			deletedId
			userErrors { field message }
		}
	}`

	variables := map[string]any{"input": map[string]any{"id": metafieldID}}
	var out struct {
		MetafieldDelete struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldDelete"`
	}
	if err := c.execute(ctx, shop, "metafieldDelete", mutation, variables, &out); err != nil {
		return err
	}
	if len(out.MetafieldDelete.UserErrors) > 0 {
		return userErrorsFailure("metafieldDelete", out.MetafieldDelete.UserErrors)
	}
	return nil
}

// DeleteProductMetafield removes a product metafield by key, skipping
// silently when it does not exist.
func (c *Client) DeleteProductMetafield(ctx context.Context, shop, productGID, namespace, key string) error {
	id, err := c.ProductMetafieldID(ctx, shop, productGID, namespace, key)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	return c.DeleteMetafield(ctx, shop, id)
}

// ShopGID returns the shop's own resource gid for shop-level metafields.
func (c *Client) ShopGID(ctx context.Context, shop string) (string, error) {
	const query = `query { shop { id } }`

	var out struct {
		Shop struct {
			ID string `json:"id"`
		} `json:"shop"`
	}
	if err := c.execute(ctx, shop, "shop", query, nil, &out); err != nil {
		return "", err
	}
	return out.Shop.ID, nil
}
