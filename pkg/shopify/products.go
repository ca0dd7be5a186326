package shopify

import (
	"context"
)

// Product carries the storefront-facing fields the bundle projections embed.
type Product struct {
	ID        string
	Title     string
	Handle    string
	ImageURL  string
	VariantID string
	Price     string
}

// Collection carries the fields collection-triggered bundles project.
type Collection struct {
	ID       string
	Title    string
	ImageURL string
}

// GetProduct fetches a product's display fields plus its first variant.
func (c *Client) GetProduct(ctx context.Context, shop, productGID string) (*Product, error) {
	const query = `query product($id: ID!) {
		product(id: $id) {
			id
			title
			handle
			featuredImage { url }
			variants(first: 1) {
				edges { node { id price } }
			}
		}
	}`

	var out struct {
		Product *struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			Handle        string `json:"handle"`
			FeaturedImage *struct {
				URL string `json:"url"`
			} `json:"featuredImage"`
			Variants struct {
				Edges []struct {
					Node struct {
						ID    string `json:"id"`
						Price string `json:"price"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"variants"`
		} `json:"product"`
	}
	if err := c.execute(ctx, shop, "product", query, map[string]any{"id": productGID}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, nil
	}
	product := &Product{
		ID:     out.Product.ID,
		Title:  out.Product.Title,
		Handle: out.Product.Handle,
	}
	if out.Product.FeaturedImage != nil {
		product.ImageURL = out.Product.FeaturedImage.URL
	}
	if len(out.Product.Variants.Edges) > 0 {
		product.VariantID = out.Product.Variants.Edges[0].Node.ID
		product.Price = out.Product.Variants.Edges[0].Node.Price
	}
	return product, nil
}

// GetCollection fetches a collection's display fields.
func (c *Client) GetCollection(ctx context.Context, shop, collectionGID string) (*Collection, error) {
	const query = `query collection($id: ID!) {
		collection(id: $id) {
			id
			title
			image { url }
		}
	}`

	var out struct {
		Collection *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Image *struct {
				URL string `json:"url"`
			} `json:"image"`
		} `json:"collection"`
	}
	if err := c.execute(ctx, shop, "collection", query, map[string]any{"id": collectionGID}, &out); err != nil {
		return nil, err
	}
	if out.Collection == nil {
		return nil, nil
	}
	collection := &Collection{
		ID:    out.Collection.ID,
		Title: out.Collection.Title,
	}
	if out.Collection.Image != nil {
		collection.ImageURL = out.Collection.Image.URL
	}
	return collection, nil
}

// CollectionProductIDs resolves the product gids inside a collection, capped
// at the Admin API page maximum.
func (c *Client) CollectionProductIDs(ctx context.Context, shop, collectionGID string) ([]string, error) {
	const query = `query collectionProducts($id: ID!) {
		collection(id: $id) {
			products(first: 250) {
				edges { node { id } }
			}
		}
	}`

	var out struct {
		Collection *struct {
			Products struct {
				Edges []struct {
					Node struct {
						ID string `json:"id"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"products"`
		} `json:"collection"`
	}
	if err := c.execute(ctx, shop, "collectionProducts", query, map[string]any{"id": collectionGID}, &out); err != nil {
		return nil, err
	}
	if out.Collection == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(out.Collection.Products.Edges))
	for _, edge := range out.Collection.Products.Edges {
		ids = append(ids, edge.Node.ID)
	}
	return ids, nil
}
