package shopify

import "strings"

const gidPrefix = "gid://shopify/"

// NumericID strips the gid://shopify/<Type>/ prefix and returns the trailing
// identifier. Values without the prefix pass through untouched.
func NumericID(gid string) string {
	if !strings.HasPrefix(gid, gidPrefix) {
		return gid
	}
	rest := strings.TrimPrefix(gid, gidPrefix)
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[idx+1:]
	}
	return rest
}

// ProductGID builds a product gid from a numeric id. Values already carrying
// the prefix pass through untouched.
func ProductGID(id string) string {
	if strings.HasPrefix(id, gidPrefix) {
		return id
	}
	return gidPrefix + "Product/" + id
}

// CollectionGID builds a collection gid from a numeric id. Values already
// carrying the prefix pass through untouched.
func CollectionGID(id string) string {
	if strings.HasPrefix(id, gidPrefix) {
		return id
	}
	return gidPrefix + "Collection/" + id
}
