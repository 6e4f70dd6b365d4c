// Package gid converts between Shopify numeric ids and global ids
// ("gid://shopify/Product/123").
package gid

import "strings"

type Kind string

const (
	Customer       Kind = "Customer"
	Product        Kind = "Product"
	ProductVariant Kind = "ProductVariant"
)

const scheme = "gid://"

const prefix = scheme + "shopify/"

// IsGlobal reports whether id already carries a global id prefix, for any kind.
func IsGlobal(id string) bool { return strings.HasPrefix(id, scheme) }

// ToGlobal returns the global id for raw. Ids that are already global are
// returned unchanged, even when they name a different kind.
func ToGlobal(kind Kind, raw string) string {
	if IsGlobal(raw) {
		return raw
	}
	return prefix + string(kind) + "/" + raw
}

// ToNumeric returns the trailing path segment of a global id.
func ToNumeric(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// ToGlobalAll maps ToGlobal over ids.
func ToGlobalAll(kind Kind, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, ToGlobal(kind, id))
	}
	return out
}
