package shopify

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

const CustomerQuery = `
query getCustomer($id: ID!) {
  customer(id: $id) {
    id
    firstName
    lastName
    email
    phone
    numberOfOrders
    amountSpent {
      amount
    }
  }
}
`

const ProductsQuery = `
query GetProducts($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on Product {
      id
      title
      handle
      vendor
      totalInventory
      featuredImage {
        url
        altText
      }
      variants(first: 1) {
        edges {
          node {
            id
            price
            compareAtPrice
            inventoryQuantity
          }
        }
      }
    }
  }
}
`

const ProductDetailsQuery = `
query getProduct($id: ID!) {
  product(id: $id) {
    id
    title
    handle
    description
    featuredImage {
      url
    }
    priceRangeV2 {
      minVariantPrice {
        amount
        currencyCode
      }
    }
  }
}
`

const CustomerMetafieldQuery = `
query customerMetafield($id: ID!, $namespace: String!, $key: String!) {
  customer(id: $id) {
    id
    metafield(namespace: $namespace, key: $key) {
      value
    }
  }
}
`

// Count decodes Shopify counters, which arrive as JSON numbers or, for
// UnsignedInt64 fields, as strings.
type Count int

func (n *Count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*n = Count(v)
	return nil
}

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}

type Customer struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	NumberOfOrders Count  `json:"numberOfOrders"`
	AmountSpent    *Money `json:"amountSpent"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

type Variant struct {
	ID                string  `json:"id"`
	Price             string  `json:"price"`
	CompareAtPrice    *string `json:"compareAtPrice"`
	InventoryQuantity *int    `json:"inventoryQuantity"`
}

type Product struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Handle         string `json:"handle"`
	Vendor         string `json:"vendor"`
	TotalInventory int    `json:"totalInventory"`
	FeaturedImage  *Image `json:"featuredImage"`
	Variants       struct {
		Edges []struct {
			Node Variant `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

// FirstVariant returns the first variant, if any.
func (p Product) FirstVariant() *Variant {
	if len(p.Variants.Edges) == 0 {
		return nil
	}
	return &p.Variants.Edges[0].Node
}

type ProductDetails struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Handle        string `json:"handle"`
	Description   string `json:"description"`
	FeaturedImage *Image `json:"featuredImage"`
	PriceRangeV2  *struct {
		MinVariantPrice *Money `json:"minVariantPrice"`
	} `json:"priceRangeV2"`
}

// Price formats the minimum variant price as "amount CURRENCY".
func (p ProductDetails) Price() string {
	if p.PriceRangeV2 == nil || p.PriceRangeV2.MinVariantPrice == nil {
		return ""
	}
	m := p.PriceRangeV2.MinVariantPrice
	return strings.TrimSpace(m.Amount + " " + m.CurrencyCode)
}

// Customer fetches a customer by global id. Returns ErrNotFound when null.
func (c *Client) Customer(ctx context.Context, cred Credential, customerGID string) (*Customer, error) {
	var data struct {
		Customer *Customer `json:"customer"`
	}
	if err := c.Execute(ctx, cred, "customer", CustomerQuery, map[string]any{"id": customerGID}, &data); err != nil {
		return nil, err
	}
	if data.Customer == nil {
		return nil, ErrNotFound
	}
	return data.Customer, nil
}

// Products resolves product global ids. Null nodes and non-product nodes are dropped.
func (c *Client) Products(ctx context.Context, cred Credential, productGIDs []string) ([]Product, error) {
	var data struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := c.Execute(ctx, cred, "products", ProductsQuery, map[string]any{"ids": productGIDs}, &data); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(data.Nodes))
	for _, raw := range data.Nodes {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &Error{Op: "products", Msg: "decode node", Err: err}
		}
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) ProductDetails(ctx context.Context, cred Credential, productGID string) (*ProductDetails, error) {
	var data struct {
		Product *ProductDetails `json:"product"`
	}
	if err := c.Execute(ctx, cred, "productDetails", ProductDetailsQuery, map[string]any{"id": productGID}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, ErrNotFound
	}
	return data.Product, nil
}

// CustomerMetafield reads one metafield value. found is false when the
// metafield is unset; a missing customer is ErrNotFound.
func (c *Client) CustomerMetafield(ctx context.Context, cred Credential, customerGID, namespace, key string) (value string, found bool, err error) {
	var data struct {
		Customer *struct {
			Metafield *struct {
				Value string `json:"value"`
			} `json:"metafield"`
		} `json:"customer"`
	}
	vars := map[string]any{"id": customerGID, "namespace": namespace, "key": key}
	if err := c.Execute(ctx, cred, "customerMetafield", CustomerMetafieldQuery, vars, &data); err != nil {
		return "", false, err
	}
	if data.Customer == nil {
		return "", false, ErrNotFound
	}
	if data.Customer.Metafield == nil {
		return "", false, nil
	}
	return data.Customer.Metafield.Value, true, nil
}
