package shopify

import "context"

// MetafieldsSetMutation replaces metafield values on an owner resource.
const MetafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      key
      namespace
      value
    }
    userErrors {
      field
      message
      code
    }
  }
}
`

type MetafieldsSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// SetCustomerMetafield writes value verbatim as a json metafield on the customer.
// Field-level rejections come back as userErrors with a nil error.
func (c *Client) SetCustomerMetafield(ctx context.Context, cred Credential, customerGID, namespace, key, value string) ([]UserError, error) {
	var data struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	vars := map[string]any{
		"metafields": []MetafieldsSetInput{{
			OwnerID:   customerGID,
			Namespace: namespace,
			Key:       key,
			Type:      "json",
			Value:     value,
		}},
	}
	if err := c.Execute(ctx, cred, "metafieldsSet", MetafieldsSetMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.MetafieldsSet.UserErrors, nil
}
