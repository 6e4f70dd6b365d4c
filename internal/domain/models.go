package domain

// WishlistEntry is one (customer, product, shop) membership row. Ids are
// stored in numeric form.
type WishlistEntry struct {
	ID         string `db:"id" json:"id"`
	CustomerID string `db:"customer_id" json:"customerId"`
	ProductID  string `db:"product_id" json:"productId"`
	Shop       string `db:"shop" json:"shop"`
	CreatedAt  string `db:"created_at" json:"createdAt"`
}

// CustomerProfile caches Shopify customer attributes per (customer, shop).
type CustomerProfile struct {
	CustomerID  string `db:"customer_id" json:"customerId"`
	Shop        string `db:"shop" json:"shop"`
	FirstName   string `db:"first_name" json:"firstName"`
	LastName    string `db:"last_name" json:"lastName"`
	Email       string `db:"email" json:"email"`
	Phone       string `db:"phone" json:"phone"`
	OrdersCount int    `db:"orders_count" json:"ordersCount"`
	TotalSpent  string `db:"total_spent" json:"totalSpent"` // decimal string
	UpdatedAt   string `db:"updated_at" json:"updatedAt,omitempty"`
}

func (p CustomerProfile) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return "Customer"
	}
	return name
}

// Session is a stored Shopify Admin API session for a shop.
type Session struct {
	ID          string `db:"id"`
	Shop        string `db:"shop"`
	AccessToken string `db:"access_token"`
	Scope       string `db:"scope"`
	IsOnline    bool   `db:"is_online"`
	CreatedAt   string `db:"created_at"`
}
