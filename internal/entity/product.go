package domain

type Product struct {
	ID            string
	Name          string
	Thumbnail     string
	Price         int64
	DiscountPrice int64 // 0 = no discount price set
	Stock         int
	IsActive      bool
}

// UnitPrice is the authoritative selling price: the discount price when one
// is set, the list price otherwise. Client-supplied prices are never used.
func (p *Product) UnitPrice() int64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		Name:      p.Name,
		Thumbnail: p.Thumbnail,
		Price:     p.UnitPrice(),
	}
}
