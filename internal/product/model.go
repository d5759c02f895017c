package product

type Product struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Description     *string `json:"description,omitempty"`
	ImageURL        *string `json:"image_url,omitempty"`
	Stock           int     `json:"stock"`
	Price           float64 `json:"price"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountPercent int     `json:"discount_percent"`
	DiscountedPrice float64 `json:"discounted_price"`
}

// ApplyDiscount derives the discounted price from the original price and keeps
// the selling price in sync with it.
func (p *Product) ApplyDiscount() {
	if p.OriginalPrice > 0 {
		p.DiscountedPrice = p.OriginalPrice - p.OriginalPrice*float64(p.DiscountPercent)/100
		p.Price = p.DiscountedPrice
	}
}

type SaveProductParams struct {
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Description     *string `json:"description"`
	ImageURL        *string `json:"image_url"`
	Stock           int     `json:"stock"`
	Price           float64 `json:"price"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountPercent int     `json:"discount_percent"`
}
