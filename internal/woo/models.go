package woo

// Product is one catalog item as returned by the storefront REST API.
// Price fields arrive as strings (possibly empty); the enricher parses
// them. Type "variable" flags the presence of variation sub-records.
type Product struct {
	ID               int64       `json:"id"`
	SKU              string      `json:"sku"`
	Type             string      `json:"type"`
	Status           string      `json:"status"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description"`
	Price            string      `json:"price"`
	RegularPrice     string      `json:"regular_price"`
	SalePrice        string      `json:"sale_price"`
	StockQuantity    *int        `json:"stock_quantity"`
	StockStatus      string      `json:"stock_status"`
	Images           []Image     `json:"images,omitempty"`
	Categories       []Category  `json:"categories,omitempty"`
	Attributes       []Attribute `json:"attributes,omitempty"`
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Attribute struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

// Variation is the variation sub-resource, reduced to the fields this
// engine consumes.
type Variation struct {
	ID            int64                `json:"id"`
	SKU           string               `json:"sku"`
	Attributes    []VariationAttribute `json:"attributes,omitempty"`
	RegularPrice  string               `json:"regular_price"`
	SalePrice     string               `json:"sale_price"`
	StockQuantity *int                 `json:"stock_quantity"`
	StockStatus   string               `json:"stock_status"`
}

type VariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}
