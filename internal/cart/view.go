package cart

import "ecomkit/pkg/shopify"

const emptyCartText = "Votre panier est vide."

type Line struct {
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
	Price string `json:"price"`
}

// View is the rendered drawer content.
type View struct {
	Empty     bool     `json:"empty"`
	EmptyText string   `json:"emptyText,omitempty"`
	Lines     []Line   `json:"lines"`
	Total     string   `json:"total"`
	Progress  Progress `json:"progress"`
}

func Render(c shopify.Cart, cfg Config) View {
	v := View{
		Lines:    make([]Line, 0, len(c.Items)),
		Total:    "Total : " + FormatMoney(c.TotalPrice),
		Progress: Evaluate(c, cfg),
	}
	if len(c.Items) == 0 {
		v.Empty = true
		v.EmptyText = emptyCartText
	}
	for _, it := range c.Items {
		v.Lines = append(v.Lines, Line{Title: it.ProductTitle, Image: it.Image, Price: FormatMoney(it.Price)})
	}
	return v
}
