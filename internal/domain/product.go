package domain

type Category string

const (
	CategoryKeychains   Category = "keychains"
	CategoryLithoframes Category = "lithoframes"
	CategoryLightboxes  Category = "lightboxes"
	CategoryLamps       Category = "lamps"
	CategoryTableLamps  Category = "tablelamps"
	CategoryAccessories Category = "accessories"
)

// CategoryInfo is the display metadata of a category.
type CategoryInfo struct {
	ID           Category `json:"id"`
	Name         string   `json:"name"`
	Customizable bool     `json:"customizable"`
}

// Categories lists every category in storefront order.
var Categories = []CategoryInfo{
	{ID: CategoryKeychains, Name: "Keychains", Customizable: true},
	{ID: CategoryLithoframes, Name: "Lithoframes", Customizable: true},
	{ID: CategoryLightboxes, Name: "Lightboxes", Customizable: true},
	{ID: CategoryLamps, Name: "Lamps", Customizable: false},
	{ID: CategoryTableLamps, Name: "Showcase Side Table Lamps", Customizable: false},
	{ID: CategoryAccessories, Name: "Accessories", Customizable: false},
}

func (c Category) Valid() bool {
	for _, info := range Categories {
		if info.ID == c {
			return true
		}
	}
	return false
}

// Dimensions are millimeters.
type Dimensions struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Depth  float64 `json:"depth" bson:"depth"`
}

type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Category       Category   `json:"category"`
	Description    string     `json:"description"`
	Price          int64      `json:"price"`
	Images         []string   `json:"images"`
	IsCustomizable bool       `json:"is_customizable"`
	Weight         int        `json:"weight"`
	Dimensions     Dimensions `json:"dimensions"`
	Material       string     `json:"material"`
}
