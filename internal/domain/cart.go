package domain

import "time"

// CustomProductID marks a line item that has no catalog product behind it.
const CustomProductID = "custom"

type CustomizationOptions struct {
	Color         string      `json:"color,omitempty" bson:"color,omitempty"`
	Size          *Dimensions `json:"size,omitempty" bson:"size,omitempty"`
	Material      string      `json:"material,omitempty" bson:"material,omitempty"`
	InfillDensity *int        `json:"infill_density,omitempty" bson:"infill_density,omitempty"`
	ModelFile     string      `json:"model_file,omitempty" bson:"model_file,omitempty"`
}

// Equal reports whether both option sets describe the same print. Two nil sets are equal.
func (o *CustomizationOptions) Equal(other *CustomizationOptions) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.Color != other.Color || o.Material != other.Material || o.ModelFile != other.ModelFile {
		return false
	}
	if (o.Size == nil) != (other.Size == nil) {
		return false
	}
	if o.Size != nil && *o.Size != *other.Size {
		return false
	}
	if (o.InfillDensity == nil) != (other.InfillDensity == nil) {
		return false
	}
	return o.InfillDensity == nil || *o.InfillDensity == *other.InfillDensity
}

// Clone returns a deep copy so callers cannot alias cart state.
func (o *CustomizationOptions) Clone() *CustomizationOptions {
	if o == nil {
		return nil
	}
	c := *o
	if o.Size != nil {
		size := *o.Size
		c.Size = &size
	}
	if o.InfillDensity != nil {
		infill := *o.InfillDensity
		c.InfillDensity = &infill
	}
	return &c
}

type CartItem struct {
	ID            string                `json:"id" bson:"id"`
	ProductID     string                `json:"product_id" bson:"product_id"`
	Name          string                `json:"name" bson:"name"`
	Price         int64                 `json:"price" bson:"price"`
	Quantity      int                   `json:"quantity" bson:"quantity"`
	Image         string                `json:"image" bson:"image"`
	IsCustom      bool                  `json:"is_custom" bson:"is_custom"`
	CustomOptions *CustomizationOptions `json:"custom_options,omitempty" bson:"custom_options,omitempty"`
	Weight        int                   `json:"weight,omitempty" bson:"weight,omitempty"`
}

// SameLine reports whether two items belong on one cart line.
func (i CartItem) SameLine(other CartItem) bool {
	if i.ProductID != other.ProductID || i.IsCustom != other.IsCustom {
		return false
	}
	if !i.IsCustom {
		return true
	}
	return i.CustomOptions.Equal(other.CustomOptions)
}

func (i CartItem) Clone() CartItem {
	i.CustomOptions = i.CustomOptions.Clone()
	return i
}

// Session is the persisted state of one storefront session.
type Session struct {
	ID        string     `json:"id" bson:"_id"`
	User      *User      `json:"user,omitempty" bson:"user,omitempty"`
	Cart      []CartItem `json:"cart" bson:"cart"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

type User struct {
	ID      string `json:"id" bson:"id"`
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
}
