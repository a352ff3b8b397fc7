package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Role      Role      `json:"role" db:"role"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Product categories and materials are closed sets, mirrored by CHECK
// constraints in the schema.
const (
	CategoryRings      = "rings"
	CategoryNecklaces  = "necklaces"
	CategoryEarrings   = "earrings"
	CategoryBracelets  = "bracelets"
	CategoryCutlery    = "cutlery"
	CategoryDecorative = "decorative"
)

const (
	MaterialGold         = "gold"
	MaterialSilver       = "silver"
	MaterialGoldPlated   = "gold_plated"
	MaterialSilverPlated = "silver_plated"
)

func ValidCategory(c string) bool {
	switch c {
	case CategoryRings, CategoryNecklaces, CategoryEarrings, CategoryBracelets, CategoryCutlery, CategoryDecorative:
		return true
	}
	return false
}

func ValidMaterial(m string) bool {
	switch m {
	case MaterialGold, MaterialSilver, MaterialGoldPlated, MaterialSilverPlated:
		return true
	}
	return false
}

type Product struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	Name          string              `json:"name" db:"name"`
	Description   string              `json:"description" db:"description"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	OriginalPrice decimal.NullDecimal `json:"original_price" db:"original_price"`
	Category      string              `json:"category" db:"category"`
	Material      string              `json:"material" db:"material"`
	Availability  bool                `json:"availability" db:"availability"`
	Stock         int                 `json:"stock" db:"stock"`
	Likes         int                 `json:"likes" db:"likes"`
	Views         int                 `json:"views" db:"views"`
	Rating        decimal.Decimal     `json:"rating" db:"rating"`
	ReviewCount   int                 `json:"review_count" db:"review_count"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	AltText   string    `json:"alt_text,omitempty" db:"alt_text"`
	Order     int       `json:"order" db:"image_order"`
}

type Offer struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Title              string          `json:"title" db:"title"`
	Description        string          `json:"description" db:"description"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	StartDate          time.Time       `json:"start_date" db:"start_date"`
	EndDate            time.Time       `json:"end_date" db:"end_date"`
	Active             bool            `json:"active" db:"active"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	Total           decimal.Decimal `json:"total" db:"total"`
	ShippingStreet  string          `json:"shipping_street" db:"shipping_street"`
	ShippingCity    string          `json:"shipping_city" db:"shipping_city"`
	ShippingState   string          `json:"shipping_state" db:"shipping_state"`
	ShippingZipCode string          `json:"shipping_zip_code" db:"shipping_zip_code"`
	ShippingCountry string          `json:"shipping_country" db:"shipping_country"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

type Wishlist struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ProductLike struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ProductView struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	UserID    uuid.NullUUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID     `json:"product_id" db:"product_id"`
	IPAddress string        `json:"ip_address,omitempty" db:"ip_address"`
	ViewedAt  time.Time     `json:"viewed_at" db:"viewed_at"`
}
