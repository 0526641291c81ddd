package storefront

import (
	"time"

	"github.com/sentraflow/storefront-client/pkg/session"
)

// User and Role are owned by the session package; aliased here so
// facade callers need a single import.
type (
	User = session.User
	Role = session.Role
)

// OrderStatus is the server-side order lifecycle state. The client
// never decides transitions; it only displays and requests them.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus is the server-side payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Product mirrors the server's product record. Price, stock and
// availability are server-truth and re-fetched after any mutation.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	StockQuantity int     `json:"stockQuantity"`
	ImageURL      string  `json:"imageUrl"`
	Available     bool    `json:"available"`
}

// CartItem is one line of a user's cart.
type CartItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Order mirrors the server's order record.
type Order struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"userId"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	TotalAmount     float64       `json:"totalAmount"`
	ShippingAddress string        `json:"shippingAddress"`
	OrderItems      []OrderItem   `json:"orderItems"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// AuthResponse is the server's answer to login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest creates a new account. ConfirmPassword is checked
// client-side only and never sent over the wire.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateProductRequest creates a product (admin).
type CreateProductRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description" validate:"required"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	Category      string  `json:"category" validate:"required"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
	ImageURL      string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// UpdateProductRequest partially updates a product (admin). Nil fields
// are omitted from the request body.
type UpdateProductRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Category      *string  `json:"category,omitempty"`
	StockQuantity *int     `json:"stockQuantity,omitempty" validate:"omitempty,gte=0"`
	ImageURL      *string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Available     *bool    `json:"available,omitempty"`
}

// AddToCartRequest adds a product to the acting user's cart.
type AddToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderItem is one requested line of a new order.
type CreateOrderItem struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest places an order from the current cart contents.
type CreateOrderRequest struct {
	ShippingAddress string            `json:"shippingAddress" validate:"required"`
	OrderItems      []CreateOrderItem `json:"orderItems" validate:"required,min=1,dive"`
}
