package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// OrderStatus статус доставки заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodRazorpay       PaymentMethod = "razorpay"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodRazorpay || m == PaymentMethodCashOnDelivery
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// OrderItem снимок строки корзины на момент оформления
type OrderItem struct {
	ProductID string  `json:"product" bson:"product"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
	Size      Size    `json:"size" bson:"size"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

type ShippingAddress struct {
	Street  string `json:"street" bson:"street" validate:"notblank"`
	City    string `json:"city" bson:"city" validate:"notblank"`
	State   string `json:"state" bson:"state" validate:"notblank"`
	Country string `json:"country" bson:"country" validate:"notblank"`
	ZipCode string `json:"zipCode" bson:"zipCode" validate:"notblank"`
	Phone   string `json:"phone" bson:"phone" validate:"required,number,len=10"`
}

func (a ShippingAddress) Validate() error {
	var verrs validator.ValidationErrors
	if err := validate.Struct(a); errors.As(err, &verrs) {
		fe := verrs[0]
		if fe.Field() == "Phone" {
			return errors.New("phone must be 10 digits")
		}
		return fmt.Errorf("%s is required", lowerFirst(fe.Field()))
	} else if err != nil {
		return err
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// GatewayRef идентификаторы платёжного шлюза
type GatewayRef struct {
	OrderID   string `json:"orderId,omitempty" bson:"orderId,omitempty"`
	PaymentID string `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	Signature string `json:"signature,omitempty" bson:"signature,omitempty"`
}

type PaymentResult struct {
	Razorpay     GatewayRef    `json:"razorpay" bson:"razorpay"`
	Status       PaymentStatus `json:"status" bson:"status"`
	UpdateTime   *time.Time    `json:"update_time,omitempty" bson:"update_time,omitempty"`
	EmailAddress string        `json:"email_address,omitempty" bson:"email_address,omitempty"`
}

type Order struct {
	ID              string          `json:"id" bson:"_id,omitempty"`
	UserID          string          `json:"user" bson:"user"`
	Items           []OrderItem     `json:"items" bson:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" bson:"paymentMethod"`
	PaymentResult   PaymentResult   `json:"paymentResult" bson:"paymentResult"`
	TotalPrice      float64         `json:"totalPrice" bson:"totalPrice"`
	ShippingPrice   float64         `json:"shippingPrice" bson:"shippingPrice"`
	TaxPrice        float64         `json:"taxPrice" bson:"taxPrice"`
	TotalAmount     float64         `json:"totalAmount" bson:"totalAmount"`
	IsPaid          bool            `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	Status          OrderStatus     `json:"status" bson:"status"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	TrackingNumber  string          `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	Notes           string          `json:"notes,omitempty" bson:"notes,omitempty"`
	StockReserved   bool            `json:"-" bson:"stockReserved"`
	Version         int64           `json:"-" bson:"version"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// RecalculateTotal TotalAmount = TotalPrice + ShippingPrice + TaxPrice; репозитории вызывают при каждом сохранении
func (o *Order) RecalculateTotal() {
	o.TotalAmount = SumMoney(o.TotalPrice, o.ShippingPrice, o.TaxPrice)
}

func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return &cp
}
