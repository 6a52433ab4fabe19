package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem строка корзины: товар в одном размере и цена за единицу
type CartItem struct {
	ID        string  `json:"id" bson:"id"`
	ProductID string  `json:"product" bson:"product"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
	Size      Size    `json:"size" bson:"size"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Cart единственная корзина пользователя
type Cart struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	UserID      string     `json:"user" bson:"user"`
	Items       []CartItem `json:"items" bson:"items"`
	TotalAmount float64    `json:"totalAmount" bson:"totalAmount"`
	TotalItems  int        `json:"totalItems" bson:"totalItems"`
	Version     int64      `json:"version" bson:"version"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// FindLine индекс строки с товаром productID в размере size или -1
func (c *Cart) FindLine(productID string, size Size) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.Size == size {
			return i
		}
	}
	return -1
}

func (c *Cart) ItemIndex(id string) int {
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) RemoveItem(id string) bool {
	i := c.ItemIndex(id)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Recalculate пересчитывает TotalAmount и TotalItems по строкам
func (c *Cart) Recalculate() {
	total := decimal.Zero
	count := 0
	for _, it := range c.Items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}
	c.TotalAmount = RoundMoney(total)
	c.TotalItems = count
}

func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	if cp.Items == nil {
		cp.Items = []CartItem{}
	}
	return &cp
}
