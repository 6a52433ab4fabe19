package domain

import (
	"slices"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

type Address struct {
	ID        string `json:"id" bson:"id"`
	Street    string `json:"street" bson:"street"`
	City      string `json:"city" bson:"city"`
	State     string `json:"state" bson:"state"`
	Country   string `json:"country" bson:"country"`
	ZipCode   string `json:"zipCode" bson:"zipCode"`
	Phone     string `json:"phone" bson:"phone"`
	IsDefault bool   `json:"isDefault" bson:"isDefault"`
}

type User struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	FirstName    string     `json:"firstName" bson:"firstName"`
	LastName     string     `json:"lastName" bson:"lastName"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password"`
	PhoneNumber  string     `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	Role         Role       `json:"role" bson:"role"`
	IsBlocked    bool       `json:"isBlocked" bson:"isBlocked"`
	Addresses    []Address  `json:"addresses" bson:"addresses"`
	Wishlist     []string   `json:"wishlist" bson:"wishlist"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) AddressIndex(id string) int {
	for i, a := range u.Addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// AddAddress первый адрес или адрес с isDefault становится единственным адресом по умолчанию
func (u *User) AddAddress(a Address) Address {
	if len(u.Addresses) == 0 {
		a.IsDefault = true
	}
	if a.IsDefault {
		u.clearDefault()
	}
	u.Addresses = append(u.Addresses, a)
	return a
}

func (u *User) SetDefaultAddress(id string) bool {
	i := u.AddressIndex(id)
	if i < 0 {
		return false
	}
	u.clearDefault()
	u.Addresses[i].IsDefault = true
	return true
}

// ReplaceAddress без isDefault сохраняет текущий флаг адреса
func (u *User) ReplaceAddress(id string, a Address) bool {
	i := u.AddressIndex(id)
	if i < 0 {
		return false
	}
	a.ID = id
	if a.IsDefault {
		u.clearDefault()
	} else {
		a.IsDefault = u.Addresses[i].IsDefault
	}
	u.Addresses[i] = a
	return true
}

// RemoveAddress при удалении адреса по умолчанию флаг переходит к первому оставшемуся
func (u *User) RemoveAddress(id string) bool {
	i := u.AddressIndex(id)
	if i < 0 {
		return false
	}
	wasDefault := u.Addresses[i].IsDefault
	u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
	if wasDefault && len(u.Addresses) > 0 {
		u.Addresses[0].IsDefault = true
	}
	return true
}

func (u *User) DefaultAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

func (u *User) clearDefault() {
	for i := range u.Addresses {
		u.Addresses[i].IsDefault = false
	}
}

func (u *User) InWishlist(productID string) bool {
	return slices.Contains(u.Wishlist, productID)
}

// AddToWishlist false, если товар уже в избранном
func (u *User) AddToWishlist(productID string) bool {
	if u.InWishlist(productID) {
		return false
	}
	u.Wishlist = append(u.Wishlist, productID)
	return true
}

func (u *User) RemoveFromWishlist(productID string) bool {
	i := slices.Index(u.Wishlist, productID)
	if i < 0 {
		return false
	}
	u.Wishlist = slices.Delete(u.Wishlist, i, i+1)
	return true
}

func (u *User) Clone() *User {
	cp := *u
	cp.Addresses = append([]Address(nil), u.Addresses...)
	cp.Wishlist = append([]string(nil), u.Wishlist...)
	return &cp
}
