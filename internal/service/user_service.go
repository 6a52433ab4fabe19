package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// UserService учётные записи, адреса и избранное
type UserService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	tokens   *auth.TokenManager
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, products repository.ProductRepository, tokens *auth.TokenManager, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		products: products,
		tokens:   tokens,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
}

// AuthResult профиль и bearer-токен
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = domain.NormalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Role:         domain.RoleUser,
		Addresses:    []domain.Address{},
		Wishlist:     []string{},
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return s.issue(u)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if u.IsBlocked {
		return nil, ErrAccountBlocked
	}
	now := s.now()
	u.LastLogin = &now
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Authenticate пользователь по bearer-токену; заблокированным доступ закрыт
func (s *UserService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorizedError("user no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if u.IsBlocked {
		return nil, ErrAccountBlocked
	}
	return u, nil
}

func (s *UserService) issue(u *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return u, nil
}

// ProfileUpdate пустые поля не меняются
type ProfileUpdate struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*domain.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.FirstName); v != "" {
		u.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		u.LastName = v
	}
	if v := domain.NormalizeEmail(in.Email); v != "" {
		if err := validateEmail(v); err != nil {
			return nil, err
		}
		u.Email = v
	}
	if v := strings.TrimSpace(in.PhoneNumber); v != "" {
		u.PhoneNumber = v
	}
	if in.Password != "" {
		if len(in.Password) < auth.MinPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, auth.MinPasswordLength)
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

type AddressInput struct {
	Street    string
	City      string
	State     string
	Country   string
	ZipCode   string
	Phone     string
	IsDefault bool
}

func (in AddressInput) toAddress() (domain.Address, error) {
	sa := domain.ShippingAddress{
		Street:  strings.TrimSpace(in.Street),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		Country: strings.TrimSpace(in.Country),
		ZipCode: strings.TrimSpace(in.ZipCode),
		Phone:   strings.TrimSpace(in.Phone),
	}
	if err := sa.Validate(); err != nil {
		return domain.Address{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return domain.Address{
		Street:    sa.Street,
		City:      sa.City,
		State:     sa.State,
		Country:   sa.Country,
		ZipCode:   sa.ZipCode,
		Phone:     sa.Phone,
		IsDefault: in.IsDefault,
	}, nil
}

func (s *UserService) AddAddress(ctx context.Context, userID string, in AddressInput) ([]domain.Address, error) {
	a, err := in.toAddress()
	if err != nil {
		return nil, err
	}
	a.ID = uuid.NewString()
	return s.mutateAddresses(ctx, userID, func(u *domain.User) error {
		u.AddAddress(a)
		return nil
	})
}

func (s *UserService) UpdateAddress(ctx context.Context, userID, addressID string, in AddressInput) ([]domain.Address, error) {
	a, err := in.toAddress()
	if err != nil {
		return nil, err
	}
	return s.mutateAddresses(ctx, userID, func(u *domain.User) error {
		if !u.ReplaceAddress(addressID, a) {
			return addressNotFound(addressID)
		}
		return nil
	})
}

// SetDefaultAddress новый default и сброс остальных сохраняются одной записью пользователя
func (s *UserService) SetDefaultAddress(ctx context.Context, userID, addressID string) ([]domain.Address, error) {
	return s.mutateAddresses(ctx, userID, func(u *domain.User) error {
		if !u.SetDefaultAddress(addressID) {
			return addressNotFound(addressID)
		}
		return nil
	})
}

func (s *UserService) DeleteAddress(ctx context.Context, userID, addressID string) ([]domain.Address, error) {
	return s.mutateAddresses(ctx, userID, func(u *domain.User) error {
		if u.AddressIndex(addressID) < 0 {
			return addressNotFound(addressID)
		}
		if len(u.Addresses) == 1 {
			return ErrLastAddress
		}
		u.RemoveAddress(addressID)
		return nil
	})
}

func (s *UserService) mutateAddresses(ctx context.Context, userID string, fn func(u *domain.User) error) ([]domain.Address, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

func addressNotFound(id string) error {
	return fmt.Errorf("address %s: %w", id, repository.ErrNotFound)
}

// Wishlist товары из избранного; удалённые из каталога пропускаются
func (s *UserService) Wishlist(ctx context.Context, userID string) ([]domain.Product, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.products.GetByIDs(ctx, u.Wishlist)
}

func (s *UserService) AddToWishlist(ctx context.Context, userID, productID string) ([]domain.Product, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	return s.mutateWishlist(ctx, userID, func(u *domain.User) error {
		if !u.AddToWishlist(productID) {
			return ErrAlreadyInWishlist
		}
		return nil
	})
}

func (s *UserService) RemoveFromWishlist(ctx context.Context, userID, productID string) ([]domain.Product, error) {
	return s.mutateWishlist(ctx, userID, func(u *domain.User) error {
		if !u.RemoveFromWishlist(productID) {
			return ErrNotInWishlist
		}
		return nil
	})
}

func (s *UserService) ClearWishlist(ctx context.Context, userID string) error {
	_, err := s.mutateWishlist(ctx, userID, func(u *domain.User) error {
		u.Wishlist = []string{}
		return nil
	})
	return err
}

func (s *UserService) InWishlist(ctx context.Context, userID, productID string) (bool, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.InWishlist(productID), nil
}

func (s *UserService) mutateWishlist(ctx context.Context, userID string, fn func(u *domain.User) error) ([]domain.Product, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.products.GetByIDs(ctx, u.Wishlist)
}

func validateEmail(email string) error {
	if !domain.ValidEmail(email) {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}
	return nil
}
