package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

type Testimonial struct {
	ID        int64
	Name      string
	ImageURL  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Testimonial) Validate() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, NewValidationError("name", "required"))
	}
	if t.Rating < 1 || t.Rating > 5 {
		errs = append(errs, NewValidationError("rating", "must be between 1 and 5"))
	}
	return errors.Join(errs...)
}

type SiteSettings struct {
	SiteName     string
	ContactEmail string
	Features     map[string]bool
	UpdatedAt    time.Time
}

func (s SiteSettings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.SiteName) == "" {
		errs = append(errs, NewValidationError("siteName", "required"))
	}
	if s.ContactEmail != "" {
		if err := ValidateEmail(s.ContactEmail); err != nil {
			errs = append(errs, NewValidationError("contactEmail", "invalid address"))
		}
	}
	return errors.Join(errs...)
}

func ValidateEmail(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return NewValidationError("email", "required")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return NewValidationError("email", "invalid address")
	}
	return nil
}

type ProductSales struct {
	ProductID int64
	Units     int64
}

type Analytics struct {
	ProductsTotal  int64
	ProductsActive int64
	ProductsByType map[ProductType]int64
	CartsTotal     int64
	CartsWithItems int64
	OrdersPaid     int64
	Revenue        int64
	TopSellers     []ProductSales
}
