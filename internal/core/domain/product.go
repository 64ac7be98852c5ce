package domain

import (
	"errors"
	"strings"
	"time"
)

// A ProductType is the kind of digital content a product delivers.
type ProductType string

const (
	ProductTypeAudiobook ProductType = "audiobook"
	ProductTypeVideo     ProductType = "video"
	ProductTypePDF       ProductType = "pdf"
	ProductTypeGuide     ProductType = "guide"
)

// Currency is fixed for the whole store; prices are minor units of it.
const Currency = "mxn"

func ParseProductType(s string) (ProductType, error) {
	switch t := ProductType(strings.ToLower(strings.TrimSpace(s))); t {
	case ProductTypeAudiobook, ProductTypeVideo, ProductTypePDF, ProductTypeGuide:
		return t, nil
	}
	return "", NewValidationError("type", "must be one of audiobook, video, pdf, guide")
}

type Product struct {
	ID           int64
	Title        string
	Description  string
	Type         ProductType
	Category     string
	Price        int64
	ImageURL     string
	PreviewURL   string
	DownloadURL  string
	Duration     string
	Badge        string
	IsBestseller bool
	IsNew        bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeliveryURL is the link a buyer receives after purchase.
// Empty when the product has nothing to deliver.
func (p Product) DeliveryURL() string {
	if p.DownloadURL != "" {
		return p.DownloadURL
	}
	return p.PreviewURL
}

// Validate checks the fields an admin must provide when writing a product.
func (p Product) Validate() error {
	var errs []error

	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, NewValidationError("title", "required"))
	}

	if _, err := ParseProductType(string(p.Type)); err != nil {
		errs = append(errs, err)
	}

	if p.Price < 0 {
		errs = append(errs, NewValidationError("price", "must be non-negative"))
	}

	if strings.TrimSpace(p.ImageURL) == "" {
		errs = append(errs, NewValidationError("imageUrl", "required"))
	}

	return errors.Join(errs...)
}

type ProductFilter struct {
	Type       ProductType
	Category   string
	OnlyActive bool
}
