package domain

import "time"

// LinkValidity is how long emailed download links are honored.
const LinkValidity = 7 * 24 * time.Hour

type DownloadLink struct {
	ProductID int64
	Title     string
	URL       string
}

type Delivery struct {
	Email     string
	Links     []DownloadLink
	ExpiresAt time.Time
}

// An Email is a transactional message handed to the email provider.
type Email struct {
	To      string
	Subject string
	Body    string
	Links   []DownloadLink
}
