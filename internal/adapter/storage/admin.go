package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var (
	_ port.TestimonialsStorage = (*TestimonialsRepository)(nil)
	_ port.SettingsStorage     = (*SettingsRepository)(nil)
	_ port.AnalyticsStorage    = (*AnalyticsRepository)(nil)
)

const testimonialColumns = `
	id, name, image_url, rating, comment, created_at, updated_at`

type TestimonialsRepository struct {
	sqldb   sqldb
	timeout time.Duration
}

func NewTestimonialsRepository(
	sqldb sqldb, timeout time.Duration,
) TestimonialsRepository {
	return TestimonialsRepository{sqldb, timeout}
}

func (r TestimonialsRepository) ListTestimonials(
	ctx context.Context,
) ([]domain.Testimonial, error) {
	const op = "TestimonialsRepository.ListTestimonials"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT" + testimonialColumns + " FROM testimonials ORDER BY id ASC;"

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	defer rows.Close()

	ts := []domain.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ts = append(ts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return ts, nil
}

func (r TestimonialsRepository) CreateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	const op = "TestimonialsRepository.CreateTestimonial"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO testimonials (name, image_url, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING` + testimonialColumns + ";"

	created, err := scanTestimonial(r.sqldb.QueryRowContext(ctx, query,
		t.Name, t.ImageURL, t.Rating, t.Comment,
	))
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return created, nil
}

func (r TestimonialsRepository) UpdateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	const op = "TestimonialsRepository.UpdateTestimonial"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE testimonials SET
			name = $2, image_url = $3, rating = $4, comment = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING` + testimonialColumns + ";"

	updated, err := scanTestimonial(r.sqldb.QueryRowContext(ctx, query,
		t.ID, t.Name, t.ImageURL, t.Rating, t.Comment,
	))
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return updated, nil
}

func (r TestimonialsRepository) DeleteTestimonial(
	ctx context.Context, id int64,
) error {
	const op = "TestimonialsRepository.DeleteTestimonial"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM testimonials WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}

	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func scanTestimonial(row rowScanner) (domain.Testimonial, error) {
	var t domain.Testimonial
	err := row.Scan(
		&t.ID, &t.Name, &t.ImageURL, &t.Rating, &t.Comment,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// A SettingsRepository keeps the single site settings row.
type SettingsRepository struct {
	sqldb   sqldb
	timeout time.Duration
}

func NewSettingsRepository(sqldb sqldb, timeout time.Duration) SettingsRepository {
	return SettingsRepository{sqldb, timeout}
}

func (r SettingsRepository) ReadSettings(
	ctx context.Context,
) (domain.SiteSettings, error) {
	const op = "SettingsRepository.ReadSettings"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT site_name, contact_email, features, updated_at
		FROM site_settings WHERE id = 1;`

	s, err := scanSettings(r.sqldb.QueryRowContext(ctx, query))
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return s, nil
}

func (r SettingsRepository) StoreSettings(
	ctx context.Context, s domain.SiteSettings,
) (domain.SiteSettings, error) {
	const op = "SettingsRepository.StoreSettings"

	features, err := json.Marshal(s.Features)
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO site_settings (id, site_name, contact_email, features)
		VALUES (1, $1, $2, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			contact_email = EXCLUDED.contact_email,
			features = EXCLUDED.features,
			updated_at = now()
		RETURNING site_name, contact_email, features, updated_at;`

	stored, err := scanSettings(r.sqldb.QueryRowContext(ctx, query,
		s.SiteName, s.ContactEmail, string(features),
	))
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return stored, nil
}

func scanSettings(row rowScanner) (domain.SiteSettings, error) {
	var (
		s        domain.SiteSettings
		features []byte
	)
	err := row.Scan(&s.SiteName, &s.ContactEmail, &features, &s.UpdatedAt)
	if err != nil {
		return domain.SiteSettings{}, err
	}

	s.Features = map[string]bool{}
	if len(features) != 0 {
		if err := json.Unmarshal(features, &s.Features); err != nil {
			return domain.SiteSettings{}, fmt.Errorf("invalid features: %w", err)
		}
	}
	return s, nil
}

type AnalyticsRepository struct {
	sqldb   sqldb
	timeout time.Duration
}

func NewAnalyticsRepository(sqldb sqldb, timeout time.Duration) AnalyticsRepository {
	return AnalyticsRepository{sqldb, timeout}
}

func (r AnalyticsRepository) ReadAnalytics(
	ctx context.Context,
) (domain.Analytics, error) {
	const op = "AnalyticsRepository.ReadAnalytics"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT
			(SELECT count(*) FROM products),
			(SELECT count(*) FROM products WHERE is_active),
			(SELECT count(*) FROM carts),
			(SELECT count(DISTINCT cart_id) FROM cart_items),
			(SELECT count(*) FROM orders WHERE status = 'paid'),
			(SELECT coalesce(sum(amount), 0) FROM orders WHERE status = 'paid');`

	var a domain.Analytics
	err := r.sqldb.QueryRowContext(ctx, query).Scan(
		&a.ProductsTotal, &a.ProductsActive, &a.CartsTotal,
		&a.CartsWithItems, &a.OrdersPaid, &a.Revenue,
	)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}

	rows, err := r.sqldb.QueryContext(ctx,
		`SELECT type, count(*) FROM products GROUP BY type;`)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	defer rows.Close()

	a.ProductsByType = map[domain.ProductType]int64{}
	for rows.Next() {
		var (
			t string
			n int64
		)
		if err := rows.Scan(&t, &n); err != nil {
			return domain.Analytics{}, fmt.Errorf("%s: %w", op, err)
		}
		a.ProductsByType[domain.ProductType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return domain.Analytics{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return a, nil
}
