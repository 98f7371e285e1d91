package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
)

const voucherColumns = `id, name, slug, description, image_url, price, currency, is_active, created_at, updated_at`

type VoucherRepository struct {
	db *sql.DB
}

func NewVoucherRepository(db *sql.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

func (r *VoucherRepository) ListActive(ctx context.Context, limit int) ([]models.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE is_active = TRUE ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vouchers := []models.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, *v)
	}
	return vouchers, rows.Err()
}

func (r *VoucherRepository) GetBySlug(ctx context.Context, slug string) (*models.Voucher, error) {
	v, err := scanVoucher(r.db.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	return v, err
}

func (r *VoucherRepository) Insert(ctx context.Context, v *models.Voucher) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO vouchers (name, slug, description, image_url, price, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, v.Name, v.Slug, v.Description, v.ImageURL, v.Price, v.Currency, v.IsActive,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("slug %s: %w", v.Slug, interfaces.ErrDuplicate)
	}
	return err
}

func (r *VoucherRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vouchers`).Scan(&total)
	return total, err
}

func scanVoucher(row rowScanner) (*models.Voucher, error) {
	var (
		v        models.Voucher
		imageURL sql.NullString
	)
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &v.Description, &imageURL, &v.Price, &v.Currency,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		v.ImageURL = &imageURL.String
	}
	return &v, nil
}
