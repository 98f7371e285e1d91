package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/topup-store/internal/models"
)

// GameRepository defines the contract for game catalog data access
type GameRepository interface {
	// ListActive returns active games in id order; limit <= 0 means no limit.
	ListActive(ctx context.Context, limit int) ([]models.Game, error)
	GetBySlug(ctx context.Context, slug string) (*models.Game, error)
	GetByID(ctx context.Context, id int64) (*models.Game, error)
	// List returns one page of all games, newest first, and the total count.
	List(ctx context.Context, limit, offset int) ([]models.Game, int64, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	Insert(ctx context.Context, game *models.Game) error
	Update(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// VoucherRepository defines the contract for voucher catalog data access
type VoucherRepository interface {
	ListActive(ctx context.Context, limit int) ([]models.Voucher, error)
	GetBySlug(ctx context.Context, slug string) (*models.Voucher, error)
	Insert(ctx context.Context, voucher *models.Voucher) error
	Count(ctx context.Context) (int64, error)
}

// CatalogCache stores read-mostly catalog lookups. Implementations report a
// miss with found == false and a nil error.
type CatalogCache interface {
	GetGames(ctx context.Context) (games []models.Game, found bool, err error)
	SetGames(ctx context.Context, games []models.Game) error
	GetGame(ctx context.Context, slug string) (game *models.Game, found bool, err error)
	SetGame(ctx context.Context, game *models.Game) error
	GetVouchers(ctx context.Context) (vouchers []models.Voucher, found bool, err error)
	SetVouchers(ctx context.Context, vouchers []models.Voucher) error
	GetVoucher(ctx context.Context, slug string) (voucher *models.Voucher, found bool, err error)
	SetVoucher(ctx context.Context, voucher *models.Voucher) error
	InvalidateGames(ctx context.Context, slugs ...string) error
}
