package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
)

const gameColumns = `id, name, slug, description, image_url, base_price, denominations,
	is_active, server_type, created_at, updated_at`

type GameRepository struct {
	db *sql.DB
}

func NewGameRepository(db *sql.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) ListActive(ctx context.Context, limit int) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE is_active = TRUE ORDER BY id`
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
	return collectGames(rows)
}

func (r *GameRepository) GetBySlug(ctx context.Context, slug string) (*models.Game, error) {
	return r.getOne(ctx, `SELECT `+gameColumns+` FROM games WHERE slug = $1`, slug)
}

func (r *GameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	return r.getOne(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
}

func (r *GameRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Game, error) {
	game, err := scanGame(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	return game, err
}

func (r *GameRepository) List(ctx context.Context, limit, offset int) ([]models.Game, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+gameColumns+` FROM games
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	games, err := collectGames(rows)
	return games, total, err
}

func (r *GameRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&total)
	return total, err
}

func (r *GameRepository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM games WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&taken)
	return taken, err
}

func (r *GameRepository) Insert(ctx context.Context, game *models.Game) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO games (name, slug, description, image_url, base_price, denominations, is_active, server_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, game.Name, game.Slug, game.Description, game.ImageURL, game.BasePrice, game.Denominations,
		game.IsActive, game.ServerType,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("slug %s: %w", game.Slug, interfaces.ErrDuplicate)
	}
	return err
}

func (r *GameRepository) Update(ctx context.Context, game *models.Game) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE games
		SET name = $1, slug = $2, description = $3, image_url = $4, base_price = $5,
			denominations = $6, is_active = $7, server_type = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING created_at, updated_at
	`, game.Name, game.Slug, game.Description, game.ImageURL, game.BasePrice, game.Denominations,
		game.IsActive, game.ServerType, game.ID,
	).Scan(&game.CreatedAt, &game.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return interfaces.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("slug %s: %w", game.Slug, interfaces.ErrDuplicate)
	}
	return err
}

func (r *GameRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func collectGames(rows *sql.Rows) ([]models.Game, error) {
	games := []models.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

func scanGame(row rowScanner) (*models.Game, error) {
	var (
		game     models.Game
		imageURL sql.NullString
	)
	err := row.Scan(&game.ID, &game.Name, &game.Slug, &game.Description, &imageURL, &game.BasePrice,
		&game.Denominations, &game.IsActive, &game.ServerType, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		game.ImageURL = &imageURL.String
	}
	return &game, nil
}
