package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/topup-store/internal/events"
	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

const (
	homeGameLimit    = 6
	homeVoucherLimit = 4
	slugMaxLen       = 255
)

type DenominationInput struct {
	Amount   int             `json:"amount" validate:"required,min=1"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Currency string          `json:"currency" validate:"required,max=50"`
}

// GameInput is the admin create/update form for a game.
type GameInput struct {
	Name          string              `json:"name" validate:"required,max=255"`
	Slug          string              `json:"slug" validate:"omitempty,max=255"`
	Description   string              `json:"description" validate:"required"`
	ImageURL      *string             `json:"image_url" validate:"omitempty,url,max=255"`
	BasePrice     decimal.Decimal     `json:"base_price" validate:"gte=0"`
	Denominations []DenominationInput `json:"denominations" validate:"required,min=1,dive"`
	IsActive      *bool               `json:"is_active"`
	ServerType    string              `json:"server_type" validate:"required,oneof=region server_id user_id"`
}

var gameMessages = map[string]string{
	"name.required":          "Game name is required.",
	"slug.required":          "Game slug is required.",
	"description.required":   "Game description is required.",
	"denominations.required": "At least one denomination is required.",
	"denominations.min":      "At least one denomination is required.",
	"server_type.oneof":      "Server type must be one of region, server_id or user_id.",
}

const slugTakenMessage = "This slug is already taken by another game."

type Catalog struct {
	games     interfaces.GameRepository
	vouchers  interfaces.VoucherRepository
	cache     interfaces.CatalogCache
	publisher interfaces.EventPublisher
	pageSize  int
}

func NewCatalog(
	games interfaces.GameRepository,
	vouchers interfaces.VoucherRepository,
	cache interfaces.CatalogCache,
	publisher interfaces.EventPublisher,
	pageSize int,
) *Catalog {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Catalog{
		games:     games,
		vouchers:  vouchers,
		cache:     cache,
		publisher: publisher,
		pageSize:  pageSize,
	}
}

func (c *Catalog) ListActiveGames(ctx context.Context) ([]models.Game, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.ListActiveGames")
	defer span.End()

	games, found, err := c.cache.GetGames(ctx)
	if c.cacheHit("games", found, err) {
		return games, nil
	}

	games, err = c.games.ListActive(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	c.cacheStore("games", c.cache.SetGames(ctx, games))
	return games, nil
}

// GetGameBySlug treats inactive games exactly like unknown slugs.
func (c *Catalog) GetGameBySlug(ctx context.Context, slug string) (*models.Game, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.GetGameBySlug")
	defer span.End()

	game, found, err := c.cache.GetGame(ctx, slug)
	if !c.cacheHit("game:"+slug, found, err) {
		game, err = c.games.GetBySlug(ctx, slug)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get game %s: %w", slug, err)
		}
		c.cacheStore("game:"+slug, c.cache.SetGame(ctx, game))
	}

	if !game.IsActive {
		return nil, ErrNotFound
	}
	return game, nil
}

func (c *Catalog) ListActiveVouchers(ctx context.Context) ([]models.Voucher, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.ListActiveVouchers")
	defer span.End()

	vouchers, found, err := c.cache.GetVouchers(ctx)
	if c.cacheHit("vouchers", found, err) {
		return vouchers, nil
	}

	vouchers, err = c.vouchers.ListActive(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list active vouchers: %w", err)
	}
	c.cacheStore("vouchers", c.cache.SetVouchers(ctx, vouchers))
	return vouchers, nil
}

func (c *Catalog) GetVoucherBySlug(ctx context.Context, slug string) (*models.Voucher, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.GetVoucherBySlug")
	defer span.End()

	voucher, found, err := c.cache.GetVoucher(ctx, slug)
	if !c.cacheHit("voucher:"+slug, found, err) {
		voucher, err = c.vouchers.GetBySlug(ctx, slug)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get voucher %s: %w", slug, err)
		}
		c.cacheStore("voucher:"+slug, c.cache.SetVoucher(ctx, voucher))
	}

	if !voucher.IsActive {
		return nil, ErrNotFound
	}
	return voucher, nil
}

// Home returns the games and vouchers featured on the landing page.
func (c *Catalog) Home(ctx context.Context) ([]models.Game, []models.Voucher, error) {
	games, err := c.ListActiveGames(ctx)
	if err != nil {
		return nil, nil, err
	}
	vouchers, err := c.ListActiveVouchers(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(games) > homeGameLimit {
		games = games[:homeGameLimit]
	}
	if len(vouchers) > homeVoucherLimit {
		vouchers = vouchers[:homeVoucherLimit]
	}
	return games, vouchers, nil
}

// ListGames is the admin listing: every game, newest first.
func (c *Catalog) ListGames(ctx context.Context, page int) ([]models.Game, models.PageMeta, error) {
	if page < 1 {
		page = 1
	}
	games, total, err := c.games.List(ctx, c.pageSize, models.Offset(page, c.pageSize))
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list games: %w", err)
	}
	return games, models.NewPageMeta(page, c.pageSize, total), nil
}

// GetGame is the admin lookup by id; inactive games are returned.
func (c *Catalog) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	game, err := c.games.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", id, err)
	}
	return game, nil
}

func (c *Catalog) CreateGame(ctx context.Context, in GameInput) (*models.Game, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.CreateGame")
	defer span.End()

	if strings.TrimSpace(in.Slug) == "" {
		in.Slug = Slugify(in.Name, slugMaxLen)
	}
	if err := c.validateGame(ctx, &in, 0); err != nil {
		return nil, err
	}

	game := &models.Game{IsActive: true}
	applyGameInput(game, in)

	if err := c.games.Insert(ctx, game); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, newValidationError("slug", slugTakenMessage)
		}
		return nil, fmt.Errorf("insert game: %w", err)
	}

	c.afterGameWrite(ctx, game, "created", game.Slug)
	return game, nil
}

func (c *Catalog) UpdateGame(ctx context.Context, id int64, in GameInput) (*models.Game, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.UpdateGame")
	defer span.End()

	game, err := c.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.validateGame(ctx, &in, id); err != nil {
		return nil, err
	}

	oldSlug := game.Slug
	applyGameInput(game, in)

	if err := c.games.Update(ctx, game); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, interfaces.ErrDuplicate):
			return nil, newValidationError("slug", slugTakenMessage)
		}
		return nil, fmt.Errorf("update game %d: %w", id, err)
	}

	c.afterGameWrite(ctx, game, "updated", oldSlug, game.Slug)
	return game, nil
}

// DeleteGame removes the game unconditionally. Transactions keep their own
// snapshot of the item, so nothing references the row.
func (c *Catalog) DeleteGame(ctx context.Context, id int64) error {
	ctx, span := telemetry.Tracer.Start(ctx, "catalog.DeleteGame")
	defer span.End()

	game, err := c.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if err := c.games.Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete game %d: %w", id, err)
	}

	c.afterGameWrite(ctx, game, "deleted", game.Slug)
	return nil
}

// validateGame checks in and normalises its optional fields. Update requires
// an explicit slug; create has already derived one from the name.
func (c *Catalog) validateGame(ctx context.Context, in *GameInput, excludeID int64) error {
	in.Slug = strings.TrimSpace(in.Slug)
	if in.ImageURL != nil && strings.TrimSpace(*in.ImageURL) == "" {
		in.ImageURL = nil
	}

	ve := validateStruct(in, "", gameMessages)
	if ve == nil {
		ve = &ValidationError{}
	}

	switch {
	case in.Slug == "":
		ve.add("slug", gameMessages["slug.required"])
	case !validSlug(in.Slug):
		ve.add("slug", "The slug may only contain lowercase letters, numbers and single hyphens.")
	default:
		if _, failed := ve.Fields["slug"]; !failed {
			taken, err := c.games.SlugTaken(ctx, in.Slug, excludeID)
			if err != nil {
				return fmt.Errorf("check slug %s: %w", in.Slug, err)
			}
			if taken {
				ve.add("slug", slugTakenMessage)
			}
		}
	}

	if _, failed := ve.Fields["base_price"]; !failed {
		checkMoney(ve, "base_price", in.BasePrice)
	}
	for i, d := range in.Denominations {
		field := fmt.Sprintf("denominations[%d].price", i)
		if _, failed := ve.Fields[field]; !failed {
			checkMoney(ve, field, d.Price)
		}
	}

	if !ve.empty() {
		return ve
	}
	return nil
}

func applyGameInput(game *models.Game, in GameInput) {
	game.Name = in.Name
	game.Slug = in.Slug
	game.Description = in.Description
	game.ImageURL = in.ImageURL
	game.BasePrice = in.BasePrice
	game.ServerType = models.ServerType(in.ServerType)
	if in.IsActive != nil {
		game.IsActive = *in.IsActive
	}
	game.Denominations = make(models.Denominations, len(in.Denominations))
	for i, d := range in.Denominations {
		game.Denominations[i] = models.Denomination{Amount: d.Amount, Price: d.Price, Currency: d.Currency}
	}
}

func (c *Catalog) afterGameWrite(ctx context.Context, game *models.Game, action string, slugs ...string) {
	if err := c.cache.InvalidateGames(ctx, slugs...); err != nil {
		telemetry.Logger.Warn("Failed to invalidate game cache",
			zap.Int64("game_id", game.ID),
			zap.Strings("slugs", slugs),
			zap.Error(err),
		)
	}
	telemetry.Logger.Info("Game "+action,
		zap.Int64("game_id", game.ID),
		zap.String("slug", game.Slug),
	)
	publish(ctx, c.publisher, interfaces.TopicCatalogGameChanged, game.Slug, events.GameEvent{
		GameID:    game.ID,
		Slug:      game.Slug,
		Action:    action,
		Timestamp: time.Now().UTC(),
	})
}

func (c *Catalog) cacheHit(key string, found bool, err error) bool {
	switch {
	case err != nil:
		telemetry.CatalogCacheRequests.WithLabelValues("error").Inc()
		telemetry.Logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	case found:
		telemetry.CatalogCacheRequests.WithLabelValues("hit").Inc()
		return true
	}
	telemetry.CatalogCacheRequests.WithLabelValues("miss").Inc()
	return false
}

func (c *Catalog) cacheStore(key string, err error) {
	if err != nil {
		telemetry.Logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
