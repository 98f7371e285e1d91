package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/topup-store/internal/models"
)

const (
	keyActiveGames    = "catalog:games:active"
	keyActiveVouchers = "catalog:vouchers:active"
	keyGamePrefix     = "catalog:game:"
	keyVoucherPrefix  = "catalog:voucher:"
)

// RedisCatalogCache keeps JSON copies of catalog lookups in Redis.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

func (c *RedisCatalogCache) GetGames(ctx context.Context) ([]models.Game, bool, error) {
	var games []models.Game
	found, err := c.get(ctx, keyActiveGames, &games)
	return games, found, err
}

func (c *RedisCatalogCache) SetGames(ctx context.Context, games []models.Game) error {
	return c.set(ctx, keyActiveGames, games)
}

func (c *RedisCatalogCache) GetGame(ctx context.Context, slug string) (*models.Game, bool, error) {
	var game models.Game
	found, err := c.get(ctx, keyGamePrefix+slug, &game)
	if !found || err != nil {
		return nil, found, err
	}
	return &game, true, nil
}

func (c *RedisCatalogCache) SetGame(ctx context.Context, game *models.Game) error {
	return c.set(ctx, keyGamePrefix+game.Slug, game)
}

func (c *RedisCatalogCache) GetVouchers(ctx context.Context) ([]models.Voucher, bool, error) {
	var vouchers []models.Voucher
	found, err := c.get(ctx, keyActiveVouchers, &vouchers)
	return vouchers, found, err
}

func (c *RedisCatalogCache) SetVouchers(ctx context.Context, vouchers []models.Voucher) error {
	return c.set(ctx, keyActiveVouchers, vouchers)
}

func (c *RedisCatalogCache) GetVoucher(ctx context.Context, slug string) (*models.Voucher, bool, error) {
	var voucher models.Voucher
	found, err := c.get(ctx, keyVoucherPrefix+slug, &voucher)
	if !found || err != nil {
		return nil, found, err
	}
	return &voucher, true, nil
}

func (c *RedisCatalogCache) SetVoucher(ctx context.Context, voucher *models.Voucher) error {
	return c.set(ctx, keyVoucherPrefix+voucher.Slug, voucher)
}

// InvalidateGames drops the active game list and the given per-slug entries.
func (c *RedisCatalogCache) InvalidateGames(ctx context.Context, slugs ...string) error {
	keys := []string{keyActiveGames}
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, keyGamePrefix+s)
		}
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCatalogCache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCatalogCache) set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// NopCatalogCache never stores anything; every lookup is a miss.
type NopCatalogCache struct{}

func (NopCatalogCache) GetGames(context.Context) ([]models.Game, bool, error)  { return nil, false, nil }
func (NopCatalogCache) SetGames(context.Context, []models.Game) error           { return nil }
func (NopCatalogCache) GetGame(context.Context, string) (*models.Game, bool, error) {
	return nil, false, nil
}
func (NopCatalogCache) SetGame(context.Context, *models.Game) error { return nil }
func (NopCatalogCache) GetVouchers(context.Context) ([]models.Voucher, bool, error) {
	return nil, false, nil
}
func (NopCatalogCache) SetVouchers(context.Context, []models.Voucher) error { return nil }
func (NopCatalogCache) GetVoucher(context.Context, string) (*models.Voucher, bool, error) {
	return nil, false, nil
}
func (NopCatalogCache) SetVoucher(context.Context, *models.Voucher) error { return nil }
func (NopCatalogCache) InvalidateGames(context.Context, ...string) error  { return nil }
