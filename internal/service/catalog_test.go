package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/topup-store/internal/cache"
	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
	"github.com/akylbek/payment-system/topup-store/internal/repository"
)

func newCatalog(t *testing.T, c interfaces.CatalogCache) (*Catalog, *repository.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	if c == nil {
		c = cache.NopCatalogCache{}
	}
	return NewCatalog(store.Games(), store.Vouchers(), c, pub, 10), store, pub
}

func validGameInput() GameInput {
	return GameInput{
		Name:        "Honkai: Star Rail",
		Description: "Space fantasy RPG",
		BasePrice:   decimal.NewFromInt(16000),
		Denominations: []DenominationInput{
			{Amount: 60, Price: decimal.NewFromInt(16000), Currency: "Oneiric Shard"},
			{Amount: 300, Price: decimal.RequireFromString("79000.50"), Currency: "Oneiric Shard"},
		},
		ServerType: "server_id",
	}
}

func TestCreateGameDerivesSlugAndDefaultsActive(t *testing.T) {
	catalog, _, pub := newCatalog(t, nil)

	game, err := catalog.CreateGame(context.Background(), validGameInput())
	require.NoError(t, err)

	assert.NotZero(t, game.ID)
	assert.Equal(t, "honkai-star-rail", game.Slug)
	assert.True(t, game.IsActive)
	assert.Equal(t, models.ServerTypeServerID, game.ServerType)
	require.Len(t, game.Denominations, 2)
	assert.True(t, game.Denominations[1].Price.Equal(decimal.RequireFromString("79000.5")))
	assert.Equal(t, []string{interfaces.TopicCatalogGameChanged}, pub.topics())
}

func TestGameValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *GameInput)
		field  string
		msg    string
	}{
		{"empty denominations", func(in *GameInput) { in.Denominations = []DenominationInput{} }, "denominations", "At least one denomination is required."},
		{"missing denominations", func(in *GameInput) { in.Denominations = nil }, "denominations", "At least one denomination is required."},
		{"missing name", func(in *GameInput) { in.Name = ""; in.Slug = "named" }, "name", "Game name is required."},
		{"bad server type", func(in *GameInput) { in.ServerType = "realm" }, "server_type", "Server type must be one of region, server_id or user_id."},
		{"negative base price", func(in *GameInput) { in.BasePrice = decimal.NewFromInt(-1) }, "base_price", ""},
		{"zero denomination amount", func(in *GameInput) { in.Denominations[0].Amount = 0 }, "denominations[0].amount", ""},
		{"base price over column range", func(in *GameInput) { in.BasePrice = decimal.RequireFromString("12345678901.50") }, "base_price", "The base price field must not be greater than 9999999999.99."},
		{"fractional cents", func(in *GameInput) { in.Denominations[1].Price = decimal.RequireFromString("1.999") }, "denominations[1].price", ""},
		{"bad image url", func(in *GameInput) { u := "not a url"; in.ImageURL = &u }, "image_url", ""},
		{"bad slug", func(in *GameInput) { in.Slug = "Not A Slug" }, "slug", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, store, _ := newCatalog(t, nil)
			in := validGameInput()
			tt.mutate(&in)

			_, err := catalog.CreateGame(context.Background(), in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			require.Contains(t, ve.Fields, tt.field)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, ve.Fields[tt.field])
			}

			n, err := store.Games().Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestUpdateGameRejectsEmptyDenominations(t *testing.T) {
	catalog, _, _ := newCatalog(t, nil)
	ctx := context.Background()
	game, err := catalog.CreateGame(ctx, validGameInput())
	require.NoError(t, err)

	in := validGameInput()
	in.Slug = game.Slug
	in.Denominations = []DenominationInput{}
	_, err = catalog.UpdateGame(ctx, game.ID, in)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "At least one denomination is required.", ve.Fields["denominations"])

	stored, err := catalog.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Denominations, 2)
}

func TestUpdateGameSlugUniqueness(t *testing.T) {
	catalog, _, _ := newCatalog(t, nil)
	ctx := context.Background()

	first, err := catalog.CreateGame(ctx, validGameInput())
	require.NoError(t, err)
	other := validGameInput()
	other.Name = "Zenless Zone Zero"
	second, err := catalog.CreateGame(ctx, other)
	require.NoError(t, err)

	keep := validGameInput()
	keep.Slug = first.Slug
	keep.Description = "Updated"
	updated, err := catalog.UpdateGame(ctx, first.ID, keep)
	require.NoError(t, err, "a game may keep its own slug")
	assert.Equal(t, "Updated", updated.Description)

	steal := validGameInput()
	steal.Slug = second.Slug
	_, err = catalog.UpdateGame(ctx, first.ID, steal)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, slugTakenMessage, ve.Fields["slug"])

	missing := validGameInput()
	_, err = catalog.UpdateGame(ctx, first.ID, missing)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Game slug is required.", ve.Fields["slug"])

	_, err = catalog.UpdateGame(ctx, 999, keep)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateGameWithTakenSlug(t *testing.T) {
	catalog, _, _ := newCatalog(t, nil)
	ctx := context.Background()

	_, err := catalog.CreateGame(ctx, validGameInput())
	require.NoError(t, err)

	_, err = catalog.CreateGame(ctx, validGameInput())
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, slugTakenMessage, ve.Fields["slug"])
}

func TestInactiveGameIsNotFound(t *testing.T) {
	catalog, _, _ := newCatalog(t, nil)
	ctx := context.Background()

	in := validGameInput()
	inactive := false
	in.IsActive = &inactive
	game, err := catalog.CreateGame(ctx, in)
	require.NoError(t, err)

	_, err = catalog.GetGameBySlug(ctx, game.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = catalog.GetGameBySlug(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := catalog.ListActiveGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	admin, err := catalog.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.False(t, admin.IsActive)
}

func TestDeleteGame(t *testing.T) {
	catalog, _, pub := newCatalog(t, nil)
	ctx := context.Background()

	game, err := catalog.CreateGame(ctx, validGameInput())
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteGame(ctx, game.ID))
	_, err = catalog.GetGame(ctx, game.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, catalog.DeleteGame(ctx, game.ID), ErrNotFound)
	assert.Len(t, pub.topics(), 2)
}

func TestHomeLimitsSeededCatalog(t *testing.T) {
	catalog, store, _ := newCatalog(t, nil)
	ctx := context.Background()
	require.NoError(t, repository.SeedCatalog(ctx, store.Games(), store.Vouchers()))

	games, vouchers, err := catalog.Home(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 4)
	assert.Len(t, vouchers, homeVoucherLimit)

	all, err := catalog.ListActiveVouchers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	v, err := catalog.GetVoucherBySlug(ctx, all[0].Slug)
	require.NoError(t, err)
	assert.Equal(t, all[0].ID, v.ID)

	g, err := catalog.GetGameBySlug(ctx, "free-fire")
	require.NoError(t, err)
	assert.Equal(t, "Free Fire", g.Name)
}

func TestListGamesPaginates(t *testing.T) {
	catalog, _, _ := newCatalog(t, nil)
	ctx := context.Background()
	for _, name := range []string{"A One", "B Two", "C Three"} {
		in := validGameInput()
		in.Name = name
		_, err := catalog.CreateGame(ctx, in)
		require.NoError(t, err)
	}

	games, meta, err := catalog.ListGames(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, games, 3)
	assert.Equal(t, int64(3), meta.Total)
	assert.False(t, meta.HasNext)
}

func TestCatalogReadsThroughRedisAndInvalidatesOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	catalog, _, _ := newCatalog(t, cache.NewRedisCatalogCache(client, time.Minute))
	ctx := context.Background()

	game, err := catalog.CreateGame(ctx, validGameInput())
	require.NoError(t, err)

	games, err := catalog.ListActiveGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.True(t, mr.Exists("catalog:games:active"))

	_, err = catalog.GetGameBySlug(ctx, game.Slug)
	require.NoError(t, err)
	assert.True(t, mr.Exists("catalog:game:"+game.Slug))

	in := validGameInput()
	in.Slug = game.Slug
	inactive := false
	in.IsActive = &inactive
	_, err = catalog.UpdateGame(ctx, game.ID, in)
	require.NoError(t, err)

	assert.False(t, mr.Exists("catalog:games:active"))
	assert.False(t, mr.Exists("catalog:game:"+game.Slug))

	_, err = catalog.GetGameBySlug(ctx, game.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	games, err = catalog.ListActiveGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestCatalogFallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	catalog, store, _ := newCatalog(t, cache.NewRedisCatalogCache(client, time.Minute))
	ctx := context.Background()
	require.NoError(t, repository.SeedCatalog(ctx, store.Games(), store.Vouchers()))

	mr.Close()

	games, err := catalog.ListActiveGames(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 4)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Mobile Legends":       "mobile-legends",
		"  Honkai: Star Rail ": "honkai-star-rail",
		"Pokémon Unite":        "pokemon-unite",
		"PUBG -- Mobile!!":     "pubg-mobile",
		"???":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in, 255), in)
	}
	assert.Equal(t, "abc", Slugify("abc-def", 4))
}
