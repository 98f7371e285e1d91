package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

const seedImageURL = "https://images.unsplash.com/photo-1542751371-adc38448a05e?w=400&h=300&fit=crop"

// SeedCatalog inserts the default games and vouchers into empty tables.
// Tables that already hold rows are left alone.
func SeedCatalog(ctx context.Context, games interfaces.GameRepository, vouchers interfaces.VoucherRepository) error {
	n, err := games.Count(ctx)
	if err != nil {
		return fmt.Errorf("count games: %w", err)
	}
	if n == 0 {
		for _, g := range seedGames() {
			g := g
			if err := games.Insert(ctx, &g); err != nil {
				return fmt.Errorf("seed game %s: %w", g.Slug, err)
			}
		}
		telemetry.Logger.Info("Seeded games", zap.Int("count", len(seedGames())))
	}

	n, err = vouchers.Count(ctx)
	if err != nil {
		return fmt.Errorf("count vouchers: %w", err)
	}
	if n == 0 {
		for _, v := range seedVouchers() {
			v := v
			if err := vouchers.Insert(ctx, &v); err != nil {
				return fmt.Errorf("seed voucher %s: %w", v.Slug, err)
			}
		}
		telemetry.Logger.Info("Seeded vouchers", zap.Int("count", len(seedVouchers())))
	}

	return nil
}

func denoms(currency string, pairs ...int64) models.Denominations {
	out := make(models.Denominations, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Denomination{
			Amount:   int(pairs[i]),
			Price:    decimal.NewFromInt(pairs[i+1]),
			Currency: currency,
		})
	}
	return out
}

func seedGames() []models.Game {
	image := seedImageURL
	return []models.Game{
		{
			Name:          "Mobile Legends",
			Slug:          "mobile-legends",
			Description:   "Mobile Legends: Bang Bang is a multiplayer online battle arena mobile game. Join millions of players in epic 5v5 battles and climb the ranks!",
			ImageURL:      &image,
			Denominations: denoms("Diamonds", 86, 20000, 172, 40000, 257, 60000, 429, 100000, 878, 200000),
			ServerType:    models.ServerTypeUserID,
			IsActive:      true,
		},
		{
			Name:          "Free Fire",
			Slug:          "free-fire",
			Description:   "Garena Free Fire is a battle royale game where you fight to be the last one standing. Customize your character and dominate the battlefield!",
			ImageURL:      &image,
			Denominations: denoms("Diamonds", 100, 15000, 210, 30000, 355, 50000, 720, 100000, 1450, 200000),
			ServerType:    models.ServerTypeUserID,
			IsActive:      true,
		},
		{
			Name:          "Genshin Impact",
			Slug:          "genshin-impact",
			Description:   "Embark on a journey across Teyvat to find your lost sibling and seek answers from The Seven. Explore the world of Genshin Impact!",
			ImageURL:      &image,
			Denominations: denoms("Genesis Crystals", 60, 15000, 330, 79000, 1090, 249000, 2240, 499000, 3880, 799000),
			ServerType:    models.ServerTypeRegion,
			IsActive:      true,
		},
		{
			Name:          "PUBG Mobile",
			Slug:          "pubg-mobile",
			Description:   "Experience the ultimate battle royale on mobile! Drop in, loot up, and compete to be the last one standing in PUBG Mobile.",
			ImageURL:      &image,
			Denominations: denoms("UC", 60, 15000, 325, 75000, 660, 150000, 1800, 400000, 3850, 800000),
			ServerType:    models.ServerTypeUserID,
			IsActive:      true,
		},
	}
}

func seedVouchers() []models.Voucher {
	image := seedImageURL
	voucher := func(name, slug, description string, price int64) models.Voucher {
		return models.Voucher{
			Name:        name,
			Slug:        slug,
			Description: description,
			ImageURL:    &image,
			Price:       decimal.NewFromInt(price),
			Currency:    models.DefaultCurrency,
			IsActive:    true,
		}
	}
	steam := "Add funds to your Steam Wallet to purchase games, DLC, and in-game items from the Steam Store."
	googlePlay := "Use Google Play credits to purchase apps, games, and in-app content on the Google Play Store."
	return []models.Voucher{
		voucher("Steam Wallet - IDR 50.000", "steam-wallet-50000", steam, 50000),
		voucher("Steam Wallet - IDR 100.000", "steam-wallet-100000", steam, 100000),
		voucher("PlayStation Network - IDR 150.000", "psn-150000", "Purchase games, add-ons, and more from the PlayStation Store with this PSN card.", 150000),
		voucher("Google Play - IDR 25.000", "google-play-25000", googlePlay, 25000),
		voucher("Google Play - IDR 50.000", "google-play-50000", googlePlay, 50000),
		voucher("iTunes Gift Card - IDR 75.000", "itunes-75000", "Redeem on the App Store, iTunes Store, and other Apple services for apps, games, music, and more.", 75000),
	}
}
