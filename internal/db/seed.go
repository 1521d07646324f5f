package db

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts demo data: a handful of dealers with funded wallets,
// vehicles, and a mix of featured and sponsored campaigns.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	makes := []string{"Toyota", "Honda", "Ford", "BMW", "Hyundai"}
	models := map[string][]string{
		"Toyota":  {"Corolla", "Camry", "RAV4"},
		"Honda":   {"Civic", "Accord", "CR-V"},
		"Ford":    {"Focus", "F-150", "Escape"},
		"BMW":     {"320i", "X3", "530i"},
		"Hyundai": {"Elantra", "Tucson", "Sonata"},
	}
	bodies := []string{"sedan", "suv", "pickup", "hatchback"}
	fuels := []string{"petrol", "diesel", "hybrid", "electric"}
	gearboxes := []string{"manual", "automatic"}
	colors := []string{"black", "white", "silver", "blue", "red"}
	cities := []string{"Austin", "Denver", "Seattle", "Miami"}

	for dealer := int64(1); dealer <= 5; dealer++ {
		var walletID int64
		err := db.QueryRow(ctx, `
			INSERT INTO wallets (dealer_id, total_balance_cents, created_at, updated_at)
			VALUES ($1, $2, now(), now())
			ON CONFLICT (dealer_id) DO UPDATE SET updated_at = now()
			RETURNING id`, dealer, int64(50000)).Scan(&walletID) // $500.00
		if err != nil {
			return err
		}
		_, err = db.Exec(ctx, `
			INSERT INTO wallet_transactions (id, wallet_id, occurred_at, title, amount_cents, tx_type)
			VALUES ($1, $2, now(), 'Initial top-up', $3, 'credit')`,
			uuid.NewString(), walletID, int64(50000))
		if err != nil {
			return err
		}

		for i := 0; i < 6; i++ {
			mk := makes[r.Intn(len(makes))]
			mdl := models[mk][r.Intn(len(models[mk]))]
			var vehicleID int64
			err = db.QueryRow(ctx, `
				INSERT INTO vehicles
					(dealer_id, make, model, year, price_cents, mileage, body_type,
					 fuel_type, transmission, color, location, dealer_verified, created_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
				RETURNING id`,
				dealer, mk, mdl, 2012+r.Intn(13), int64(500000+r.Intn(4000000)),
				r.Intn(180000), bodies[r.Intn(len(bodies))], fuels[r.Intn(len(fuels))],
				gearboxes[r.Intn(len(gearboxes))], colors[r.Intn(len(colors))],
				cities[r.Intn(len(cities))], dealer%2 == 0).Scan(&vehicleID)
			if err != nil {
				return err
			}

			// Every other vehicle gets a campaign.
			if i%2 != 0 {
				continue
			}
			adType := "featured"
			dailyBudget := int64(0)
			if r.Intn(2) == 0 {
				adType = "sponsored"
				dailyBudget = int64(200 + 100*r.Intn(4)) // $2.00 - $5.00 per day
			}
			start := time.Now().AddDate(0, 0, -r.Intn(3))
			days := 3 + r.Intn(5)
			end := start.AddDate(0, 0, days-1)
			_, err = db.Exec(ctx, `
				INSERT INTO advertisements
					(vehicle_id, dealer_id, ad_type, status, pause_reason,
					 start_date, end_date, daily_budget_cents, created_at, updated_at)
				VALUES ($1,$2,$3,'running','none',$4,$5,$6,now(),now())`,
				vehicleID, dealer, adType, start, end, dailyBudget)
			if err != nil {
				return fmt.Errorf("seed advertisement: %w", err)
			}
			if adType == "sponsored" {
				required := dailyBudget * int64(days)
				_, err = db.Exec(ctx, `
					UPDATE wallets SET reserve_balance_cents = reserve_balance_cents + $1,
					       updated_at = now()
					WHERE id = $2`, required, walletID)
				if err != nil {
					return err
				}
				_, err = db.Exec(ctx, `
					INSERT INTO wallet_transactions (id, wallet_id, occurred_at, title, amount_cents, tx_type)
					VALUES ($1, $2, now(), 'Reserved for seeded campaign', $3, 'reserve')`,
					uuid.NewString(), walletID, required)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}
