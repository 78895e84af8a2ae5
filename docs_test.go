package parking_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	parking "github.com/xraph/parking"
	"github.com/xraph/parking/store/memory"
	"github.com/xraph/parking/tariff"
	"github.com/xraph/parking/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the engine
		eng := parking.New(store,
			parking.WithLogger(slog.Default()),
			parking.WithStatsConfig(100, 5*time.Second),
			parking.WithDefaultTariff("standard"),
		)

		// Start the engine
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		// Create a tariff
		standard := &tariff.Tariff{
			Name:    "standard",
			Cost:    types.USD(300), // $3.00 per started hour
			Billing: tariff.BillingHourly,
		}
		if err := eng.CreateTariff(ctx, standard); err != nil {
			t.Fatal(err)
		}

		// A driver takes a ticket at the gate
		session, err := eng.EnterAnonymous(ctx, "standard")
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Session opened: %s\n", session.Token)

		// ... and settles on the way out
		cost, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token})
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Session settled: %s\n", cost.String())
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(300)    // $3.00
		_ = types.EUR(250)    // €2.50
		_ = types.Zero("usd") // $0.00

		// Arithmetic
		m1 := types.USD(100)
		m2 := types.USD(200)
		_ = m1.Add(m2)      // $3.00
		_ = m1.Multiply(3)  // $3.00
		_ = m2.Percent(50)  // $1.00
		_ = m2.Subtract(m1) // $1.00

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
