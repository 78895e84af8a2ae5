// Package parking provides a parking session lifecycle and billing core
// for Go applications.
//
// Parking is designed as a library, not a service. Import it directly into
// your Go application and wire it behind your own transport layer. It
// provides:
//
//   - Session key issuance at the gate (anonymous token or vehicle auto id)
//   - One-shot settlement: a key is consumed atomically on exit
//   - Flat and hourly tariffs with entry-time snapshots
//   - Sell-out promotions with linearizable counter consumption
//   - Coupon redemption through a pluggable discount collaborator
//   - Batched gate statistics with a background flush worker
//   - A plugin system for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/parking"
//	    "github.com/xraph/parking/store/memory"
//	)
//
//	eng := parking.New(memory.New(),
//	    parking.WithDefaultTariff("standard"),
//	)
//
//	// Start the engine (migrates the store, begins background workers)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Tariffs define what a session costs:
//
//	t := &tariff.Tariff{
//	    Name:    "standard",
//	    Cost:    types.USD(300),
//	    Billing: tariff.BillingHourly,
//	}
//
// Sessions open at the gate and close exactly once at settlement:
//
//	session, err := eng.EnterAnonymous(ctx, "standard")
//
//	cost, err := eng.GetCost(ctx, parking.CostRequest{Token: session.Token})
//
// A second GetCost with the same token fails with ErrSessionNotFound:
// exit is consuming.
//
// # Concurrency
//
// Sell-out counters and coupon redemption budgets decrement through
// conditional updates at the storage boundary, so two simultaneous exits
// competing for the last promotional slot resolve deterministically:
// exactly one wins, the other pays the base cost, and the counter never
// goes negative.
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (cents for USD, pence for GBP, etc).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	trf_01h2xcejqtf2nbrexx3vqjhp41   // Tariff ID
//	key_01h2xcejqtf2nbrexx3vqjhp41   // Session key ID (doubles as the token)
//	sout_01h455vb4pex5vsknk084sn02q  // Sell-out ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package parking
