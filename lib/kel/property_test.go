// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/testutil"
)

func TestEscrowResolutionIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("every escrowed receipt is recorded exactly once", prop.ForAll(
		func(events, passes int, duplicated bool) bool {
			ctx := context.Background()
			f := newFixture(t)
			controller := f.incepted(t)
			for range events - 1 {
				if _, err := controller.Interact(ctx); err != nil {
					return false
				}
			}
			validator := testutil.NewIdentity(t, codec.JSON)
			log, err := controller.Log(ctx)
			if err != nil {
				return false
			}
			for _, signed := range log {
				receipt := validator.Receipt(signed)
				deliveries := 1
				if duplicated {
					deliveries = 2
				}
				for range deliveries {
					if outcome, err := controller.AddReceipt(ctx, nil, receipt); err != nil || outcome != ReceiptEscrowed {
						return false
					}
				}
			}

			accepted := 0
			for range passes {
				resolution, err := controller.ResolveEscrow(ctx, validator.State)
				if err != nil || resolution.Rejected != 0 || resolution.Pending != 0 {
					return false
				}
				accepted += resolution.Accepted
			}
			if escrowed, err := f.db.Escrowed(ctx, validator.Prefix()); err != nil || len(escrowed) != 0 {
				return false
			}
			expected := events
			if duplicated {
				expected *= 2
			}
			if accepted != expected {
				return false
			}
			for sn := range uint64(events) {
				receipts, err := controller.Receipts(ctx, sn)
				if err != nil || len(receipts) != 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.IntRange(1, 4),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
