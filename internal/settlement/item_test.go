package settlement

import (
	"errors"
	"testing"
	"time"

	"github.com/skeebs10/settlr/internal/models"
)

func newItem(id string, price models.Cents) models.Item {
	item := models.Item{ID: id, Name: id, Price: price}
	RecomputeItem(&item)
	return item
}

func TestResolveClaimAmount(t *testing.T) {
	tests := []struct {
		name      string
		item      models.Item
		claimType models.ClaimType
		req       ClaimRequest
		want      models.Cents
		wantErr   error
	}{
		{
			name:      "full claim takes remaining amount",
			item:      newItem("burger", 1500),
			claimType: models.ClaimFull,
			want:      1500,
		},
		{
			name:      "half claim on even price",
			item:      newItem("fries", 800),
			claimType: models.ClaimHalf,
			want:      400,
		},
		{
			name:      "half claim rounds odd cents away from zero",
			item:      newItem("mint", 15),
			claimType: models.ClaimHalf,
			want:      8,
		},
		{
			name:      "custom amount within remaining",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomAmount,
			req:       ClaimRequest{Amount: 300},
			want:      300,
		},
		{
			name:      "custom amount clamps to remaining",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomAmount,
			req:       ClaimRequest{Amount: 900},
			want:      500,
		},
		{
			name:      "custom amount of zero rejected",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomAmount,
			req:       ClaimRequest{Amount: 0},
			wantErr:   ErrInvalidClaim,
		},
		{
			name:      "negative custom amount rejected",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomAmount,
			req:       ClaimRequest{Amount: -100},
			wantErr:   ErrInvalidClaim,
		},
		{
			name:      "custom percent resolves against price",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomPercent,
			req:       ClaimRequest{Percent: 25},
			want:      125,
		},
		{
			name:      "custom percent rounds to nearest cent",
			item:      newItem("odd", 333),
			claimType: models.ClaimCustomPercent,
			req:       ClaimRequest{Percent: 50},
			want:      167, // 166.5 rounds away from zero
		},
		{
			name:      "percent over 100 rejected",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomPercent,
			req:       ClaimRequest{Percent: 120},
			wantErr:   ErrInvalidClaim,
		},
		{
			name:      "negative percent rejected",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomPercent,
			req:       ClaimRequest{Percent: -1},
			wantErr:   ErrInvalidClaim,
		},
		{
			name:      "zero percent resolves to zero and is rejected",
			item:      newItem("drink", 500),
			claimType: models.ClaimCustomPercent,
			req:       ClaimRequest{Percent: 0},
			wantErr:   ErrInvalidClaim,
		},
		{
			name:      "unknown claim type rejected",
			item:      newItem("drink", 500),
			claimType: models.ClaimType("THIRDS"),
			wantErr:   ErrInvalidClaim,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveClaimAmount(&tt.item, tt.claimType, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveClaimAmount() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveClaimAmount() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveClaimAmount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveClaimAmountFullOnClaimedItem(t *testing.T) {
	item := newItem("burger", 1500)
	ApplyClaim(&item, "alex", models.ClaimFull, 1500, time.Now())

	// Nothing remains, so FULL resolves to zero and is rejected.
	if _, err := ResolveClaimAmount(&item, models.ClaimFull, ClaimRequest{}); !errors.Is(err, ErrInvalidClaim) {
		t.Errorf("expected ErrInvalidClaim on fully-claimed item, got %v", err)
	}
}

func TestApplyClaimScenarios(t *testing.T) {
	now := time.Now()

	t.Run("full claim fully claims item", func(t *testing.T) {
		item := newItem("burger", 1500)
		amount, err := ResolveClaimAmount(&item, models.ClaimFull, ClaimRequest{})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		ApplyClaim(&item, "alex", models.ClaimFull, amount, now)

		if item.ClaimedAmount != 1500 || item.RemainingAmount != 0 {
			t.Errorf("claimed/remaining = %d/%d, want 1500/0", item.ClaimedAmount, item.RemainingAmount)
		}
		if item.Status != models.ItemFullyClaimed {
			t.Errorf("status = %s, want FULLY_CLAIMED", item.Status)
		}
	})

	t.Run("half claim leaves item partial", func(t *testing.T) {
		item := newItem("fries", 800)
		amount, err := ResolveClaimAmount(&item, models.ClaimHalf, ClaimRequest{})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		ApplyClaim(&item, "alex", models.ClaimHalf, amount, now)

		if item.ClaimedAmount != 400 || item.RemainingAmount != 400 {
			t.Errorf("claimed/remaining = %d/%d, want 400/400", item.ClaimedAmount, item.RemainingAmount)
		}
		if item.Status != models.ItemPartial {
			t.Errorf("status = %s, want PARTIAL", item.Status)
		}
	})

	t.Run("re-claim replaces rather than adds", func(t *testing.T) {
		item := newItem("fries", 800)
		ApplyClaim(&item, "alex", models.ClaimHalf, 400, now)
		ApplyClaim(&item, "alex", models.ClaimCustomAmount, 200, now)

		if len(item.Claims) != 1 {
			t.Fatalf("claims = %d, want 1", len(item.Claims))
		}
		if item.ClaimedAmount != 200 {
			t.Errorf("claimed = %d, want 200", item.ClaimedAmount)
		}
	})

	t.Run("claims by different participants accumulate", func(t *testing.T) {
		item := newItem("fries", 800)
		ApplyClaim(&item, "alex", models.ClaimHalf, 400, now)
		ApplyClaim(&item, "casey", models.ClaimHalf, 400, now)

		if item.ClaimedAmount != 800 || item.Status != models.ItemFullyClaimed {
			t.Errorf("claimed = %d status = %s, want 800 FULLY_CLAIMED", item.ClaimedAmount, item.Status)
		}
	})

	t.Run("invariant claimed plus remaining equals price", func(t *testing.T) {
		item := newItem("burger", 1500)
		ApplyClaim(&item, "alex", models.ClaimCustomAmount, 699, now)
		ApplyClaim(&item, "casey", models.ClaimCustomAmount, 301, now)

		if item.ClaimedAmount+item.RemainingAmount != item.Price {
			t.Errorf("claimed %d + remaining %d != price %d", item.ClaimedAmount, item.RemainingAmount, item.Price)
		}
		if item.ClaimedAmount < 0 || item.ClaimedAmount > item.Price {
			t.Errorf("claimed %d out of [0, %d]", item.ClaimedAmount, item.Price)
		}
	})
}

func TestRemoveClaim(t *testing.T) {
	now := time.Now()

	t.Run("round trip restores pre-claim state", func(t *testing.T) {
		item := newItem("burger", 1500)
		before := item

		claim := ApplyClaim(&item, "alex", models.ClaimFull, 1500, now)
		if err := RemoveClaim(&item, claim.ID); err != nil {
			t.Fatalf("RemoveClaim failed: %v", err)
		}

		if item.ClaimedAmount != before.ClaimedAmount ||
			item.RemainingAmount != before.RemainingAmount ||
			item.Status != before.Status ||
			len(item.Claims) != 0 {
			t.Errorf("item not restored: claimed=%d remaining=%d status=%s claims=%d",
				item.ClaimedAmount, item.RemainingAmount, item.Status, len(item.Claims))
		}
	})

	t.Run("unknown claim id", func(t *testing.T) {
		item := newItem("burger", 1500)
		if err := RemoveClaim(&item, "nope"); !errors.Is(err, ErrClaimNotFound) {
			t.Errorf("error = %v, want ErrClaimNotFound", err)
		}
	})
}

func TestRecomputeItemZeroPrice(t *testing.T) {
	// A zero-price item with no claims is UNCLAIMED, not FULLY_CLAIMED.
	item := newItem("water", 0)
	if item.Status != models.ItemUnclaimed {
		t.Errorf("status = %s, want UNCLAIMED", item.Status)
	}
}
