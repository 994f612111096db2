package service

import (
	"context"
	"log/slog"

	"github.com/skeebs10/settlr/internal/models"
)

// SeedDemoTab creates a small open tab for local development and demos.
// Returns the created tab so callers can print its join link.
func SeedDemoTab(ctx context.Context, tabs *TabService) (*models.Tab, error) {
	tab := &models.Tab{
		VenueName: "TAO Downtown",
		TableName: "Table 12",
		Items: []models.Item{
			{Name: "Burger", Price: 1500},
			{Name: "Fries", Price: 800},
			{Name: "Drink", Price: 500},
		},
	}
	created, err := tabs.CreateTab(ctx, tab)
	if err != nil {
		return nil, err
	}

	slog.Info("Demo tab seeded", "tab_id", created.ID, "qr_token", created.QRToken)
	return created, nil
}
