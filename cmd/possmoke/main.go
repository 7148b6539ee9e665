// Command possmoke logs in to a running backend and prints one sale with its
// line items, to check that sales come back with their lines attached.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"pos-backend/pkg/clients/pos"
	"pos-backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "backend base URL")
	username := flag.String("user", os.Getenv("POS_USERNAME"), "login username")
	password := flag.String("password", os.Getenv("POS_PASSWORD"), "login password")
	saleID := flag.Uint("sale", 1, "sale id to fetch")
	flag.Parse()

	log := logger.Must(logger.New())
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := pos.NewClient(*baseURL)
	if _, err := client.Login(ctx, *username, *password); err != nil {
		log.Fatal("login failed", zap.Error(err))
	}

	sale, err := client.GetSale(ctx, *saleID)
	if err != nil {
		log.Fatal("fetch failed", zap.Error(err))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, sale.Raw, "", "  "); err == nil {
		fmt.Println(pretty.String())
	}

	for _, l := range sale.Items {
		name := ""
		if l.Item != nil {
			name = l.Item.Name
		}
		fmt.Printf("line %d: %s x%d @ %s = %s (batch id %d)\n",
			l.ID, name, l.Quantity, l.UnitPrice, l.Amount, l.InventoryBatchID)
	}
	log.Info("sale fetched",
		zap.Uint("sale_id", sale.ID),
		zap.Int("items", len(sale.Items)),
		zap.Int("total_quantity", sale.TotalQuantity),
		zap.String("total_amount", sale.TotalAmount))
}
