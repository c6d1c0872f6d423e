package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jcastrom/pospoint/internal/adapter/rest"
	"github.com/jcastrom/pospoint/internal/config"
	"github.com/jcastrom/pospoint/internal/core/catalog"
	"github.com/jcastrom/pospoint/internal/core/checkout"
	"github.com/jcastrom/pospoint/internal/port"
)

// A scriptable register session: list the catalog, or ring up a sale in
// one shot ("sell 3x2 7x1" = two units of product 3 plus one of 7).
func main() {
	configPath := flag.String("config", "pospoint.yaml", "path to config file")
	userID := flag.Int64("user", 0, "cashier user id")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client := rest.NewClient(cfg.API.BaseURL, port.StaticToken(cfg.API.Token), cfg.API.WriteTimeout.Std())
	cache := catalog.NewCache(client)
	engine := checkout.NewEngine(cache, client, client, cfg.API.WriteTimeout.Std())

	ctx := context.Background()
	if err := cache.Load(ctx); err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		for _, p := range cache.Products() {
			fmt.Printf("%4d  %-30s  $%8.2f  stock %d\n", p.ID, p.Name, p.Price, p.Stock)
		}

	case "sell":
		if len(args) < 2 {
			log.Fatal("sell: need at least one ITEMxQTY argument")
		}
		for _, arg := range args[1:] {
			productID, qty, err := parseItem(arg)
			if err != nil {
				log.Fatalf("sell: %v", err)
			}
			if err := engine.AddToCart(productID, qty); err != nil {
				log.Fatalf("add product %d: %v", productID, err)
			}
		}

		for _, l := range engine.Lines() {
			fmt.Printf("%4d x %-30s  $%8.2f\n", l.Quantity, l.Product.Name, l.Subtotal())
		}
		fmt.Printf("total: $%.2f\n", engine.Total())

		receipt, err := engine.Checkout(ctx, *userID)
		if err != nil {
			log.Fatalf("checkout: %v", err)
		}
		fmt.Printf("sale %s recorded, $%.2f\n", receipt.ID, receipt.Total)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want list or sell)\n", args[0])
		os.Exit(2)
	}
}

func parseItem(arg string) (int64, int, error) {
	id, qtyStr, ok := strings.Cut(arg, "x")
	if !ok {
		return 0, 0, fmt.Errorf("malformed item %q, want ITEMxQTY", arg)
	}
	productID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed product id in %q", arg)
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed quantity in %q", arg)
	}
	return productID, qty, nil
}
