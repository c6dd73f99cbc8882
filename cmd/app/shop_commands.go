package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/notDuyLam/myshop-wp/internal/application"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/notDuyLam/myshop-wp/internal/views"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
)

// shopAction builds the app and checks the persisted login before running fn.
func shopAction(fn func(ctx context.Context, c *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer func() { _ = a.stores.Close() }()
		if err := a.requireLogin(); err != nil {
			return err
		}
		return fn(ctx, c, a)
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func productFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sku", Required: required},
		&cli.StringFlag{Name: "name", Required: required},
		&cli.IntFlag{Name: "import-price"},
		&cli.IntFlag{Name: "count"},
		&cli.StringFlag{Name: "description"},
		&cli.UintFlag{Name: "category", Required: required, Usage: "category id"},
	}
}

// applyProductFlags overrides only the fields given on the command line.
func applyProductFlags(c *cli.Command, p domain.Product) domain.Product {
	if c.IsSet("sku") {
		p.SKU = c.String("sku")
	}
	if c.IsSet("name") {
		p.Name = c.String("name")
	}
	if c.IsSet("import-price") {
		p.ImportPrice = c.Int("import-price")
	}
	if c.IsSet("count") {
		p.Count = c.Int("count")
	}
	if c.IsSet("description") {
		p.Description = c.String("description")
	}
	if c.IsSet("category") {
		p.CategoryID = c.Uint("category")
	}
	return p
}

func productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "Browse and edit the product catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List one page of products",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keyword", Usage: "match name or sku, case-insensitive"},
					&cli.UintFlag{Name: "category", Usage: "category id"},
					&cli.StringFlag{Name: "sort", Value: string(domain.SortByName), Usage: "name, price or stock"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "page-size", Value: application.DefaultPageSize},
					jsonFlag(),
				},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					query := domain.ProductQuery{
						Keyword:  c.String("keyword"),
						Sort:     domain.ProductSort(c.String("sort")),
						Page:     c.Int("page"),
						PageSize: c.Int("page-size"),
					}
					if c.IsSet("category") {
						id := c.Uint("category")
						query.CategoryID = &id
					}
					page, err := loadProductPage(ctx, a.catalog, a.log, query)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(page)
					}
					printProductPage(page)
					return nil
				}),
			},
			{
				Name:      "get",
				Usage:     "Show one product",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					id, err := parseIDArg(c)
					if err != nil {
						return err
					}
					p, err := a.catalog.GetProduct(ctx, id)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(p)
					}
					printProduct(p)
					return nil
				}),
			},
			{
				Name:  "add",
				Usage: "Add a product",
				Flags: productFlags(true),
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					p, err := a.catalog.AddProduct(ctx, applyProductFlags(c, domain.Product{}))
					if err != nil {
						return err
					}
					fmt.Printf("product %d added\n", p.ID)
					return nil
				}),
			},
			{
				Name:      "update",
				Usage:     "Change the given fields of a product",
				ArgsUsage: "<id>",
				Flags:     productFlags(false),
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					id, err := parseIDArg(c)
					if err != nil {
						return err
					}
					current, err := a.catalog.GetProduct(ctx, id)
					if err != nil {
						return err
					}
					if _, err := a.catalog.UpdateProduct(ctx, applyProductFlags(c, current)); err != nil {
						return err
					}
					fmt.Printf("product %d updated\n", id)
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Delete a product that no order references",
				ArgsUsage: "<id>",
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					id, err := parseIDArg(c)
					if err != nil {
						return err
					}
					if err := a.catalog.RemoveProduct(ctx, id); err != nil {
						return err
					}
					fmt.Printf("product %d removed\n", id)
					return nil
				}),
			},
		},
	}
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "Manage product categories",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List categories",
				Flags: []cli.Flag{jsonFlag()},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					items, err := a.catalog.ListCategories(ctx)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(items)
					}
					printCategories(items)
					return nil
				}),
			},
			{
				Name:  "add",
				Usage: "Add a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
				},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					created, err := a.catalog.AddCategory(ctx, domain.Category{
						Name:        c.String("name"),
						Description: c.String("description"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("category %d added\n", created.ID)
					return nil
				}),
			},
			{
				Name:      "update",
				Usage:     "Rename or describe a category",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
				},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					id, err := parseIDArg(c)
					if err != nil {
						return err
					}
					_, err = a.catalog.UpdateCategory(ctx, domain.Category{
						ID:          id,
						Name:        c.String("name"),
						Description: c.String("description"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("category %d updated\n", id)
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Delete an empty category",
				ArgsUsage: "<id>",
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					id, err := parseIDArg(c)
					if err != nil {
						return err
					}
					if err := a.catalog.RemoveCategory(ctx, id); err != nil {
						return err
					}
					fmt.Printf("category %d removed\n", id)
					return nil
				}),
			},
		},
	}
}

// loadProductPage runs query through a ProductsView, the same state holder a
// product list screen uses.
func loadProductPage(ctx context.Context, source views.ProductQuerier, log zerolog.Logger, query domain.ProductQuery) (domain.ProductPage, error) {
	view := views.NewProductsView(source, log)
	defer view.Close()

	if err := view.Load(ctx, query); err != nil {
		return domain.ProductPage{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.ProductPage{}, domain.Cancelled(err)
	}
	state := view.State()
	return domain.ProductPage{
		Items:      state.Items,
		TotalItems: state.TotalItems,
		TotalPages: state.TotalPages,
		Page:       state.Query.Page,
		PageSize:   state.Query.PageSize,
	}, nil
}

// parseOrderItem reads "productID:quantity:unitPrice".
func parseOrderItem(raw string) (application.OrderItemInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return application.OrderItemInput{}, domain.Validation("item %q: expected productID:quantity:unitPrice", raw)
	}
	productID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return application.OrderItemInput{}, domain.Validation("item %q: invalid product id", raw)
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return application.OrderItemInput{}, domain.Validation("item %q: invalid quantity", raw)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return application.OrderItemInput{}, domain.Validation("item %q: invalid unit price", raw)
	}
	return application.OrderItemInput{ProductID: uint(productID), Quantity: quantity, UnitSalePrice: price}, nil
}

func orderStatusCommand(name, usage string, status domain.OrderStatus) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
			id, err := parseIDArg(c)
			if err != nil {
				return err
			}
			order, err := a.orders.SetStatus(ctx, id, status)
			if err != nil {
				return err
			}
			fmt.Printf("order %d is %s\n", order.ID, order.Status)
			return nil
		}),
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "Record and review orders",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the most recent orders",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: application.DefaultOrderListLimit},
					jsonFlag(),
				},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					items, err := a.orders.List(ctx, c.Int("limit"))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(items)
					}
					printOrders(items)
					return nil
				}),
			},
			{
				Name:      "get",
				Usage:     "Show an order with its items",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					id, err := parseIDArg(c)
					if err != nil {
						return err
					}
					order, err := a.orders.Get(ctx, id)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(order)
					}
					printOrder(order)
					return nil
				}),
			},
			{
				Name:  "create",
				Usage: "Record an order",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "item", Required: true, Usage: "productID:quantity:unitPrice, repeatable"},
				},
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					raw := c.StringSlice("item")
					items := make([]application.OrderItemInput, 0, len(raw))
					for _, r := range raw {
						item, err := parseOrderItem(r)
						if err != nil {
							return err
						}
						items = append(items, item)
					}
					order, err := a.orders.Create(ctx, items)
					if err != nil {
						return err
					}
					fmt.Printf("order %d created, final price %d\n", order.ID, order.FinalPrice)
					return nil
				}),
			},
			orderStatusCommand("pay", "Mark a created order as paid", domain.OrderPaid),
			orderStatusCommand("cancel", "Cancel a created order", domain.OrderCancelled),
			{
				Name:      "remove",
				Usage:     "Delete an order and its items",
				ArgsUsage: "<id>",
				Action: shopAction(func(ctx context.Context, c *cli.Command, a *app) error {
					id, err := parseIDArg(c)
					if err != nil {
						return err
					}
					if err := a.orders.Remove(ctx, id); err != nil {
						return err
					}
					fmt.Printf("order %d removed\n", id)
					return nil
				}),
			},
		},
	}
}
