package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/notDuyLam/myshop-wp/internal/domain"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func redact(password string) string {
	if password == "" {
		return ""
	}
	return "****"
}

func printProductPage(page domain.ProductPage) {
	printProducts(page.Items)
	fmt.Printf("page %d of %d, %d products\n", page.Page, page.TotalPages, page.TotalItems)
}

func printProducts(items []domain.Product) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(item.ID),
			item.SKU,
			item.Name,
			strconv.Itoa(item.ImportPrice),
			strconv.Itoa(item.Count),
			item.Category.Name,
		})
	}
	printTable([]string{"ID", "SKU", "NAME", "IMPORT_PRICE", "COUNT", "CATEGORY"}, rows)
}

func printProduct(item domain.Product) {
	printKV([][2]string{
		{"id", formatID(item.ID)},
		{"sku", item.SKU},
		{"name", item.Name},
		{"import_price", strconv.Itoa(item.ImportPrice)},
		{"count", strconv.Itoa(item.Count)},
		{"category", fmt.Sprintf("%s (%d)", item.Category.Name, item.CategoryID)},
		{"description", item.Description},
	})
}

func printCategories(items []domain.Category) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{formatID(item.ID), item.Name, item.Description})
	}
	printTable([]string{"ID", "NAME", "DESCRIPTION"}, rows)
}

func printOrders(items []domain.Order) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(item.ID),
			formatTime(item.CreatedAt),
			string(item.Status),
			strconv.Itoa(len(item.Items)),
			strconv.Itoa(item.FinalPrice),
		})
	}
	printTable([]string{"ID", "CREATED_AT", "STATUS", "ITEMS", "FINAL_PRICE"}, rows)
}

func printOrder(order domain.Order) {
	printKV([][2]string{
		{"id", formatID(order.ID)},
		{"created_at", formatTime(order.CreatedAt)},
		{"status", string(order.Status)},
		{"final_price", strconv.Itoa(order.FinalPrice)},
	})
	fmt.Println()

	rows := make([][]string, 0, len(order.Items))
	for _, item := range order.Items {
		rows = append(rows, []string{
			formatID(item.ProductID),
			strconv.Itoa(item.Quantity),
			item.UnitSalePrice.String(),
			strconv.Itoa(item.TotalPrice),
		})
	}
	printTable([]string{"PRODUCT_ID", "QUANTITY", "UNIT_SALE_PRICE", "TOTAL"}, rows)
}

func printDatabaseConfig(cfg domain.DatabaseConfig, usable bool, path string) {
	printKV([][2]string{
		{"host", cfg.Host},
		{"port", strconv.Itoa(cfg.Port)},
		{"database", cfg.Database},
		{"username", cfg.Username},
		{"password", redact(cfg.Password)},
		{"usable", strconv.FormatBool(usable)},
		{"file", path},
	})
}
