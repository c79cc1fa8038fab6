package importer

import (
	"regexp"
	"strings"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonKeyChars   = regexp.MustCompile(`[^a-z0-9_]`)
)

// inventoryHeaderAliases maps collapsed spreadsheet titles to the keys read by
// the inventory mapper. Titles such as "Item ID / SKU" collapse to
// "item_id__sku", which generic normalization cannot tell apart from other
// slash-separated titles.
var inventoryHeaderAliases = map[string]string{
	"item_id__sku":        "item_id",
	"item_id_sku":         "item_id",
	"sku":                 "item_id",
	"item_code":           "item_id",
	"product_code":        "item_id",
	"item_name":           "name",
	"product_name":        "name",
	"item_description":    "description",
	"category__type":      "category",
	"item_category":       "category",
	"qty":                 "quantity",
	"quantity_units":      "quantity",
	"quantity_on_hand":    "quantity",
	"stock_quantity":      "quantity",
	"unit_of_measure":     "unit",
	"uom":                 "unit",
	"unit_price_usd":      "unit_price",
	"unit_price_":         "unit_price",
	"price":               "unit_price",
	"unit_cost":           "unit_price",
	"min_stock":           "min_stock",
	"minimum_stock":       "min_stock",
	"minimum_stock_level": "min_stock",
	"reorder_point":       "min_stock",
	"location__warehouse": "location",
	"warehouse":           "location",
	"storage_location":    "location",
	"supplier__vendor":    "supplier",
	"vendor":              "supplier",
}

// NormalizeHeader lowercases a header cell, collapses whitespace runs into a
// single underscore and drops every character outside [a-z0-9_].
func NormalizeHeader(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = whitespaceRun.ReplaceAllString(h, "_")
	return nonKeyChars.ReplaceAllString(h, "")
}

// NormalizeHeaders normalizes a header row and, for inventory imports,
// resolves the alias table.
func NormalizeHeaders(raw []string, importType domain.ImportType) []string {
	headers := make([]string, len(raw))
	for i, cell := range raw {
		key := NormalizeHeader(cell)
		if importType == domain.TypeInventory {
			if alias, ok := inventoryHeaderAliases[key]; ok {
				key = alias
			}
		}
		headers[i] = key
	}
	return headers
}

var requiredColumnsByType = map[domain.ImportType][][]string{
	domain.TypeContacts:           {contactNameKeys},
	domain.TypeRepository:         {repositoryNameKeys},
	domain.TypeInventory:          {itemIDKeys},
	domain.TypeEmailRecipients:    {emailKeys},
	domain.TypeWhatsAppRecipients: {emailKeys, whatsAppPhoneKeys},
}

// RequiredColumns returns, per required field, the normalized columns that
// satisfy it. The first entry of each group is the canonical name.
func RequiredColumns(importType domain.ImportType) [][]string {
	return requiredColumnsByType[importType]
}

// missingColumns reports the canonical name of every group with no column
// present in headers.
func missingColumns(headers []string, required [][]string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, group := range required {
		found := false
		for _, column := range group {
			if _, ok := present[column]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, group[0])
		}
	}
	return missing
}
