package api

import "strings"

// FilterAll matches every status in FilterReturns.
const FilterAll = "all"

// FilterReturns applies the user dashboard's local filters: a
// case-insensitive barcode substring match and an exact status match.
// Both filters combine by intersection; empty barcode or "all" status
// passes everything.
func FilterReturns(items []ReturnRequest, barcode, status string) []ReturnRequest {
	barcode = strings.ToLower(strings.TrimSpace(barcode))
	status = strings.TrimSpace(status)
	matchStatus := status != "" && status != FilterAll

	filtered := make([]ReturnRequest, 0, len(items))
	for _, item := range items {
		if barcode != "" && !strings.Contains(strings.ToLower(item.Barcode), barcode) {
			continue
		}
		if matchStatus && item.Status != status {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}
