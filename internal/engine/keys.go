package engine

import (
	"freightlens/internal/query"
	"freightlens/internal/store"
)

// bookingKey derives the group key from the parent booking. The same key
// function feeds both the grouped result and the global breakdowns so the
// two can never bucket divergently.
func bookingKey(b store.Booking, dim query.GroupBy) string {
	switch dim {
	case query.GroupByClient:
		return b.ClientName
	case query.GroupByOriginPort:
		return b.OriginPortName
	case query.GroupByDestPort:
		return b.DestinationPortName
	case query.GroupByOriginCtry:
		return b.OriginCountry
	case query.GroupByDestCtry:
		return b.DestinationCountry
	case query.GroupByTrade:
		return b.OriginCountry + " → " + b.DestinationCountry
	case query.GroupByMonth:
		return monthOf(b.ConfirmedOn)
	case query.GroupByStatus:
		return b.Status
	default:
		return b.ClientName
	}
}

// detailKey derives the group key from a detail line (commodity grouping).
func detailKey(d store.DetailLine, dim query.GroupBy) string {
	if dim == query.GroupByCommodity {
		if d.Commodity != "" {
			return d.Commodity
		}
		return d.CommodityCode
	}
	return d.Commodity
}

// monthOf truncates a YYYY-MM-DD date to its YYYY-MM period.
func monthOf(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}
