package optimizer

import "time"

// buildDeliveryWindows synthesizes one delivery window per populated store.
// Windows are mock data, like the store integrations behind them: fastest
// gets a same-day two-hour slot, cheapest a next-day slot, single-trip a
// single shared slot for every store.
func buildDeliveryWindows(breakdowns []StoreBreakdown, pref DeliveryPreference, now time.Time) []DeliveryWindow {
	if len(breakdowns) == 0 {
		return nil
	}

	var start, end time.Time
	switch pref {
	case DeliveryFastest:
		start = now.Add(1 * time.Hour)
		end = now.Add(3 * time.Hour)
	case DeliverySingleTrip:
		start = now.Add(4 * time.Hour)
		end = now.Add(8 * time.Hour)
	default: // cheapest, and the default when unspecified
		start = now.Add(24 * time.Hour)
		end = now.Add(33 * time.Hour)
	}

	windows := make([]DeliveryWindow, 0, len(breakdowns))
	for _, b := range breakdowns {
		windows = append(windows, DeliveryWindow{
			StoreID: b.StoreID,
			Start:   start,
			End:     end,
			Fee:     b.DeliveryFee,
		})
	}
	return windows
}
