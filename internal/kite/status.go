package kite

// OrderStatus is the broker-owned order state. The gateway relays it and
// never transitions it.
type OrderStatus string

const (
	StatusOpen           OrderStatus = "OPEN"
	StatusTriggerPending OrderStatus = "TRIGGER PENDING"
	StatusComplete       OrderStatus = "COMPLETE"
	StatusRejected       OrderStatus = "REJECTED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// IsPending reports whether the order can still change state.
func (s OrderStatus) IsPending() bool {
	return s == StatusOpen || s == StatusTriggerPending
}

// IsTerminal reports whether the order reached a final state. Intermediate
// broker states such as "VALIDATION PENDING" are neither pending nor terminal.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// OrderFilter selects a slice of the order book.
type OrderFilter string

const (
	FilterAll      OrderFilter = ""
	FilterPending  OrderFilter = "pending"
	FilterComplete OrderFilter = "complete"
	FilterRejected OrderFilter = "rejected"
)

// ParseOrderFilter accepts "", "all", "pending", "complete" and "rejected".
func ParseOrderFilter(s string) (OrderFilter, bool) {
	switch OrderFilter(s) {
	case FilterAll, "all":
		return FilterAll, true
	case FilterPending, FilterComplete, FilterRejected:
		return OrderFilter(s), true
	}
	return FilterAll, false
}

// Match reports whether an order belongs to the filter.
func (f OrderFilter) Match(o Order) bool {
	switch f {
	case FilterPending:
		return o.Status.IsPending()
	case FilterComplete:
		return o.Status == StatusComplete
	case FilterRejected:
		return o.Status == StatusRejected
	}
	return true
}

// FilterOrders returns the orders matching f. The result is never nil.
func FilterOrders(orders []Order, f OrderFilter) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// LatestState returns the last entry of an order history, the order's
// current state.
func LatestState(history []Order) (Order, bool) {
	if len(history) == 0 {
		return Order{}, false
	}
	return history[len(history)-1], true
}
