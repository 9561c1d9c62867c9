package entity

// OrderStatus is the lifecycle state of an order. Transitions follow a
// directed acyclic path; there is no way back to pending.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusAssigned  OrderStatus = "assigned"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusOnTheWay  OrderStatus = "on_the_way"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusRejected  OrderStatus = "rejected"
)

// on_the_way is an optional driver-reported checkpoint: picked_up may
// go straight to delivered.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusPickedUp, StatusCancelled},
	StatusPickedUp:  {StatusOnTheWay, StatusDelivered, StatusCancelled},
	StatusOnTheWay:  {StatusDelivered, StatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusAssigned, StatusPickedUp, StatusOnTheWay,
		StatusDelivered, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}
