package ratelimit

import "time"

// Class names a group of endpoints sharing one rate policy.
type Class string

const (
	ClassAuth    Class = "auth"
	ClassGeneral Class = "general"
	ClassBid     Class = "bid"
	ClassPayment Class = "payment"
)

// Policy is the window size and request budget for a class.
type Policy struct {
	Window time.Duration
	Max    int
}

// Policies maps each endpoint class to its budget. Auth and payment are
// deliberately tight; bidding gets a short window so an outbid user can
// keep bidding in the next minute.
var Policies = map[Class]Policy{
	ClassAuth:    {Window: 15 * time.Minute, Max: 5},
	ClassGeneral: {Window: 15 * time.Minute, Max: 100},
	ClassBid:     {Window: time.Minute, Max: 10},
	ClassPayment: {Window: 15 * time.Minute, Max: 3},
}

// CleanupInterval is how often expired windows are evicted.
const CleanupInterval = 5 * time.Minute
