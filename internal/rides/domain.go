package rides

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
)

// Ride statuses.
const (
	StatusRequested = "requested"
	StatusAssigned  = "assigned"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Ride is a single trip request and its lifecycle state.
type Ride struct {
	ID          int64
	RiderID     int64
	DriverID    int64
	PickupAddr  string
	DropoffAddr string
	Status      string
	Tier        identity.Tier
	FareCents   int64
	Currency    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tier fare multipliers in basis points. Premium and above pay for priority
// dispatch and vetted drivers; the concierge tier includes the service fee.
var fareMultiplierBps = map[identity.Tier]int64{
	identity.TierNormal:    10000,
	identity.TierPremium:   12500,
	identity.TierVIP:       17500,
	identity.TierConcierge: 25000,
	identity.TierAdmin:     10000,
}

// QuoteFare computes the fare for a base amount at the given tier.
func QuoteFare(baseCents int64, tier identity.Tier) int64 {
	bps, ok := fareMultiplierBps[tier]
	if !ok {
		bps = 10000
	}
	return baseCents * bps / 10000
}

var farePrinter = message.NewPrinter(language.English)

// FormatFare renders a cent amount as a display string, e.g. "NGN 12,500.00".
func FormatFare(cents int64, currency string) string {
	if currency == "" {
		currency = "NGN"
	}
	return farePrinter.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}
