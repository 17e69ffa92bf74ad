package types

import "time"

// PrivilegeLevel is the subscription tier of a user.
type PrivilegeLevel string

const (
	PrivilegeAdmin    PrivilegeLevel = "Admin"
	PrivilegeFree     PrivilegeLevel = "Free"
	PrivilegePro      PrivilegeLevel = "Pro"
	PrivilegeMax      PrivilegeLevel = "Max"
	PrivilegeUltimate PrivilegeLevel = "Ultimate"
)

// AuthProvider identifies how a user signed in.
type AuthProvider string

const (
	AuthProviderGoogle      AuthProvider = "Google"
	AuthProviderApple       AuthProvider = "Apple"
	AuthProviderDevelopment AuthProvider = "Development"
)

// User is the signed-in account as known to the client.
type User struct {
	ID                     string         `json:"id"`
	Email                  string         `json:"email"`
	Name                   *string        `json:"name,omitempty"`
	PrivilegeLevel         PrivilegeLevel `json:"privilegeLevel"`
	SubscriptionExpiryDate *time.Time     `json:"subscriptionExpiryDate,omitempty"`
	AuthProvider           AuthProvider   `json:"authProvider"`
}

// SubscriptionActive reports whether the user's tier is in force at now.
// Tiers without an expiry date are only active for Free and Admin users.
func (u User) SubscriptionActive(now time.Time) bool {
	if u.SubscriptionExpiryDate == nil {
		return u.PrivilegeLevel == PrivilegeFree || u.PrivilegeLevel == PrivilegeAdmin
	}
	return u.SubscriptionExpiryDate.After(now)
}

// UserSubscription is the server's view of the user's entitlement.
type UserSubscription struct {
	PrivilegeLevel         PrivilegeLevel `json:"privilegeLevel"`
	SubscriptionExpiryDate *time.Time     `json:"subscriptionExpiryDate,omitempty"`
	StocksViewedThisMonth  int            `json:"stocksViewedThisMonth"`
	StockLimitPerMonth     *int           `json:"stockLimitPerMonth,omitempty"`
}

// RemainingViews returns how many more overviews the user may open this
// month, and false when the tier is unlimited.
func (s UserSubscription) RemainingViews() (int, bool) {
	if s.StockLimitPerMonth == nil {
		return 0, false
	}
	remaining := *s.StockLimitPerMonth - s.StocksViewedThisMonth
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
