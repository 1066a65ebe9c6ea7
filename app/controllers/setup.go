package controllers

import (
	"github.com/lumencast/lumencast/internal/pkg/billing"
	"github.com/lumencast/lumencast/internal/pkg/chat"
	"github.com/lumencast/lumencast/internal/pkg/entitlements"
	"github.com/lumencast/lumencast/internal/pkg/ledger"
	"github.com/lumencast/lumencast/internal/pkg/live"
	"github.com/lumencast/lumencast/internal/pkg/maintenance"
	"github.com/lumencast/lumencast/internal/pkg/presence"
	"github.com/lumencast/lumencast/internal/pkg/tiers"
)

// Services bundles everything the HTTP layer depends on. It is assembled
// once in main and handed to Setup before the router installs any route.
type Services struct {
	Live         *live.Manager
	Tiers        *tiers.Registry
	Ledger       *ledger.Service
	Entitlements *entitlements.Resolver
	Presence     *presence.Tracker
	Chat         *chat.Gateway
	Billing      *billing.Service
	Maintenance  *maintenance.Manager
}

var (
	liveManager         *live.Manager
	tierRegistry        *tiers.Registry
	subscriptionLedger  *ledger.Service
	entitlementResolver *entitlements.Resolver
	presenceTracker     *presence.Tracker
	chatGateway         *chat.Gateway
	billingService      *billing.Service
	maintenanceManager  *maintenance.Manager
)

// Setup wires the controller package to the service layer.
func Setup(s Services) {
	liveManager = s.Live
	tierRegistry = s.Tiers
	subscriptionLedger = s.Ledger
	entitlementResolver = s.Entitlements
	presenceTracker = s.Presence
	chatGateway = s.Chat
	billingService = s.Billing
	maintenanceManager = s.Maintenance
}
