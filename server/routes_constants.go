package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// System Routes
	RouteRoot   = "/{$}"
	RouteHealth = "/health"

	// Auth Routes
	RouteRegister = "/register"
	RouteLogin    = "/login"
	RouteLogout   = "/logout"
	RouteMe       = "/me"

	// Subscription Routes
	RouteSubscriptions = "/subscriptions"
	RouteSubscription  = "/subscriptions/{service_name}"
)
