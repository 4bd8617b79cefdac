package server

func (s *Server) initRoutes() {
	// SYSTEM
	s.RegisterRouteHandler("GET "+RouteRoot, ChainMiddleware(s.RootHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// AUTH
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	// SUBSCRIPTIONS (require a bearer token)
	s.RegisterRouteHandler("GET "+RouteSubscriptions, ChainMiddleware(s.ListSubscriptionsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteSubscriptions, ChainMiddleware(s.AddSubscriptionHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteSubscription, ChainMiddleware(s.UpdateSubscriptionHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteSubscription, ChainMiddleware(s.DeleteSubscriptionHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CORS preflight, answered by CorsMiddleware
	for _, route := range []string{RouteRegister, RouteLogin, RouteLogout, RouteMe, RouteSubscriptions, RouteSubscription} {
		s.RegisterRouteHandler("OPTIONS "+route, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
	}
}
