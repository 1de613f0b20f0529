package server

const (
	RouteLogin    = "/login"
	RouteCallback = "/oauth/callback"
	RouteLogout   = "/logout"
)
