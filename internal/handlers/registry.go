package handlers

// AppHandlers groups every HTTP handler of the application so routing and
// wiring code can pass them around as one unit.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	ProjectHandler      *ProjectHandler
	SubscriptionHandler *SubscriptionHandler
	LibraryHandler      *LibraryHandler
}
