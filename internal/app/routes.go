package app

import (
	"net/http"

	"github.com/kegliz/qplay-dynamics/internal/server/router"
)

func (a *appServer) routes() []*router.Route {
	return []*router.Route{
		{
			Name:        "root",
			Method:      http.MethodGet,
			Pattern:     "/",
			HandlerFunc: a.RootHandler,
		},
		{
			Name:        "health",
			Method:      http.MethodGet,
			Pattern:     "/health",
			HandlerFunc: a.HealthHandler,
		},
		{
			Name:        "api.simulate",
			Method:      http.MethodPost,
			Pattern:     "/api/simulate",
			HandlerFunc: a.SimulateDynamics,
		},
	}
}
