package home

import (
	"net/http"

	"github.com/akeren/waitlist-api/config/router"
)

const documentationPage = `<h1>Marketplace API</h1>
<h2>Available Routes</h2>
<pre>
  GET, POST /waitlist
  GET, DELETE /waitlist/:id
  GET /health
</pre>`

// NewHomeController serves the HTML route listing at /.
func NewHomeController() *router.RESTController {
	return router.NewRESTController(
		"HomeController",
		"/",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddGetHandler(c, nil, "", func(ctx *router.RequestContext) *router.ServiceResult {
				return router.HTMLResult(http.StatusOK, documentationPage)
			})
		},
	)
}
