package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akeren/waitlist-api/pkg/ratelimit"
)

func normalizePath(controller *RESTController, relativePath string) string {
	path := controller.mountPoint
	if relativePath != "" {
		path += "/" + relativePath
	}

	path = "/" + strings.Trim(path, "/")
	return strings.ReplaceAll(path, "//", "/")
}

func (routerService *RouterService) keyForPathAndMethod(path, method string) string {
	return method + "-" + path
}

// bindHandlerToController panics on a duplicate route; that is a wiring bug caught at startup.
func (controller *RESTController) bindHandlerToController(routerService *RouterService, path, method string) {
	key := routerService.keyForPathAndMethod(path, method)
	if other, found := routerService.handlerToControllerMap[key]; found {
		panic(fmt.Sprintf("A handler is already registered for %s %s by controller '%s'", method, path, other.name))
	}

	routerService.handlerToControllerMap[key] = controller
}

func (routerService *RouterService) bindOverrideRateLimiter(key string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}
	if _, found := routerService.rateLimitOverrides[key]; found {
		panic(fmt.Sprintf("A rate limiter is already registered for '%s'", key))
	}

	routerService.rateLimitOverrides[key] = limiter
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			GetLogger(c).Error("Handler returned a nil result", "path", c.FullPath())
			c.JSON(http.StatusInternalServerError, ErrorResult(http.StatusInternalServerError, "A handler returned an undefined result", nil).ToJSON())
			return
		}

		result.write(c)
	}
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+mountPoint, "//", "/"),
		prepare:    prepare,
	}
}

// RateLimitWith applies limiter to every handler of the controller without its own limiter.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	routerService.bindOverrideRateLimiter(controller.mountPoint, limiter)
	return controller
}

// AddHandler registers handler for method at the controller-relative path. A nil limiter falls
// back to the controller override, then to the global limiter.
func (routerService *RouterService) AddHandler(
	method string,
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	fullPath := normalizePath(controller, path)

	controller.handlerCount++
	controller.bindHandlerToController(routerService, fullPath, method)
	routerService.bindOverrideRateLimiter(routerService.keyForPathAndMethod(fullPath, method), limiter)
	routerService.engine.Handle(method, fullPath, append(middlewares, createHandler(handler))...)

	routerService.logger.Debug("Handler registered", "method", method, "path", fullPath)
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.AddHandler(http.MethodGet, controller, limiter, path, handler, middlewares...)
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.AddHandler(http.MethodPost, controller, limiter, path, handler, middlewares...)
}

func (routerService *RouterService) AddDeleteHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.AddHandler(http.MethodDelete, controller, limiter, path, handler, middlewares...)
}
