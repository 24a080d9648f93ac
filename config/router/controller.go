package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akeren/go-waitlist/pkg/ratelimit"
)

// NewRESTController groups handlers under mountPoint. prepare runs once, when
// the controller is mounted, and registers the handlers.
func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+mountPoint, "//", "/"),
		prepare:    prepare,
	}
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(controller, http.MethodGet, limiter, path, handler, middlewares)
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(controller, http.MethodPost, limiter, path, handler, middlewares)
}

// addHandler panics on a duplicate method+path: two controllers claiming the
// same route is a wiring bug that must fail at startup.
func (routerService *RouterService) addHandler(
	controller *RESTController,
	method string,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares []MiddlewareFunc,
) {
	fullPath := normalizePath(controller, path)
	key := keyForPathAndMethod(fullPath, method)

	if other, found := routerService.handlerToControllerMap[key]; found {
		panic(fmt.Sprintf("A handler is already registered for %s '%s' by controller '%s'", method, fullPath, other.name))
	}
	routerService.handlerToControllerMap[key] = controller

	if limiter != nil {
		routerService.rateLimitOverrides[key] = limiter
	}

	controller.handlerCount++
	routerService.engine.Handle(method, fullPath, append(middlewares, createHandler(handler))...)
	routerService.logger.Debug("Handler registered", "method", method, "path", fullPath, "controller", controller.name)
}

func normalizePath(controller *RESTController, relativePath string) string {
	path := controller.mountPoint
	if relativePath != "" {
		path = path + "/" + relativePath
	}

	path = strings.ReplaceAll("/"+path, "//", "/")
	path = strings.ReplaceAll(path, "//", "/")
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	return path
}

func keyForPathAndMethod(path, method string) string {
	return method + "-" + path
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)

		if result == nil {
			GetLogger(c).Error("Handler returned no result", "path", c.FullPath())
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("Internal server error").ToJSON())
			return
		}

		c.JSON(result.StatusCode, result.ToJSON())
	}
}
