// Package api exposes the mastery engine over HTTP. Handlers decode and
// validate JSON requests, call the services and map the domain error
// taxonomy onto status codes and client-safe messages. RegisterRoutes
// mounts every endpoint on a chi router.
package api
