package router

import "github.com/gin-gonic/gin"

// Module is one feature area. Register mounts its routes under the API group;
// Name labels it in startup logs.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
