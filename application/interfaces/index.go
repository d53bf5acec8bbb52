package interfaces

import (
	"net/http"

	auth_usecases "facegate.io/application/usecases/auth"
	"facegate.io/entities"
	"github.com/gin-gonic/gin"
)

// ApplicationContext carries one request through middlewares and controllers.
type ApplicationContext[T any] struct {
	Ctx       *gin.Context
	Body      *T
	Keys      map[string]any
	Header    http.Header
	Param     map[string]string
	Query     map[string]string
	Client    *entities.ClientInfo
	Principal *auth_usecases.Principal
}

func (ac *ApplicationContext[T]) GetHeader(key string) *string {
	value := ac.Header.Get(key)
	if value == "" {
		return nil
	}
	return &value
}

func (ac *ApplicationContext[T]) SetContextData(key string, data any) {
	if ac.Keys == nil {
		ac.Keys = map[string]any{}
	}
	ac.Keys[key] = data
}

func (ac *ApplicationContext[T]) GetContextData(key string) any {
	return ac.Keys[key]
}

func (ac *ApplicationContext[T]) GetStringContextData(key string) string {
	value, _ := ac.Keys[key].(string)
	return value
}
