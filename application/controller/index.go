package controller

import (
	"context"

	"facegate.io/application/services/facematch"
	auth_usecases "facegate.io/application/usecases/auth"
)

type FaceHealth interface {
	Health(ctx context.Context) []facematch.BackendHealth
}

type Controller struct {
	Auth  *auth_usecases.Service
	Faces FaceHealth
}

func New(service *auth_usecases.Service, faces FaceHealth) *Controller {
	return &Controller{Auth: service, Faces: faces}
}
