package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sirupsen/logrus"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:               "college-admin-api",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		listenAddress: listenAddress,
	}
}

// errorHandler renders errors that escape handlers, such as fiber's own 404/405
func errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return response.Error(c, fe.Code, fe.Message, "HTTP_ERROR")
	}
	return response.FromError(c, err, "Internal server error")
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	logrus.WithField("address", s.listenAddress).Info("starting API server")

	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx is done
func (s *APIServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down API server")
	return s.app.ShutdownWithContext(ctx)
}
