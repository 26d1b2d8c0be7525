package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/cache"
	"github.com/luispontes/ContaCerta/internal/pkg/database"
	"github.com/luispontes/ContaCerta/internal/pkg/env"
	"github.com/luispontes/ContaCerta/internal/pkg/mail"
	"github.com/luispontes/ContaCerta/internal/pkg/router"
	"github.com/luispontes/ContaCerta/internal/pkg/sweep"
)

func main() {
	app := NewApplication()

	// Background maintenance: expired-registration sweep and trial notices.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	repos := repository.NewFactory(database.GetDB()).GetRepositories()
	sweeper := sweep.NewSweeper(repos.Registration, repos.Subscription, repos.User, mail.NewNotifier(), sweep.DefaultInterval)
	go sweeper.Start(sweepCtx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancelSweep()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	cancelSweep()
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		AppName: "ContaCerta",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
