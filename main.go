package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	userRoutes "lms/routers/userRoutes"
	"lms/services"
	"lms/utils"
)

// setupApp builds the fiber app with every route registered.
func setupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      config.AppConfig.AppName,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.AppConfig.CorsOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupContentRoutes(app)
	courseRoutes.SetupDashboardRoutes(app)
	userRoutes.SetupUserRoutes(app)

	return app
}

func main() {
	if err := logger.Init(os.Getenv("APP_MODE")); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()
	config.LoadConfig()

	database.ConnectDb()
	services.Init(database.Database.Db, config.AppConfig)

	scheduler, err := utils.InitializeReconcileScheduler(services.LMS, config.AppConfig.ReconcileCron)
	if err != nil {
		logger.Log.Fatal("scheduler setup failed", "error", err)
	}

	app := setupApp()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Log.Info("shutting down")
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		_ = app.Shutdown()
	}()

	logger.Log.Info("server is running", "port", config.AppConfig.Port)
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		logger.Log.Fatal("server stopped", "error", err)
	}
}
