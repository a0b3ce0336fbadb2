package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	container "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Container"
	sgrelay "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Relay"
	implementation "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Repository/Implementation"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewRelayContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting SmartGuard Access Relay Service")

	config := ctr.GetConfig()

	// Connect to the student directory. Unreachable directory at boot is
	// fatal; per-lookup failures later only deny individual events.
	mongoClient, err := ctr.GetMongoClient()
	if err != nil {
		logger.FatalWithError(err, "Failed to connect to student directory")
	}
	studentRepo := implementation.NewMongoStudentRepository(mongoClient, config.Mongo.Database, config.Mongo.Collection)

	// Create and start the verification relay
	relay := sgrelay.New(config, studentRepo, logger)
	if err := relay.Start(context.Background()); err != nil {
		logger.FatalWithError(err, "Failed to start MQTT relay")
	}
	defer relay.Stop()

	// Start health check server
	go startHealthServer(ctr, relay)

	logger.Info("Access relay running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")
}

// startHealthServer starts a small HTTP server reporting broker and
// directory connectivity
func startHealthServer(ctr *container.RelayContainer, relay *sgrelay.Relay) {
	config := ctr.GetConfig()
	logger := ctr.GetLogger()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		mqttStatus := "disconnected"
		if relay.IsConnected() {
			mqttStatus = "connected"
		}

		directoryStatus := "disconnected"
		if client, err := ctr.GetMongoClient(); err == nil {
			if err := client.Ping(ctx, readpref.Primary()); err == nil {
				directoryStatus = "connected"
			}
		}

		status := "healthy"
		code := http.StatusOK
		if mqttStatus != "connected" || directoryStatus != "connected" {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"mqtt":      mqttStatus,
				"directory": directoryStatus,
			},
		})
	})

	logger.Info("Health server starting on port " + config.Server.Port)

	srv := &http.Server{
		Addr:         ":" + config.Server.Port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.FatalWithError(err, "Failed to start health server")
	}
}
