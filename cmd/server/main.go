package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pedidos-taller/internal/config"
	"pedidos-taller/internal/controller"
	"pedidos-taller/internal/middleware"
	"pedidos-taller/internal/rabbit"
	"pedidos-taller/internal/repository"
	"pedidos-taller/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	// Conexión a MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo conectar a MongoDB")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	db := client.Database(cfg.MongoDBName)

	// Repositorios: el índice único de delivery es la garantía real contra
	// duplicados, tiene que existir antes de atender tráfico.
	orderRepo := repository.NewMongoOrderRepository(db)
	userRepo := repository.NewMongoUserRepository(db)
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("no se pudieron crear los índices de órdenes")
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("no se pudieron crear los índices de usuarios")
	}

	// Publisher de eventos, opcional: sin broker el servicio funciona igual.
	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ no disponible, se arranca sin eventos")
		} else {
			ch, err := conn.Channel()
			if err != nil {
				log.Warn().Err(err).Msg("no se pudo abrir el canal de RabbitMQ")
			} else if pub, err := rabbit.NewPublisher(ch); err != nil {
				log.Warn().Err(err).Msg("no se pudo declarar el exchange de eventos")
			} else {
				events = pub
			}
		}
	}

	// Servicios
	orderService := service.NewOrderService(orderRepo, userRepo, events)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(cfg.AuthURL)

	// Handlers
	ctrl := controller.NewOrderController(orderService)
	userCtrl := controller.NewUserController(userService)

	// Router
	r := gin.Default()

	r.GET("/api", ctrl.Info)

	// Rutas protegidas (requieren token)
	api := r.Group("/api")
	api.Use(middleware.Auth(authService))

	api.GET("/orders", ctrl.List)
	api.POST("/orders", ctrl.Create)
	api.GET("/orders/export", middleware.RequireAdmin(), ctrl.Export)
	api.GET("/orders/check/:delivery", ctrl.Check)
	api.PUT("/orders/record/:id", ctrl.UpdateByRecord)
	api.PUT("/orders/:id", ctrl.UpdateByDelivery)
	api.DELETE("/orders/:id", ctrl.Delete)

	// Rutas admin
	admin := api.Group("/users")
	admin.Use(middleware.RequireAdmin())
	admin.GET("", userCtrl.List)
	admin.DELETE("/:id", userCtrl.Deactivate)

	// Ejecutar servidor
	log.Info().Str("puerto", cfg.Port).Msg("servicio de pedidos escuchando")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("el servidor terminó con error")
	}
}
