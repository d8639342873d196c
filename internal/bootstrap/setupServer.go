package bootstrap

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"wordgame-service/config"
	httpHandler "wordgame-service/internal/api/http/handler"
	wsHandler "wordgame-service/internal/api/ws/handler"
	"wordgame-service/internal/handler"
	"wordgame-service/internal/middleware"
	"wordgame-service/internal/roomsync"
	"wordgame-service/internal/server"
)

func SetupServer(config config.Config, httpHandlers map[string]interface{}, wsHandlers map[string]interface{}) *fiber.App {
	serverConfig := server.Config{
		Port:           config.Server.Port,
		AllowedOrigins: config.Server.AllowedOrigins,
		IdleTimeout:    5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}

	app := server.NewFiberApp(serverConfig)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: config.RateLimit.RequestsPerMinute,
		Burst:             config.RateLimit.Burst,
	})

	createRoomHandler := httpHandlers["create-room"].(*httpHandler.CreateRoomHandler)
	joinRoomHandler := httpHandlers["join-room"].(*httpHandler.JoinRoomHandler)
	leaveRoomHandler := httpHandlers["leave-room"].(*httpHandler.LeaveRoomHandler)
	getRoomHandler := httpHandlers["get-room"].(*httpHandler.GetRoomHandler)

	rooms := app.Group("/rooms", limiter.Middleware())
	rooms.Post("/", handler.HandleWithFiber[httpHandler.CreateRoomRequest, httpHandler.CreateRoomResponse](createRoomHandler))
	rooms.Post("/:room_code/join", handler.HandleWithFiber[httpHandler.JoinRoomRequest, httpHandler.JoinRoomResponse](joinRoomHandler))
	rooms.Post("/:room_code/leave", handler.HandleWithFiber[httpHandler.LeaveRoomRequest, httpHandler.LeaveRoomResponse](leaveRoomHandler))
	rooms.Get("/:room_code", handler.HandleWithFiber[httpHandler.GetRoomRequest, roomsync.RoomView](getRoomHandler))

	wsRoute := app.Group("/ws")
	roomConnectHandler := wsHandlers["room-connect"].(*wsHandler.WebSocketRoomHandler)
	wsRoute.Get("/rooms/:room_code", limiter.Middleware(), handler.HandleWithFiberWS[wsHandler.WebSocketRoomRequest](roomConnectHandler))

	return app
}
