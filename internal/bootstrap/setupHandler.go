package bootstrap

import (
	httpHandler "wordgame-service/internal/api/http/handler"
	httpUsecase "wordgame-service/internal/api/http/usecase"
	wsHandler "wordgame-service/internal/api/ws/handler"
	wsUsecase "wordgame-service/internal/api/ws/usecase"
	"wordgame-service/internal/roomsync"
)

func SetupHTTPHandlers(controller *roomsync.Controller) map[string]interface{} {
	createRoomUseCase := httpUsecase.NewCreateRoomUseCase(controller)
	createRoomHandler := httpHandler.NewCreateRoomHandler(createRoomUseCase)

	joinRoomUseCase := httpUsecase.NewJoinRoomUseCase(controller)
	joinRoomHandler := httpHandler.NewJoinRoomHandler(joinRoomUseCase)

	leaveRoomUseCase := httpUsecase.NewLeaveRoomUseCase(controller)
	leaveRoomHandler := httpHandler.NewLeaveRoomHandler(leaveRoomUseCase)

	getRoomUseCase := httpUsecase.NewGetRoomUseCase(controller)
	getRoomHandler := httpHandler.NewGetRoomHandler(getRoomUseCase)

	return map[string]interface{}{
		"create-room": createRoomHandler,
		"join-room":   joinRoomHandler,
		"leave-room":  leaveRoomHandler,
		"get-room":    getRoomHandler,
	}
}

func SetupWSHandlers(controller *roomsync.Controller, wsHub Hub) map[string]interface{} {
	roomConnect := wsUsecase.NewRoomConnectUseCase(wsHub, controller)
	roomConnectHandler := wsHandler.NewWebSocketRoomHandler(roomConnect)
	return map[string]interface{}{
		"room-connect": roomConnectHandler,
	}
}
