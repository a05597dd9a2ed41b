package endpoints

import (
	"coderoom"
	"coderoom/internal/api/handler/request"
	"coderoom/internal/api/handler/response"
	"coderoom/internal/api/service"
	"coderoom/pkg"
	"errors"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type roomHandler struct {
	roomService *service.RoomService
	logger      zerolog.Logger
	config      coderoom.AppConfig
}

func newRoomHandler() *roomHandler {
	return &roomHandler{
		roomService: service.NewRoomService(),
		logger:      coderoom.Logger,
		config:      coderoom.GetConfig(),
	}
}

func RoomHandler(router *graceful.Graceful) {
	h := newRoomHandler()

	rooms := router.Group("/api/v1/rooms")
	{
		rooms.POST("", h.create)
		rooms.POST("/join", h.join)
		rooms.POST("/:roomId/files", h.addFile)
		rooms.GET("/:roomId/files/:filename", h.getFile)
	}
}

func (slf *roomHandler) create(c *gin.Context) {
	var createDTO request.CreateRoomDTO

	if err := pkg.ParseAndValidate(c, &createDTO); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating create room DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	room, err := slf.roomService.CreateRoom(createDTO.RoomID, createDTO.Password, createDTO.Filename)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateRoom) {
			c.JSON(http.StatusConflict, response.APIError{Message: "Room ID already taken"})
			return
		}
		slf.logger.Error().Err(err).Str("roomId", createDTO.RoomID).Msg("Error creating room")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, response.CreateRoomResponse{
		Ok:     true,
		RoomID: room.RoomID,
		File:   response.NewFileResponse(room.Files[0]),
	})
}

// join checks the room credentials and returns the file list plus a
// room-scoped session token for the websocket endpoint. Room-not-found
// and bad-password are still distinguishable here, matching the
// historical behavior of this API.
func (slf *roomHandler) join(c *gin.Context) {
	var joinDTO request.JoinRoomDTO

	if err := pkg.ParseAndValidate(c, &joinDTO); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating join room DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	files, err := slf.roomService.JoinRoom(joinDTO.RoomID, joinDTO.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, response.APIError{Message: "Room not found"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, response.APIError{Message: "Invalid room credentials"})
		default:
			slf.logger.Error().Err(err).Str("roomId", joinDTO.RoomID).Msg("Error joining room")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to join room"})
		}
		return
	}

	token, err := pkg.GenerateRoomToken(joinDTO.RoomID, slf.config.JWTConfig.Secret, slf.config.JWTConfig.Expiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating room token")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to join room"})
		return
	}

	c.JSON(http.StatusOK, response.JoinRoomResponse{
		Ok:    true,
		Files: files,
		Token: token,
	})
}

func (slf *roomHandler) addFile(c *gin.Context) {
	roomID := c.Param("roomId")

	var addDTO request.AddFileDTO
	if err := pkg.ParseAndValidate(c, &addDTO); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating add file DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	file, err := slf.roomService.AddFile(roomID, addDTO.Filename, addDTO.Language)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, response.APIError{Message: "Room not found"})
		case errors.Is(err, service.ErrDuplicateFile):
			c.JSON(http.StatusConflict, response.APIError{Message: "File already exists in room"})
		default:
			slf.logger.Error().Err(err).Str("roomId", roomID).Str("filename", addDTO.Filename).Msg("Error adding file")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to add file"})
		}
		return
	}

	c.JSON(http.StatusOK, response.AddFileResponse{
		Ok:   true,
		File: response.NewFileResponse(file),
	})
}

func (slf *roomHandler) getFile(c *gin.Context) {
	roomID := c.Param("roomId")
	filename := c.Param("filename")

	file, err := slf.roomService.Load(roomID, filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, service.ErrFileNotFound):
			c.JSON(http.StatusNotFound, response.APIError{Message: "File not found"})
		default:
			slf.logger.Error().Err(err).Str("roomId", roomID).Str("filename", filename).Msg("Error loading file")
			c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to load file"})
		}
		return
	}

	c.JSON(http.StatusOK, response.GetFileResponse{
		Ok:   true,
		File: response.NewFileResponse(file),
	})
}
