package response

import (
	"coderoom/internal/api/models"
	"time"
)

type APIError struct {
	Message string `json:"message"`
}

type FileResponse struct {
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	Notes     string    `json:"notes"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewFileResponse(file models.RoomFile) FileResponse {
	return FileResponse{
		Filename:  file.Filename,
		Content:   file.Content,
		Notes:     file.Notes,
		Language:  file.Language,
		UpdatedAt: file.UpdatedAt,
	}
}

type CreateRoomResponse struct {
	Ok     bool         `json:"ok"`
	RoomID string       `json:"roomId"`
	File   FileResponse `json:"file"`
}

type JoinRoomResponse struct {
	Ok    bool     `json:"ok"`
	Files []string `json:"files"`
	Token string   `json:"token"`
}

type AddFileResponse struct {
	Ok   bool         `json:"ok"`
	File FileResponse `json:"file"`
}

type GetFileResponse struct {
	Ok   bool         `json:"ok"`
	File FileResponse `json:"file"`
}
