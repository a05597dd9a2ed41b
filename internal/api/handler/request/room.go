package request

type CreateRoomDTO struct {
	RoomID   string `json:"roomId" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1"`
	Filename string `json:"filename" validate:"required,min=1,max=255"`
}

type JoinRoomDTO struct {
	RoomID   string `json:"roomId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AddFileDTO struct {
	Filename string `json:"filename" validate:"required,min=1,max=255"`
	Language string `json:"language"`
}
