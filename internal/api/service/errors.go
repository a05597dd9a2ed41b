package service

import "errors"

var (
	ErrDuplicateRoom      = errors.New("room id already taken")
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidCredentials = errors.New("invalid room credentials")
	ErrFileNotFound       = errors.New("file not found")
	ErrDuplicateFile      = errors.New("file already exists in room")
)
