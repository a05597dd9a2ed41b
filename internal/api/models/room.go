package models

import (
	"time"
)

// Room is a password-protected collection of files shared by collaborators.
// RoomID is the user-chosen identifier and is immutable once created.
type Room struct {
	ID           uint       `gorm:"primaryKey"`
	RoomID       string     `gorm:"uniqueIndex;not null;column:room_id"`
	PasswordHash string     `gorm:"not null;column:password_hash"`
	Files        []RoomFile `gorm:"foreignKey:RoomRef"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime;column:updated_at"`
}

func (Room) TableName() string {
	return "rooms"
}

// RoomFile is one editable file within a room. Content is opaque UTF-8
// text, never parsed by the server.
type RoomFile struct {
	ID        uint      `gorm:"primaryKey"`
	RoomRef   uint      `gorm:"not null;uniqueIndex:uniq_room_filename;column:room_ref"`
	Filename  string    `gorm:"not null;uniqueIndex:uniq_room_filename"`
	Content   string    `gorm:"type:text"`
	Notes     string    `gorm:"type:text"`
	Language  string    `gorm:"default:plaintext"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at"`
}

func (RoomFile) TableName() string {
	return "room_files"
}
