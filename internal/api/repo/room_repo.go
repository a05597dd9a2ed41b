package repo

import (
	"coderoom"
	"coderoom/internal/api/models"

	"gorm.io/gorm"
)

type RoomRepository struct {
	Db *gorm.DB
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{Db: coderoom.DB}
}

func (slf *RoomRepository) FindByRoomID(roomID string) (models.Room, error) {
	var room models.Room
	err := slf.Db.Preload("Files", func(db *gorm.DB) *gorm.DB {
		return db.Order("room_files.id ASC")
	}).Where("room_id = ?", roomID).First(&room).Error
	return room, err
}

func (slf *RoomRepository) ExistsByRoomID(roomID string) (bool, error) {
	var count int64
	err := slf.Db.Model(&models.Room{}).Where("room_id = ?", roomID).Count(&count).Error
	return count > 0, err
}

func (slf *RoomRepository) Create(room *models.Room) error {
	return slf.Db.Create(room).Error
}

func (slf *RoomRepository) FindFile(roomRef uint, filename string) (models.RoomFile, error) {
	var file models.RoomFile
	err := slf.Db.Where("room_ref = ? AND filename = ?", roomRef, filename).First(&file).Error
	return file, err
}

func (slf *RoomRepository) ExistsFile(roomRef uint, filename string) (bool, error) {
	var count int64
	err := slf.Db.Model(&models.RoomFile{}).
		Where("room_ref = ? AND filename = ?", roomRef, filename).
		Count(&count).Error
	return count > 0, err
}

func (slf *RoomRepository) CreateFile(file *models.RoomFile) error {
	return slf.Db.Create(file).Error
}

// UpdateFileContent overwrites content and notes of a file. Last write
// wins: there is no version token to compare against.
func (slf *RoomRepository) UpdateFileContent(fileID uint, content string, notes string) error {
	return slf.Db.Model(&models.RoomFile{}).
		Where("id = ?", fileID).
		Updates(map[string]any{
			"content": content,
			"notes":   notes,
		}).Error
}

func (slf *RoomRepository) DeleteRoom(id uint) error {
	if err := slf.Db.Where("room_ref = ?", id).Delete(&models.RoomFile{}).Error; err != nil {
		return err
	}
	return slf.Db.Delete(&models.Room{}, id).Error
}
