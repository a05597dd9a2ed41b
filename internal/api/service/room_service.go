package service

import (
	"coderoom"
	"coderoom/internal/api/models"
	"coderoom/internal/api/repo"
	"coderoom/pkg"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const fileCacheTTL = 5 * time.Minute

type RoomService struct {
	roomRepo *repo.RoomRepository
	config   coderoom.AppConfig
	logger   zerolog.Logger
}

func NewRoomService() *RoomService {
	return &RoomService{
		roomRepo: repo.NewRoomRepository(),
		config:   coderoom.GetConfig(),
		logger:   coderoom.Logger,
	}
}

// CreateRoom registers a new room with a single initial file. The
// password is bcrypt-hashed before it touches storage; the plaintext is
// never persisted and never returned.
func (slf *RoomService) CreateRoom(roomID string, password string, filename string) (models.Room, error) {
	exists, err := slf.roomRepo.ExistsByRoomID(roomID)
	if err != nil {
		slf.logger.Error().Err(err).Str("roomId", roomID).Msg("Error checking room existence")
		return models.Room{}, err
	}
	if exists {
		return models.Room{}, ErrDuplicateRoom
	}

	hash, err := pkg.HashPassword(password)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error hashing room password")
		return models.Room{}, err
	}

	room := models.Room{
		RoomID:       roomID,
		PasswordHash: hash,
		Files: []models.RoomFile{
			{
				Filename: filename,
				Language: pkg.LanguageForFilename(filename),
			},
		},
	}

	if err = slf.roomRepo.Create(&room); err != nil {
		slf.logger.Error().Err(err).Str("roomId", roomID).Msg("Error creating room")
		return models.Room{}, err
	}

	slf.logger.Info().Str("roomId", roomID).Str("filename", filename).Msg("Room created")
	return room, nil
}

// JoinRoom verifies the room credentials and returns the room's file
// names in creation order. The file list is never returned on a failed
// credential check.
func (slf *RoomService) JoinRoom(roomID string, password string) ([]string, error) {
	room, err := slf.roomRepo.FindByRoomID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		slf.logger.Error().Err(err).Str("roomId", roomID).Msg("Error finding room")
		return nil, err
	}

	if !pkg.VerifyPassword(room.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	filenames := make([]string, 0, len(room.Files))
	for _, f := range room.Files {
		filenames = append(filenames, f.Filename)
	}
	return filenames, nil
}

// Load fetches one file of a room, read-through cached in Redis.
func (slf *RoomService) Load(roomID string, filename string) (models.RoomFile, error) {
	var cached models.RoomFile
	if err := pkg.RedisGet(pkg.FileCacheKey(roomID, filename), &cached); err == nil {
		return cached, nil
	} else if !pkg.IsRedisNil(err) {
		slf.logger.Warn().Err(err).Str("roomId", roomID).Msg("File cache read failed")
	}

	room, err := slf.roomRepo.FindByRoomID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RoomFile{}, ErrRoomNotFound
		}
		return models.RoomFile{}, err
	}

	file, err := slf.roomRepo.FindFile(room.ID, filename)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RoomFile{}, ErrFileNotFound
		}
		return models.RoomFile{}, err
	}

	if err := pkg.RedisSet(pkg.FileCacheKey(roomID, filename), file, fileCacheTTL); err != nil {
		slf.logger.Warn().Err(err).Str("roomId", roomID).Msg("File cache write failed")
	}

	return file, nil
}

// Save persists the latest content and notes of a file. Repeated
// identical saves are idempotent; concurrent saves race and the one
// that reaches the database last wins.
func (slf *RoomService) Save(roomID string, filename string, content string, notes string) error {
	room, err := slf.roomRepo.FindByRoomID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		slf.logger.Error().Err(err).Str("roomId", roomID).Msg("Error finding room for save")
		return fmt.Errorf("save failed: %w", err)
	}

	file, err := slf.roomRepo.FindFile(room.ID, filename)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		slf.logger.Error().Err(err).Str("roomId", roomID).Str("filename", filename).Msg("Error finding file for save")
		return fmt.Errorf("save failed: %w", err)
	}

	if err = slf.roomRepo.UpdateFileContent(file.ID, content, notes); err != nil {
		slf.logger.Error().Err(err).Str("roomId", roomID).Str("filename", filename).Msg("Error saving file")
		return fmt.Errorf("save failed: %w", err)
	}

	if err := pkg.RedisDelete(pkg.FileCacheKey(roomID, filename)); err != nil {
		slf.logger.Warn().Err(err).Str("roomId", roomID).Msg("File cache invalidation failed")
	}

	return nil
}

// AddFile appends a new empty file to the room. Filename uniqueness
// within the room is enforced here, at add time.
func (slf *RoomService) AddFile(roomID string, filename string, language string) (models.RoomFile, error) {
	room, err := slf.roomRepo.FindByRoomID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RoomFile{}, ErrRoomNotFound
		}
		slf.logger.Error().Err(err).Str("roomId", roomID).Msg("Error finding room for add-file")
		return models.RoomFile{}, err
	}

	exists, err := slf.roomRepo.ExistsFile(room.ID, filename)
	if err != nil {
		return models.RoomFile{}, err
	}
	if exists {
		return models.RoomFile{}, ErrDuplicateFile
	}

	if language == "" {
		language = pkg.LanguageForFilename(filename)
	}

	file := models.RoomFile{
		RoomRef:  room.ID,
		Filename: filename,
		Language: language,
	}
	if err = slf.roomRepo.CreateFile(&file); err != nil {
		slf.logger.Error().Err(err).Str("roomId", roomID).Str("filename", filename).Msg("Error adding file")
		return models.RoomFile{}, err
	}

	slf.logger.Info().Str("roomId", roomID).Str("filename", filename).Msg("File added to room")
	return file, nil
}
