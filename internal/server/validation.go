package server

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"photoclash/internal/game"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxUserIDLength   = 64
	maxPhotoURLLength = 2048
	maxLanguageLength = 8
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
			_, err := validateUserID(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
			_, err := validateRoomCode(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			_, err := validateLanguage(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("photourl", func(fl validator.FieldLevel) bool {
			_, err := validatePhotoURL(fl.Field().String())
			return err == nil
		})
	})
}

func validateUserID(userID string) (string, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return "", errors.New("user id is required")
	}
	if len(trimmed) > maxUserIDLength {
		return "", fmt.Errorf("user id must be %d characters or fewer", maxUserIDLength)
	}
	for _, r := range trimmed {
		if r < 0x21 || r == 0x7f {
			return "", errors.New("user id contains unsupported characters")
		}
	}
	return trimmed, nil
}

func validateRoomCode(code string) (string, error) {
	normalized := game.NormalizeCode(code)
	if normalized == "" {
		return "", errors.New("room code is required")
	}
	if !game.ValidCode(normalized, len(normalized)) {
		return "", errors.New("room code contains unsupported characters")
	}
	return normalized, nil
}

func validateLanguage(language string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(language))
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > maxLanguageLength {
		return "", fmt.Errorf("language must be %d characters or fewer", maxLanguageLength)
	}
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || r == '-' {
			continue
		}
		return "", errors.New("language contains unsupported characters")
	}
	return trimmed, nil
}

// validatePhotoURL accepts absolute http(s) URLs; storage happens elsewhere.
func validatePhotoURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("photo url is required")
	}
	if len(trimmed) > maxPhotoURLLength {
		return "", fmt.Errorf("photo url must be %d characters or fewer", maxPhotoURLLength)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", errors.New("photo url must be an absolute http or https url")
	}
	return trimmed, nil
}
