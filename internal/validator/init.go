package validator

import (
	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/game"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		_, err := bot.ParseDifficulty(fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		return game.GameMode(fl.Field().String()).Valid()
	})
}

func GetValidator() *validator.Validate {
	return validate
}
