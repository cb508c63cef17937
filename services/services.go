package services

import (
	"gorm.io/gorm"

	"lms/config"
	"lms/engine"
	"lms/utils"
)

// LMS is the global course engine used by the controllers
var LMS *engine.Engine

// Mailer sends the moderation and completion notifications
var Mailer utils.Mailer

// Init wires the engine and mailer from the loaded configuration.
func Init(db *gorm.DB, cfg *config.Config) {
	LMS = engine.New(db, engine.WithQuizPolicy(engine.QuizPolicy(cfg.QuizRetakePolicy)))
	Mailer = utils.NewMailer(cfg)
}
