package main

import (
	"github.com/joho/godotenv"

	"telegram-mood-tracker/internal/cli"
	"telegram-mood-tracker/internal/utils"
)

func main() {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID etc.

	utils.Must(cli.Execute())
}
