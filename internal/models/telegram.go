package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for a transfer notification.
type TelegramMessage struct {
	Operation string // "export" or "import"
	Success   bool
	Database  string
	Format    ExportFormat
	StartTime time.Time
	Duration  time.Duration

	// Artifact info (if successful).
	FileName  string
	SizeBytes int64

	// Error info (if failed).
	ErrorCode    string
	ErrorMessage string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
