package pkg

import "github.com/google/uuid"

// GenerateSessionID - generates a unique identifier for a game session.
func GenerateSessionID() string {
	return uuid.NewString()
}

// GenerateMoveID - generates a unique identifier for a move record.
func GenerateMoveID() string {
	return uuid.NewString()
}
