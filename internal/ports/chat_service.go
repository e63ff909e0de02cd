package ports

// ChatService defines the interface for the long-running chat-platform
// listener that feeds the moderation pipeline
type ChatService interface {
	// Start opens the platform connection and begins receiving events
	Start() error

	// Stop closes the platform connection
	Stop() error
}
