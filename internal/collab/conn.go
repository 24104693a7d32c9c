package collab

// Conn is one live client connection as the hub sees it. Send must not block:
// transport adapters buffer outbound data and report an error when the buffer
// is full or the connection is mid-teardown; the hub treats a Send error as a
// dead connection.
type Conn interface {
	ID() string
	UserID() int64
	Send(data []byte) error
	Close() error
}
