package core

// Logger is the app-wide logging contract. Implementations accept a message
// followed by free-form args: errors, maps, or a user.User to attach person
// tracking to the event.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
