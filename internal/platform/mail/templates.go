package mail

import "fmt"

// WelcomeMessage is sent after a user registers.
func WelcomeMessage(name, email string) Message {
	return Message{
		ToAddress: email,
		ToName:    name,
		Subject:   "Thanks for joining in",
		Text:      fmt.Sprintf("Welcome to the app, %s. Let me know how get along with the app.", name),
	}
}

// CancellationMessage is sent after a user deletes their account.
func CancellationMessage(name, email string) Message {
	return Message{
		ToAddress: email,
		ToName:    name,
		Subject:   "Sorry to see you go",
		Text:      fmt.Sprintf("Dear %s, let us know why you delete the account.", name),
	}
}
