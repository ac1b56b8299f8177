package auth

import "strings"

// UserMessage is the user-facing rendering of an upstream auth error.
type UserMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var genericMessage = UserMessage{
	Title:   "Something went wrong",
	Message: "We could not complete your request. Please try again in a moment.",
}

// knownMessages maps exact upstream error strings to user-facing copy.
// Substring matching below catches upstream variants of the same failure.
var knownMessages = map[string]UserMessage{
	"invalid login credentials": {
		Title:   "Sign-in failed",
		Message: "The email or password you entered is incorrect.",
	},
	"email not confirmed": {
		Title:   "Confirm your email",
		Message: "Your email address has not been confirmed yet. Check your inbox for the confirmation link.",
	},
	"user already registered": {
		Title:   "Account already exists",
		Message: "An account with this email already exists. Try signing in instead.",
	},
	"you can only request this once every 60 seconds": {
		Title:   "Please wait",
		Message: "A confirmation email was sent recently. Wait a minute before requesting another.",
	},
	"token has expired or is invalid": {
		Title:   "Link expired",
		Message: "This link is no longer valid. Request a new one and try again.",
	},
	"email rate limit exceeded": {
		Title:   "Too many attempts",
		Message: "Too many emails were sent to this address. Please try again later.",
	},
}

// substring fragments checked in order when no exact match hits.
var partialMessages = []struct {
	fragment string
	msg      UserMessage
}{
	{"credentials", knownMessages["invalid login credentials"]},
	{"not confirmed", knownMessages["email not confirmed"]},
	{"already registered", knownMessages["user already registered"]},
	{"already exists", knownMessages["user already registered"]},
	{"rate limit", knownMessages["email rate limit exceeded"]},
	{"expired", knownMessages["token has expired or is invalid"]},
	{"password must", UserMessage{
		Title:   "Weak password",
		Message: "Passwords need at least 8 characters including an uppercase letter, a lowercase letter and a number.",
	}},
}

// Translate maps an upstream auth error to a user-facing title/message pair.
// Exact table match first, then substring fallback, then a generic message.
func Translate(err error) UserMessage {
	if err == nil {
		return genericMessage
	}
	raw := strings.ToLower(strings.TrimSpace(err.Error()))
	if msg, ok := knownMessages[raw]; ok {
		return msg
	}
	for _, p := range partialMessages {
		if strings.Contains(raw, p.fragment) {
			return p.msg
		}
	}
	return genericMessage
}
