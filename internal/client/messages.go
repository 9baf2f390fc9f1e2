package client

import "strings"

// Fallback texts shown to the operator.
const (
	MsgServerError   = "Server error"
	MsgUnreachable   = "Cannot reach the server"
	MsgSignInNeeded  = "Please sign in"
	MsgAccessDenied  = "Access denied"
	MsgGenericFailed = "Something went wrong"
)

var codeMessages = map[string]string{
	"INVALID_CREDENTIALS": "Invalid username or password",
	"USERNAME_TAKEN":      "Username is already taken",
	"USER_NOT_FOUND":      "User not found",
	"BOOK_NOT_FOUND":      "Book not found",
	"BOOK_UNAVAILABLE":    "Book is unavailable",
	"LOAN_NOT_FOUND":      "Loan not found",
	"ALREADY_RETURNED":    "Already returned",
	"FORBIDDEN":           MsgAccessDenied,
	"NO_TOKEN":            MsgSignInNeeded,
	"INVALID_TOKEN":       "Session is invalid, please sign in again",
	"TOKEN_EXPIRED":       "Session expired, please sign in again",
}

// phraseMessages is scanned in order and the first match wins, so the more
// specific phrases come first.
var phraseMessages = []struct {
	phrase string
	text   string
}{
	{"invalid credentials", "Invalid username or password"},
	{"user not found", "User not found"},
	{"book not found", "Book not found"},
	{"access denied", MsgAccessDenied},
	{"forbidden", MsgAccessDenied},
	{"unauthorized", MsgSignInNeeded},
	{"not found", "Not found"},
}

// FriendlyMessage maps a backend code, else a known phrase in raw, to
// operator-facing text. Unknown messages are returned as they are.
func FriendlyMessage(code, raw string) string {
	if text, ok := codeMessages[code]; ok {
		return text
	}
	lower := strings.ToLower(raw)
	for _, p := range phraseMessages {
		if strings.Contains(lower, p.phrase) {
			return p.text
		}
	}
	if raw == "" {
		return MsgGenericFailed
	}
	return raw
}
