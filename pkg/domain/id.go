package domain

import "strings"

// DefaultDialogID is the root dialog.
const DefaultDialogID = "/"

// FallbackDialogID handles utterances nothing else claimed.
const FallbackDialogID = "/unknown"

// NormalizeDialogID returns the absolute form of a dialog id:
// a single leading slash and no trailing slash. "unknown" becomes "/unknown".
func NormalizeDialogID(id string) string {
	id = strings.TrimSpace(id)
	id = "/" + strings.Trim(id, "/")
	return id
}
