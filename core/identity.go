package core

// Avatar describes the generated avatar attached to an identity
type Avatar struct {
	Style     string `json:"style"`     // Generator style tag, e.g. "bottts"
	Selection string `json:"selection"` // Selection within the style
	Variant   int    `json:"variant"`   // Variant number within the selection
}

// Identity represents an authenticated wallet identity
type Identity struct {
	Address  string `json:"address"`  // Checksummed account address
	Nickname string `json:"nickname"` // Human-readable handle, unique across identities
	Avatar   Avatar `json:"avatar"`
}

// AvatarStyles is the closed set of avatar generator styles
var AvatarStyles = []string{"bottts", "avataaars", "identicon", "pixel-art"}

// ValidAvatarStyle reports whether style is one of the known generator styles
func ValidAvatarStyle(style string) bool {
	for _, s := range AvatarStyles {
		if s == style {
			return true
		}
	}
	return false
}
