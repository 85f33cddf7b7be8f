package format

import "strings"

// Badge is the decorative tier awarded to the top three leaderboard ranks.
type Badge string

const (
	BadgeNone   Badge = ""
	BadgeGold   Badge = "gold"
	BadgeSilver Badge = "silver"
	BadgeBronze Badge = "bronze"
)

func CalculateBadge(rank int) Badge {
	switch rank {
	case 1:
		return BadgeGold
	case 2:
		return BadgeSilver
	case 3:
		return BadgeBronze
	}
	return BadgeNone
}

const defaultLanguageIcon = "📄"

var languageIcons = map[string]string{
	"javascript": "🟨",
	"typescript": "🔷",
	"python":     "🐍",
	"java":       "☕",
	"go":         "🐹",
	"rust":       "🦀",
	"c++":        "🔧",
	"c":          "🔧",
	"c#":         "💜",
	"php":        "🐘",
	"ruby":       "💎",
	"swift":      "🦉",
	"kotlin":     "🅺",
	"dart":       "🎯",
	"html":       "🌐",
	"css":        "🎨",
	"scss":       "🎨",
	"less":       "🎨",
	"json":       "📋",
	"xml":        "📋",
	"yaml":       "📋",
	"yml":        "📋",
	"markdown":   "📝",
	"md":         "📝",
	"sql":        "🗃️",
	"shell":      "🖥️",
	"bash":       "🖥️",
	"powershell": "🖥️",
	"dockerfile": "🐳",
	"docker":     "🐳",
}

// LanguageIcon maps a language name to its glyph, case-insensitively.
func LanguageIcon(language string) string {
	if icon, ok := languageIcons[strings.ToLower(language)]; ok {
		return icon
	}
	return defaultLanguageIcon
}

// DisplayPreference is the user's choice of how their name is shown.
type DisplayPreference string

const (
	PreferDisplayName DisplayPreference = "displayName"
	PreferUsername    DisplayPreference = "username"
)

// DisplayName resolves the name to show for a user: the display name unless
// the username is preferred or no display name is set.
func DisplayName(username, displayName string, pref DisplayPreference) string {
	if pref != PreferUsername && displayName != "" {
		return displayName
	}
	return username
}
