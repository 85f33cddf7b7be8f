package view

import (
	"net/http"
	"strings"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"

	ThemeCookie = "splitrail_theme"
)

func ParseTheme(s string) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	}
	return ThemeSystem
}

// ThemeFromRequest reads the theme cookie, defaulting to the system theme.
func ThemeFromRequest(r *http.Request) Theme {
	cookie, err := r.Cookie(ThemeCookie)
	if err != nil {
		return ThemeSystem
	}
	return ParseTheme(cookie.Value)
}
