// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// CommonLanguages provides a list of commonly used languages for seeding and selection UI.
var CommonLanguages = []struct {
	Code       string
	Name       string
	NativeName string
}{
	{"en", "English", "English"},
	{"ru", "Russian", "Русский"},
	{"de", "German", "Deutsch"},
	{"fr", "French", "Français"},
	{"es", "Spanish", "Español"},
	{"it", "Italian", "Italiano"},
	{"pt", "Portuguese", "Português"},
	{"nl", "Dutch", "Nederlands"},
	{"pl", "Polish", "Polski"},
	{"uk", "Ukrainian", "Українська"},
	{"zh", "Chinese", "中文"},
	{"ja", "Japanese", "日本語"},
	{"ko", "Korean", "한국어"},
	{"ar", "Arabic", "العربية"},
	{"tr", "Turkish", "Türkçe"},
}

// LookupCommonLanguage returns the display names of a well-known language code.
func LookupCommonLanguage(code string) (name, nativeName string, ok bool) {
	for _, l := range CommonLanguages {
		if l.Code == code {
			return l.Name, l.NativeName, true
		}
	}
	return "", "", false
}
