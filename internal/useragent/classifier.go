package useragent

import (
	"strings"
)

// Значения по умолчанию для нераспознанных User-Agent
const (
	DefaultDevice  = "desktop"
	UnknownOS      = "unknown"
	UnknownBrowser = "unknown"
)

// ClientInfo результат классификации User-Agent строки
type ClientInfo struct {
	DeviceType string `json:"device_type"`
	OS         string `json:"os"`
	Browser    string `json:"browser"`
}

// rule одно правило: подстрока -> метка. Проверка регистронезависимая.
type rule struct {
	patterns []string
	label    string
}

// Порядок правил значим: подстроки пересекаются (мобильный Safari
// содержит "Safari", "like Mac OS X" содержит "Mac OS X"), побеждает
// первое совпадение.
var (
	deviceRules = []rule{
		{patterns: []string{"mobile"}, label: "mobile"},
		{patterns: []string{"tablet"}, label: "tablet"},
	}

	osRules = []rule{
		{patterns: []string{"windows"}, label: "Windows"},
		{patterns: []string{"macintosh", "mac os x"}, label: "MacOS"},
		{patterns: []string{"linux"}, label: "Linux"},
		{patterns: []string{"android"}, label: "Android"},
		{patterns: []string{"iphone", "ipad", "ipod"}, label: "iOS"},
	}

	browserRules = []rule{
		{patterns: []string{"edg"}, label: "Edge"},
		{patterns: []string{"opr"}, label: "Opera"},
		{patterns: []string{"chrome"}, label: "Chrome"},
		{patterns: []string{"safari"}, label: "Safari"},
		{patterns: []string{"firefox"}, label: "Firefox"},
		{patterns: []string{"msie", "trident"}, label: "IE"},
	}
)

// Classify разбирает User-Agent строку на тип устройства, ОС и браузер.
// Чистая тотальная функция: никогда не возвращает ошибку, для
// нераспознанных строк подставляет значения по умолчанию.
func Classify(userAgent string) ClientInfo {
	ua := strings.ToLower(userAgent)

	return ClientInfo{
		DeviceType: matchFirst(ua, deviceRules, DefaultDevice),
		OS:         matchFirst(ua, osRules, UnknownOS),
		Browser:    matchFirst(ua, browserRules, UnknownBrowser),
	}
}

// matchFirst возвращает метку первого сработавшего правила
func matchFirst(ua string, rules []rule, fallback string) string {
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(ua, p) {
				return r.label
			}
		}
	}
	return fallback
}
