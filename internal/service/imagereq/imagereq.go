package imagereq

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Маркеры встроенного протокола: ассистент может сам попросить сгенерировать
// изображение, обрамив JSON-директиву этими метками внутри обычного текста.
const (
	openMarker  = "<<IMAGE_REQUEST>>"
	closeMarker = "<<END_IMAGE_REQUEST>>"
)

var directivePattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(openMarker) + `(.*?)` + regexp.QuoteMeta(closeMarker))

// ErrInvalidFormat — маркеры найдены, но вложенный JSON не разбирается.
// Текст сообщения показывается пользователю как есть.
var ErrInvalidFormat = errors.New("Invalid image generation request format")

// Extract ищет первую директиву между маркерами.
//
// Маркеров нет — found=false, текст остаётся обычным ответом.
// Маркеры есть, JSON корректный — возвращается перепакованная (компактная)
// директива, окружающий текст отбрасывается.
// Маркеры есть, JSON некорректный — ErrInvalidFormat; отката к тексту нет,
// протокол намеренно «громкий».
func Extract(text string) (directive string, found bool, err error) {
	m := directivePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false, nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &parsed); err != nil {
		return "", true, ErrInvalidFormat
	}
	repacked, err := json.Marshal(parsed)
	if err != nil {
		return "", true, ErrInvalidFormat
	}
	return string(repacked), true, nil
}
