package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須フィールドが不足しています"
		case "unknown_key":
			return "未知のフィールドです"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		case "too_small":
			return "小さすぎます"
		case "too_big":
			return "大きすぎます"
		case "pattern":
			return "パターンに一致しません"
		case "not_integer":
			return "整数ではありません"
		case "not_finite":
			return "有限の数値ではありません"
		case "invalid_enum":
			return "許可された値ではありません"
		case "too_few_items":
			return "要素が少なすぎます"
		case "too_many_items":
			return "要素が多すぎます"
		case "duplicate_item":
			return "要素が重複しています"
		case "constant_mismatch":
			return "固定値と一致しません"
		case "parse_error":
			return "式の解析エラー"
		case "unknown_type":
			return "未知の型名です"
		case "depth_exceeded":
			return "ネストが深すぎます"
		case "circular_schema":
			return "スキーマが循環しています"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "required":
			return "required field missing"
		case "unknown_key":
			return "unknown field"
		case "too_short":
			return "too short"
		case "too_long":
			return "too long"
		case "too_small":
			return "too small"
		case "too_big":
			return "too big"
		case "pattern":
			return "does not match pattern"
		case "not_integer":
			return "not an integer"
		case "not_finite":
			return "not a finite number"
		case "invalid_enum":
			return "not an allowed value"
		case "too_few_items":
			return "too few items"
		case "too_many_items":
			return "too many items"
		case "duplicate_item":
			return "duplicate item"
		case "constant_mismatch":
			return "does not equal the required constant"
		case "parse_error":
			return "expression parse error"
		case "unknown_type":
			return "unknown type name"
		case "depth_exceeded":
			return "nesting too deep"
		case "circular_schema":
			return "schema references itself"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
