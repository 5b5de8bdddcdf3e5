package redflag

import (
	"regexp"
	"sort"
	"strings"
)

// Signal 表示用户消息中出现的诈骗风险信号。
type Signal string

const (
	SMSCode      Signal = "sms_code"
	CardData     Signal = "card_data"
	SafeAccount  Signal = "safe_account"
	Urgency      Signal = "urgency"
	RemoteAccess Signal = "remote_access"
	Authority    Signal = "authority"
	Investment   Signal = "investment"
)

// Level 为综合风险等级。
type Level string

const (
	LevelNone Level = "none"
	LevelLow  Level = "low"
	LevelHigh Level = "high"
)

// Warning 与聊天页脚的提示保持一致。
const Warning = "Никогда не сообщайте коды из СМС и полные данные карт."

// Report 给出命中的信号、得分以及是否需要向用户展示警告。
type Report struct {
	Signals []Signal `json:"signals"`
	Score   int      `json:"score"`
	Level   Level    `json:"level"`
	Warning string   `json:"warning,omitempty"`
}

// Flagged reports whether anything was detected.
func (r Report) Flagged() bool { return r.Score > 0 }

// keywordBuckets 以词干做子串匹配，以覆盖俄语的词形变化。
var keywordBuckets = map[Signal][]string{
	SMSCode: {
		"код из смс", "код из sms", "код подтвержд", "смс-код", "смс код", "sms-код",
		"пришел код", "пришёл код", "код придет", "код придёт",
	},
	CardData: {
		"срок действия карт", "три цифры", "на обороте карт", "пин-код", "пин код",
	},
	SafeAccount: {
		"перевести деньги на", "снять все деньги", "задекларировать средства",
	},
	Urgency: {
		"немедленн", "прямо сейчас", "в течение час", "иначе заблокир", "никому не говори",
	},
	RemoteAccess: {
		"anydesk", "teamviewer", "rustdesk",
	},
	Authority: {
		"центробанк", "цб рф", "фсб", "полици", "следовател", "прокуратур", "госуслуг", "мвд",
	},
	Investment: {
		"криптовалют", "инвестиционн", "брокер", "удвои", "удвоя",
	},
}

// patternBuckets 覆盖需要词边界或中间词形可变的短语。RE2 的 \b 只识别 ASCII，
// 西里尔字母的词首用 (?:^|\P{L}) 表示。
var patternBuckets = map[Signal][]*regexp.Regexp{
	SMSCode: {
		regexp.MustCompile(`(?:продикт|назов|назв|сообщ|скаж)\p{L}* (?:им |нам |мне )?код`),
		regexp.MustCompile(`одноразов\p{L}* код`),
	},
	CardData: {
		regexp.MustCompile(`\b(?:pin|cvv2?|cvc2?)\b`),
		regexp.MustCompile(`(?:номер|данн|реквизит)\p{L}* (?:вашей |моей |банковской )?карт`),
	},
	SafeAccount: {
		regexp.MustCompile(`(?:безопасн|резервн|защищ[её]нн|специальн)\p{L}* сч[её]т`),
	},
	Urgency: {
		regexp.MustCompile(`(?:^|\P{L})срочн`),
		regexp.MustCompile(`сч[её]т\p{L}* (?:будет )?заблокир`),
		regexp.MustCompile(`подозрительн\p{L}* (?:операци|перевод|списани)`),
		regexp.MustCompile(`оформ\p{L}* (?:на вас )?кредит`),
	},
	RemoteAccess: {
		regexp.MustCompile(`(?:установ|скача|загруз)\p{L}* (?:\p{L}+ )?приложени`),
		regexp.MustCompile(`демонстраци\p{L}* экран`),
	},
	Authority: {
		regexp.MustCompile(`служб\p{L}* безопасности`),
		regexp.MustCompile(`центральн\p{L}* банк`),
	},
	Investment: {
		regexp.MustCompile(`(?:гарантированн|пассивн)\p{L}* доход`),
	},
}

var signalWeight = map[Signal]int{
	SMSCode:      5,
	CardData:     5,
	SafeAccount:  5,
	RemoteAccess: 4,
	Urgency:      2,
	Authority:    2,
	Investment:   2,
}

var (
	// 13-19 位数字，允许空格或短横线分隔。
	cardNumberPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)
	// 紧邻“код”的 4-6 位数字。
	codePattern = regexp.MustCompile(`(?i)код\D{0,12}\d{4,6}\b`)
)

// Analyze 扫描一条用户消息，返回命中的风险信号。
func Analyze(text string) Report {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Report{Signals: []Signal{}, Level: LevelNone}
	}

	hits := make(map[Signal]bool)
	for signal, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				hits[signal] = true
				break
			}
		}
	}
	for signal, patterns := range patternBuckets {
		if hits[signal] {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(normalized) {
				hits[signal] = true
				break
			}
		}
	}

	for _, m := range cardNumberPattern.FindAllString(normalized, -1) {
		if luhnValid(m) {
			hits[CardData] = true
			break
		}
	}
	if codePattern.MatchString(normalized) {
		hits[SMSCode] = true
	}

	signals := make([]Signal, 0, len(hits))
	score := 0
	for s := range hits {
		signals = append(signals, s)
		score += signalWeight[s]
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i] < signals[j] })

	report := Report{Signals: signals, Score: score, Level: level(score)}
	if hits[SMSCode] || hits[CardData] || report.Level == LevelHigh {
		report.Warning = Warning
	}
	return report
}

func level(score int) Level {
	switch {
	case score == 0:
		return LevelNone
	case score < 5:
		return LevelLow
	default:
		return LevelHigh
	}
}

// luhnValid 校验银行卡号，过滤掉电话号码等普通数字串。
func luhnValid(s string) bool {
	digits := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
