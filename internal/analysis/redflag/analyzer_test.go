package redflag

import "testing"

func TestAnalyzeSMSCodeRequest(t *testing.T) {
	report := Analyze("Мне позвонили и попросили продиктовать код из СМС")
	if !contains(report.Signals, SMSCode) {
		t.Fatalf("expected sms code signal, got %v", report.Signals)
	}
	if report.Warning != Warning {
		t.Fatalf("expected warning, got %q", report.Warning)
	}
	if report.Level != LevelHigh {
		t.Fatalf("expected high level, got %s", report.Level)
	}
}

func TestAnalyzeCodeDigits(t *testing.T) {
	report := Analyze("Мне пришел код 483920, они просят его назвать")
	if !contains(report.Signals, SMSCode) {
		t.Fatalf("expected sms code signal, got %v", report.Signals)
	}
}

func TestAnalyzeCardNumber(t *testing.T) {
	// test Visa number passing the Luhn check
	report := Analyze("Вот моя карта 4111 1111 1111 1111, это нормально?")
	if !contains(report.Signals, CardData) {
		t.Fatalf("expected card data signal, got %v", report.Signals)
	}
	if report.Warning == "" {
		t.Fatal("expected warning for card number")
	}
}

func TestAnalyzeIgnoresPhoneNumbers(t *testing.T) {
	report := Analyze("Звонили с номера 8 800 555 35 35")
	if contains(report.Signals, CardData) {
		t.Fatalf("phone number must not be treated as card, got %v", report.Signals)
	}
}

func TestAnalyzeSafeAccount(t *testing.T) {
	report := Analyze("Служба безопасности банка сказала срочно перевести все на безопасный счет")
	for _, want := range []Signal{SafeAccount, Authority, Urgency} {
		if !contains(report.Signals, want) {
			t.Fatalf("expected %s in %v", want, report.Signals)
		}
	}
	if report.Score < 9 {
		t.Fatalf("unexpected score %d", report.Score)
	}
}

func TestAnalyzeLowRiskHasNoWarning(t *testing.T) {
	report := Analyze("Мне пишут про гарантированный доход")
	if report.Level != LevelLow {
		t.Fatalf("expected low level, got %s", report.Level)
	}
	if report.Warning != "" {
		t.Fatalf("unexpected warning %q", report.Warning)
	}
}

func TestAnalyzeNeutral(t *testing.T) {
	report := Analyze("Здравствуйте, как дела?")
	if report.Flagged() {
		t.Fatalf("expected no signals, got %v", report.Signals)
	}
	if report.Level != LevelNone {
		t.Fatalf("expected none level, got %s", report.Level)
	}
	if Analyze("   ").Flagged() {
		t.Fatal("blank text must not be flagged")
	}
}

func TestAnalyzeLatinTokensNeedWordBoundary(t *testing.T) {
	for _, text := range []string{
		"Пришло письмо про spin-off акций",
		"Скидки в shopping центре",
		"Отправили ссылку на opinion опрос",
	} {
		report := Analyze(text)
		if contains(report.Signals, CardData) {
			t.Fatalf("%q: unexpected card data signal", text)
		}
		if report.Warning != "" {
			t.Fatalf("%q: unexpected warning", text)
		}
	}

	for _, text := range []string{"Просят назвать PIN", "спросили cvv и срок"} {
		if !contains(Analyze(text).Signals, CardData) {
			t.Fatalf("%q: expected card data signal", text)
		}
	}
}

func TestAnalyzeInflectedForms(t *testing.T) {
	cases := []struct {
		text string
		want Signal
	}{
		{"Звонили из полиции", Authority},
		{"Со мной говорил следователь", Authority},
		{"Представился следователем МВД", Authority},
		{"Письмо от прокуратуры", Authority},
		{"Это звонок из службы безопасности", Authority},
		{"Сотрудник Центрального банка", Authority},
		{"Просят перевести на безопасные счета", SafeAccount},
		{"Говорят, что со счёта будет списание, переведите на резервного счета", SafeAccount},
		{"Просили сообщить им код", SMSCode},
		{"Нужно было срочный перевод", Urgency},
		{"Попросили скачать приложение для защиты", RemoteAccess},
		{"Включите демонстрацию экрана", RemoteAccess},
		{"Обещают пассивного дохода", Investment},
	}
	for _, tc := range cases {
		if got := Analyze(tc.text).Signals; !contains(got, tc.want) {
			t.Errorf("%q: expected %s, got %v", tc.text, tc.want, got)
		}
	}
}

func TestAnalyzeUrgencyStemRespectsWordStart(t *testing.T) {
	if contains(Analyze("Это несрочный вопрос").Signals, Urgency) {
		t.Fatal("несрочный must not count as urgency")
	}
}

func TestLuhnValid(t *testing.T) {
	if !luhnValid("4111111111111111") {
		t.Fatal("expected valid card number")
	}
	if luhnValid("4111111111111112") {
		t.Fatal("expected invalid card number")
	}
	if luhnValid("123") {
		t.Fatal("short input must be invalid")
	}
}

func contains(signals []Signal, want Signal) bool {
	for _, s := range signals {
		if s == want {
			return true
		}
	}
	return false
}
