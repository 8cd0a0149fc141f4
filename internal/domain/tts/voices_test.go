package tts

import "testing"

func TestFind(t *testing.T) {
	v, ok := Find("zh-CN-XiaoxiaoNeural")
	if !ok {
		t.Fatal("expected catalog hit")
	}
	if v.Locale != "zh-CN" || v.Gender != "Female" {
		t.Errorf("unexpected entry: %+v", v)
	}

	if _, ok := Find("zh-CN-NoSuchNeural"); ok {
		t.Error("expected miss for unknown voice")
	}
}

func TestLocaleOf(t *testing.T) {
	cases := []struct {
		name, want string
	}{
		{"zh-CN-XiaoxiaoNeural", "zh-CN"},
		{"en-GB-SoniaNeural", "en-GB"},
		{"broken", ""},
	}
	for _, c := range cases {
		if got := LocaleOf(c.name); got != c.want {
			t.Errorf("LocaleOf(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestSupportsLanguage(t *testing.T) {
	if SupportsLanguage("en-US-AriaNeural", "zh") {
		t.Error("English voice must not accept Chinese text")
	}
	if !SupportsLanguage("zh-CN-YunxiNeural", "zh") {
		t.Error("Chinese voice must accept Chinese text")
	}
	if !SupportsLanguage("zh-CN-YunxiNeural", "en") {
		t.Error("Chinese voice should accept English text")
	}
	if !SupportsLanguage("en-US-GuyNeural", "unknown") {
		t.Error("unknown language should not block synthesis")
	}
}
