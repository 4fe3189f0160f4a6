package valueparse

import "testing"

func TestParseStockQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"12,0", 12},
		{"", 0},
		{"nan", 0},
		{"Stokta Yok", 0},
		{"Temin süresi 3 gün", 0},
		{"-5", 0},
		{"15 adet", 15},
	}
	for _, c := range cases {
		if got := ParseStockQuantity(c.in); got != c.want {
			t.Errorf("ParseStockQuantity(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"99,90", "99.9"},
		{"", "0"},
		{"nan", "0"},
		{"0", "0"},
		{"1500", "1500"},
	}
	for _, c := range cases {
		got := ParsePrice(c.in)
		if got.String() != c.want {
			t.Errorf("ParsePrice(%q) = %s, want %s", c.in, got.String(), c.want)
		}
	}
}

func TestStrictNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Şarjlı Matkap Üçgen", "sarjlimatkapucgen"},
		{"10 mm Anahtar Takımı", "10mmanahtartakimi"},
		{"", ""},
	}
	for _, c := range cases {
		if got := StrictNormalize(c.in); got != c.want {
			t.Errorf("StrictNormalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGenerateMatchCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "KOD_YOK"},
		{"BOSCH-12345", "12345"},
		{"ceta.A100", "A100"},
		{"XYZ-999", "XYZ999"},
	}
	for _, c := range cases {
		if got := GenerateMatchCode(c.in); got != c.want {
			t.Errorf("GenerateMatchCode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanColumnName(t *testing.T) {
	if got := CleanColumnName("  Barkod\tNo \n"); got != "barkod no" {
		t.Errorf("CleanColumnName = %q, want %q", got, "barkod no")
	}
}
