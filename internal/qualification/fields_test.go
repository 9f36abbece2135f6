package qualification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

func TestNotExpiredDate(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
		kind  ErrorKind
	}{
		{"empty allowed", "", true, ""},
		{"today", "2025-06-15", true, ""},
		{"tomorrow", "2025-06-16", true, ""},
		{"yesterday", "2025-06-14", false, KindExpiredDocument},
		{"day-first layout", "14/06/2025", false, KindExpiredDocument},
		{"rfc3339 today", "2025-06-15T00:00:00Z", true, ""},
		{"garbage", "next tuesday", false, KindFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NotExpiredDate(tt.raw, testNow)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				require.NotNil(t, res.Error)
				assert.Equal(t, tt.kind, res.Error.Kind)
			}
		})
	}
}

func TestNotExpiredDate_LateInTheDay(t *testing.T) {
	late := time.Date(2025, time.June, 15, 23, 59, 59, 0, time.UTC)
	assert.True(t, NotExpiredDate("2025-06-15", late).Valid)
}

func TestFutureDate(t *testing.T) {
	assert.True(t, FutureDate("", testNow).Valid)
	assert.False(t, FutureDate("2025-06-15", testNow).Valid)
	assert.True(t, FutureDate("2025-06-16", testNow).Valid)

	res := FutureDate("2025-06-14", testNow)
	require.NotNil(t, res.Error)
	assert.Equal(t, KindRange, res.Error.Kind)

	res = FutureDate("31/02/2025", testNow)
	require.NotNil(t, res.Error)
	assert.Equal(t, KindFormat, res.Error.Kind)
}

func TestNormalizeSaudiMobile(t *testing.T) {
	for _, raw := range []string{"0512345678", "512345678", "+966512345678", "966512345678", "+966 51 234 5678", "051-234-5678"} {
		res := NormalizeSaudiMobile(raw)
		assert.True(t, res.Valid, raw)
		assert.Equal(t, "+966512345678", res.Normalized, raw)
	}

	for _, raw := range []string{"", "12345", "0412345678", "+14155552671", "96651234567"} {
		res := NormalizeSaudiMobile(raw)
		assert.False(t, res.Valid, raw)
		require.NotNil(t, res.Error)
		assert.Equal(t, KindFormat, res.Error.Kind)
	}
}

func TestNormalizeSaudiMobile_Idempotent(t *testing.T) {
	first := NormalizeSaudiMobile("0598765432")
	require.True(t, first.Valid)
	second := NormalizeSaudiMobile(first.Normalized)
	require.True(t, second.Valid)
	assert.Equal(t, first.Normalized, second.Normalized)
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("").Valid)
	assert.True(t, ValidateURL("https://alredwan.com.sa").Valid)
	assert.True(t, ValidateURL("http://example.com/about?x=1").Valid)

	res := ValidateURL("ftp://files.example.com")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error.Message, "http")

	assert.False(t, ValidateURL("not a url").Valid)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ops@alredwan.com").Valid)

	res := ValidateEmail("")
	require.NotNil(t, res.Error)
	assert.Equal(t, KindRequired, res.Error.Kind)

	res = ValidateEmail("ops.alredwan.com")
	require.NotNil(t, res.Error)
	assert.Equal(t, KindFormat, res.Error.Kind)
}

func TestValidateField(t *testing.T) {
	res := ValidateField(FieldSaudiMobile, "0512345678", testNow)
	assert.True(t, res.Valid)
	assert.Equal(t, "+966512345678", res.Normalized)

	assert.True(t, ValidateField(FieldNotExpiredDate, "2025-06-15", testNow).Valid)
	assert.False(t, ValidateField(FieldFutureDate, "2025-06-15", testNow).Valid)
	assert.True(t, ValidateField(FieldURL, "https://example.com", testNow).Valid)
	assert.False(t, ValidateField(FieldEmail, "nope", testNow).Valid)

	res = ValidateField(FieldKind("iban"), "SA0380000000608010167519", testNow)
	assert.False(t, res.Valid)
	require.NotNil(t, res.Error)
	assert.Equal(t, KindFormat, res.Error.Kind)
}
