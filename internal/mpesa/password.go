package mpesa

import (
	"encoding/base64"
	"time"
)

const timestampLayout = "20060102150405"

// Timestamp formats t as YYYYMMDDHHMMSS.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Password derives the Lipa na M-PESA online password.
func Password(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}
