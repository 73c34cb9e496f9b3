package cache

import "strconv"

// InitiateKey namespaces a client Idempotency-Key by the caller that sent it.
func InitiateKey(userID int64, key string) string {
	return "idempotency:initiate:" + strconv.FormatInt(userID, 10) + ":" + key
}

// CallbackKey marks a checkout request whose callback was already applied.
func CallbackKey(checkoutRequestID string) string {
	return "idempotency:callback:" + checkoutRequestID
}
