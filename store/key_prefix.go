package store

// Declare database key prefix for objects
const (
	PrefixReceipt    = "receipt:"
	PrefixReceiptSig = "receipt_sig:"
)
