package procurement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// IdempotencyKey hashes the defining fields of a commitment request. A
// client retrying the same order (after a timeout, say) produces the same
// key and gets the already-created purchase order back instead of a
// duplicate commitment.
func IdempotencyKey(materialRequestID, supplierID uint, quantityOrdered, unitCost float64, deliveryDate time.Time) string {
	payload := fmt.Sprintf("%d|%d|%s|%s|%s",
		materialRequestID,
		supplierID,
		strconv.FormatFloat(quantityOrdered, 'f', -1, 64),
		strconv.FormatFloat(unitCost, 'f', -1, 64),
		deliveryDate.Format("2006-01-02"),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
