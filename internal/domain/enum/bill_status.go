package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// BillStatus represents the lifecycle status of a bill
type BillStatus int

const (
	BillStatusPending           BillStatus = 0
	BillStatusPaid              BillStatus = 1
	BillStatusCancelled         BillStatus = 2
	BillStatusCollectionRequest BillStatus = 3
	BillStatusAdminReview       BillStatus = 4
	BillStatusApproved          BillStatus = 5
	BillStatusBilling           BillStatus = 6
	BillStatusCompleted         BillStatus = 7
	BillStatusRejected          BillStatus = 8
	BillStatusProcessing        BillStatus = 9
)

var billStatusNames = [...]string{
	"PENDING",
	"PAID",
	"CANCELLED",
	"COLLECTION_REQUEST",
	"ADMIN_REVIEW",
	"APPROVED",
	"BILLING",
	"COMPLETED",
	"REJECTED",
	"PROCESSING",
}

func (s BillStatus) String() string {
	if int(s) < 0 || int(s) >= len(billStatusNames) {
		return "UNKNOWN"
	}
	return billStatusNames[s]
}

// Valid reports whether s is one of the declared statuses
func (s BillStatus) Valid() bool {
	return int(s) >= 0 && int(s) < len(billStatusNames)
}

// ParseBillStatus accepts the upper-case name, case-insensitively
func ParseBillStatus(name string) (BillStatus, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range billStatusNames {
		if n == name {
			return BillStatus(i), nil
		}
	}
	return BillStatusPending, fmt.Errorf("unknown bill status %q", name)
}

func (s BillStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *BillStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !BillStatus(i).Valid() {
			return fmt.Errorf("unknown bill status %d", i)
		}
		*s = BillStatus(i)
		return nil
	}
	parsed, err := ParseBillStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s BillStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *BillStatus) Scan(value interface{}) error {
	if value == nil {
		*s = BillStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = BillStatus(v)
	case int32:
		*s = BillStatus(v)
	case int:
		*s = BillStatus(v)
	case []byte:
		var i int
		if _, err := fmt.Sscan(string(v), &i); err != nil {
			return err
		}
		*s = BillStatus(i)
	default:
		return fmt.Errorf("cannot scan %T into BillStatus", value)
	}
	return nil
}
