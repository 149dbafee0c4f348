package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// UserRole is the single role a user holds
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleCashier  UserRole = "CASHIER"
	RoleCustomer UserRole = "CUSTOMER"
)

func (r UserRole) String() string {
	return string(r)
}

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether the role may operate the till
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleCashier
}

// ParseUserRole normalizes and validates a role name
func ParseUserRole(name string) (UserRole, error) {
	r := UserRole(strings.ToUpper(strings.TrimSpace(name)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", name)
	}
	return r, nil
}

func (r *UserRole) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseUserRole(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r UserRole) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *UserRole) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = RoleCustomer
	case string:
		*r = UserRole(v)
	case []byte:
		*r = UserRole(v)
	default:
		return fmt.Errorf("cannot scan %T into UserRole", value)
	}
	return nil
}
